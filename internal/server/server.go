package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/kiesman99/isotile/internal/api"
	"github.com/kiesman99/isotile/internal/convert"
	"github.com/kiesman99/isotile/pkg/tile"
)

// DefaultMaxUpload is the request body limit used when none is configured.
const DefaultMaxUpload = 32 << 20

const defaultUploadName = "sheet.png"

// Limits bounds the work one convert request may ask for.
type Limits struct {
	// MaxUpload is the request body limit in bytes.
	MaxUpload int64
	// MaxPixels caps the decoded upload, one target tile and the output sheet.
	MaxPixels int64
}

// Server implements the isotile HTTP API.
type Server struct {
	startTime time.Time
	version   string
	limits    Limits
	logger    *log.Logger
}

// NewServer creates a new server instance. Zero limits select
// DefaultMaxUpload and tile.DefaultMaxPixels; a nil logger selects
// log.Default().
func NewServer(version string, limits Limits, logger *log.Logger) *Server {
	if limits.MaxUpload <= 0 {
		limits.MaxUpload = DefaultMaxUpload
	}
	if limits.MaxPixels <= 0 {
		limits.MaxPixels = tile.DefaultMaxPixels
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		limits:    limits,
		logger:    logger,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// ConvertImage converts the uploaded sheet and streams back the PNG. The
// image is taken from the multipart field "image" or, for any other content
// type, from the raw request body.
func (s *Server) ConvertImage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = generateRequestID()
	}

	// Parameters and the output size are checked before the body is read.
	params, err := bindConvertParams(r)
	if err == nil {
		err = params.CheckLimit(s.limits.MaxPixels)
	}
	if err != nil {
		s.handleConvertError(w, err, &requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxUpload)
	data, name, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, api.PAYLOADTOOLARGE,
				fmt.Sprintf("image exceeds %d bytes", s.limits.MaxUpload), &requestID, nil)
			return
		}
		s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDREQUEST, err.Error(), &requestID, nil)
		return
	}

	logger := s.logger.With("request_id", requestID)
	conv := convert.NewConverter(&convert.Options{MaxPixels: s.limits.MaxPixels, Logger: logger})
	result, err := conv.ConvertBytes(r.Context(), data, params)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// The timeout middleware answers for us; the client may be gone.
		logger.Warn("conversion abandoned", "err", err)
		return
	}
	if err != nil {
		s.handleConvertError(w, err, &requestID)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": tile.OutputPath(name),
	}))
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.ImageData)))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.ImageData); err != nil {
		s.logger.Error("writing response", "request_id", requestID, "err", err)
	}
}

// bindConvertParams reads the query string into tile.Params.
func bindConvertParams(r *http.Request) (tile.Params, error) {
	var raw api.ConvertParams
	query := r.URL.Query()

	bindings := []struct {
		name     string
		required bool
		dest     interface{}
	}{
		{"cols", true, &raw.Cols},
		{"rows", true, &raw.Rows},
		{"width", true, &raw.Width},
		{"height", false, &raw.Height},
		{"lock_ratio", false, &raw.LockRatio},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, b.required, b.name, query, b.dest); err != nil {
			return tile.Params{}, &fieldError{field: b.name, err: err}
		}
	}

	p := tile.Params{
		Grid:   tile.Grid{Cols: raw.Cols, Rows: raw.Rows},
		Target: tile.Size{Width: raw.Width},
	}
	switch {
	case raw.LockRatio != nil && *raw.LockRatio:
		p.Target.Height = tile.HeightForWidth(raw.Width)
		p.LockRatio = true
	case raw.Height != nil:
		p.Target.Height = *raw.Height
	default:
		return tile.Params{}, &fieldError{
			field: "height",
			err:   errors.New("height is required unless lock_ratio is set"),
		}
	}

	if err := p.Validate(); err != nil {
		return tile.Params{}, err
	}
	return p, nil
}

// readUpload returns the uploaded image bytes and the client's file name.
func readUpload(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		f, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", fmt.Errorf("reading multipart field \"image\": %w", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		name := filepath.Base(header.Filename)
		if name == "." || name == string(filepath.Separator) {
			name = defaultUploadName
		}
		return data, name, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("request body is empty")
	}
	return data, defaultUploadName, nil
}

// fieldError marks a query parameter that could not be bound.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.field, e.err)
}

func (e *fieldError) Unwrap() error {
	return e.err
}

// handleConvertError maps conversion failures onto HTTP responses
func (s *Server) handleConvertError(w http.ResponseWriter, err error, requestID *string) {
	var fe *fieldError
	if errors.As(err, &fe) {
		s.writeValidationErrorResponse(w, "grid sizes and target sizes must be integers",
			[]api.ValidationError{{Field: fe.field, Message: fe.err.Error()}}, requestID)
		return
	}

	switch tile.GetCode(err) {
	case tile.ErrCodeInvalidParameter:
		s.writeValidationErrorResponse(w, err.Error(),
			[]api.ValidationError{{Field: "request", Message: err.Error()}}, requestID)
	case tile.ErrCodeDegenerateGrid:
		s.writeErrorResponse(w, http.StatusBadRequest, string(tile.ErrCodeDegenerateGrid),
			err.Error(), requestID, nil)
	case tile.ErrCodeTooLarge:
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, string(tile.ErrCodeTooLarge),
			err.Error(), requestID, nil)
	case tile.ErrCodeIO:
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, string(tile.ErrCodeIO),
			err.Error(), requestID, nil)
	default:
		s.logger.Error("conversion failed", "request_id", *requestID, "err", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, api.INTERNALERROR,
			"Internal server error", requestID, nil)
	}
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, message string, fields []api.ValidationError, requestID *string) {
	response := api.ValidationErrorResponse{
		Error:            string(tile.ErrCodeInvalidParameter),
		Message:          message,
		RequestId:        requestID,
		ValidationErrors: fields,
	}

	s.writeJSON(w, http.StatusBadRequest, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "err", err)
	}
}

// generateRequestID generates a unique request ID for handlers mounted
// without the RequestID middleware.
func generateRequestID() string {
	return "req_" + uuid.NewString()
}
