// Package api holds the request and response types of the isotile HTTP API.
package api

import "time"

// HealthResponseStatus is the service status reported by the health endpoint.
type HealthResponseStatus string

// Defines values for HealthResponseStatus.
const (
	Healthy   HealthResponseStatus = "healthy"
	Unhealthy HealthResponseStatus = "unhealthy"
)

// Error codes that are not conversion error codes.
const (
	INVALIDREQUEST  = "INVALID_REQUEST"
	PAYLOADTOOLARGE = "PAYLOAD_TOO_LARGE"
	INTERNALERROR   = "INTERNAL_ERROR"
)

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Uptime    *int                 `json:"uptime,omitempty"`
	Version   *string              `json:"version,omitempty"`
}

// ConvertParams defines the query parameters of the convert endpoint.
type ConvertParams struct {
	Cols   int  `form:"cols" json:"cols"`
	Rows   int  `form:"rows" json:"rows"`
	Width  int  `form:"width" json:"width"`
	Height *int `form:"height,omitempty" json:"height,omitempty"`

	// LockRatio derives height as width/2 and ignores Height.
	LockRatio *bool `form:"lock_ratio,omitempty" json:"lock_ratio,omitempty"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
	Details   *map[string]interface{} `json:"details,omitempty"`
}

// ValidationError names one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse defines model for ValidationErrorResponse.
type ValidationErrorResponse struct {
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	RequestId        *string           `json:"request_id,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors"`
}
