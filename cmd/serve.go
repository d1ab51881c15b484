package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiesman99/isotile/internal/server"
	"github.com/kiesman99/isotile/pkg/tile"
)

func (a *app) newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for tile sheet conversion",
		Long: `Start an HTTP server that converts uploaded tile sheets.

POST the image to /api/v1/convert, either as the raw body or as the
multipart field "image", with cols, rows, width and height (or
lock_ratio=true) as query parameters. The response is the converted PNG.
Uploads, target tiles and output sheets above --max-pixels are refused
with 413 before any pixels are allocated.

Examples:
  # Start server on default port 8080
  isotile serve

  # Start server with custom bind address
  isotile serve --bind 0.0.0.0 --port 3000

  # Convert a sheet
  curl --data-binary @sheet.png -o sheet_iso.png \
    'http://localhost:8080/api/v1/convert?cols=4&rows=2&width=128&height=64'`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int64("max-upload", server.DefaultMaxUpload, "maximum upload size in bytes")
	serveCmd.Flags().Int64("max-pixels", tile.DefaultMaxPixels, "maximum pixels of a decoded upload, a target tile or the output sheet")

	return serveCmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	bind := a.v.GetString("server.bind")
	port := a.v.GetInt("server.port")
	timeout := a.v.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)

	apiServer := server.NewServer(version, a.serverLimits(), logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(apiServer, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "err", err)
		}
	}()

	logger.Info("starting isotile server", "addr", addr)
	logger.Info("health check", "url", fmt.Sprintf("http://%s/api/v1/health", addr))
	logger.Info("convert endpoint", "url", fmt.Sprintf("http://%s/api/v1/convert", addr))

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (a *app) serverLimits() server.Limits {
	return server.Limits{
		MaxUpload: a.v.GetInt64("server.max-upload"),
		MaxPixels: a.v.GetInt64("server.max-pixels"),
	}
}
