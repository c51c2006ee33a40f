// ABOUTME: Serve command starts the HTTP JSON API
// ABOUTME: Runs one shared session behind echo until interrupted, then shuts down gracefully
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr string
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP JSON API over a single document session.

Routes:
  POST /api/document      upload (multipart "file" or raw body with ?name=)
  POST /api/index         build the index
  POST /api/ask           {"question": "..."}
  POST /api/summary       generate the summary
  POST /api/eval/summary  {"judge": true}
  POST /api/eval/qa       {"last_n": 5, "judge": true}
  POST /api/reset         clear the session
  GET  /api/session       current state
  GET  /healthz, /metrics`,
		RunE: runServe,
		Example: `  docqa serve
  docqa serve --addr 127.0.0.1:9000 --judge`,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from DOCQA_HTTP_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}

	srv := server.New(a.session, a.metrics, a.logger, server.Options{Judge: useJudge})

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(addr)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("shutdown incomplete", zap.Error(err))
		}
		a.logger.Info("shutdown complete")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
