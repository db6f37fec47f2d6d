package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Aashish23092/legaldoc-guardian/config"
	"github.com/Aashish23092/legaldoc-guardian/handler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the forgery screening HTTP server.

Endpoints:
  GET  /health                   - health check
  POST /api/v1/forgery/analyze   - multipart upload (file, optional password)
  POST /api/v1/forgery/tokens    - score pre-computed OCR tokens
  POST /api/v1/forgery/fields    - extract fields from OCR tokens

Locator tolerances in the config file are reloaded on change.

Examples:
  legaldoc serve                     # Start on the configured port
  legaldoc serve --port 3000         # Start on custom port
  legaldoc serve --config prod.yaml  # Use a specific config file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		manager, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := manager.Get()

		logger := newLogger(os.Stderr, cfg.Server.LogLevel)

		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		logger.Info("scorer ready", "rules", a.service.Scorer().String())

		manager.OnChange(func(c *config.Config) {
			a.service.SetScorer(newScorer(a.store, c))
			logger.Info("config reloaded", "file", manager.ConfigFile(), "locator", c.Locator)
		})
		manager.WatchConfig(func(err error) {
			logger.Error("config reload failed", "error", err)
		})

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		if cfg.Server.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := handler.NewRouter(handler.NewForgeryHandler(a.service, logger))
		if cfg.Server.MaxUploadMB > 0 {
			router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
		}

		srv := &http.Server{
			Addr:              net.JoinHostPort(host, port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting HTTP server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received")
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
}
