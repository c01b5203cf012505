package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/NahomAnteneh/notion-gateway/internal/api"
	"github.com/NahomAnteneh/notion-gateway/internal/api/handlers"
	"github.com/NahomAnteneh/notion-gateway/internal/config"
	"github.com/NahomAnteneh/notion-gateway/pkg/notion"
)

func main() {
	bootLogger := hclog.New(&hclog.LoggerOptions{
		Name:   "notion-gateway",
		Level:  hclog.Info,
		Output: os.Stdout,
	})
	bootLogger.Info("starting Notion gateway")

	cfg, err := config.LoadConfig(bootLogger)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	router := api.SetupRouter(cfg, newClientFactory(cfg, logger.Named("upstream")), logger)
	logger.Info("router configured",
		"endpoints", []string{
			"GET /notion/databases",
			"GET /notion/databases/{id}",
			"GET /notion/databases/{id}/query",
			"GET /notion/pages/{id}",
		})

	// Configure HTTP server with timeouts. The write timeout has to outlive
	// the upstream timeout or slow Notion calls would be cut off mid-response.
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:        router,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   cfg.NotionTimeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
		ErrorLog:       logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("listening", "port", cfg.ServerPort, "tls", cfg.IsTLSEnabled())
		if cfg.IsTLSEnabled() {
			serverErr <- server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serverErr <- server.ListenAndServe()
		}
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("received signal", "signal", sig.String())
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// newLogger builds the root logger from the configured level and format.
func newLogger(cfg *config.Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "notion-gateway",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		Output:     os.Stdout,
		JSONFormat: cfg.LogFormat == "json",
	})
}

// newClientFactory returns a factory that builds one Notion client per call,
// bound to the caller's token.
func newClientFactory(cfg *config.Config, logger hclog.Logger) handlers.ClientFactory {
	return func(token string) handlers.NotionClient {
		return notion.NewClient(cfg.NotionBaseURL,
			notion.WithTokenAuth(token),
			notion.WithTimeout(cfg.NotionTimeout),
			notion.WithNotionVersion(cfg.NotionVersion),
			notion.WithLogger(logger),
			notion.WithVerbose(logger.IsDebug()),
		)
	}
}
