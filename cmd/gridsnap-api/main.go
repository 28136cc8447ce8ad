// Package main provides the gridsnap API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridsnap/gridsnap/internal/config"
	"github.com/gridsnap/gridsnap/internal/imaging"
	"github.com/gridsnap/gridsnap/internal/observability"
	"github.com/gridsnap/gridsnap/internal/relay"
	"github.com/gridsnap/gridsnap/internal/vision"
	"github.com/joho/godotenv"
)

func main() {
	// Local untracked secrets file, if present.
	_ = godotenv.Load()

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "gridsnap",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("model", cfg.Vision.Model).
		Msg("Starting gridsnap API")

	// A missing credential is a startup warning, not a crash; uploads will
	// fail with an extraction error until one is supplied.
	if !cfg.HasCredential() {
		logger.Warn().Msg("No vision API key set (API_KEY_OPEN_AI or OPENAI_API_KEY); extraction will fail")
	}

	// Wire the relay
	validator := imaging.NewValidator(cfg.Upload.MaxBytes, cfg.Upload.AllowedTypes)
	extractor := vision.NewClient(vision.ClientConfig{
		APIKey:    cfg.Vision.APIKey,
		Model:     cfg.Vision.Model,
		BaseURL:   cfg.Vision.BaseURL,
		Timeout:   cfg.Vision.Timeout,
		MaxTokens: cfg.Vision.MaxTokens,
		Logger:    logger,
	})
	service := relay.NewService(validator, extractor, logger)

	router := NewRouter(logger, cfg, service)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
