package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/app"
	"github.com/example/contact-service/internal/config"
	"github.com/example/contact-service/internal/httpapi"
	"github.com/example/contact-service/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New("contact-server", cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := *baseLogger

	if err := run(ctx, cfg, log); err != nil {
		stop()
		log.Fatal().Err(err).Msg("contact server stopped with error")
	}
}

// run owns the pipeline for the lifetime of the server; every return path
// releases it.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) (err error) {
	pipeline, err := app.Build(cfg, log)
	if err != nil {
		return fmt.Errorf("build submission pipeline: %w", err)
	}
	defer func() {
		if cerr := pipeline.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("failed to release pipeline resources")
		}
	}()

	contact, err := httpapi.NewContactHandler(pipeline.Controller, int64(cfg.Validation.FormMaxBytes), log)
	if err != nil {
		return fmt.Errorf("initialise contact handler: %w", err)
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           httpapi.NewRouter(contact, pipeline.Ready, log),
		ReadHeaderTimeout: 10 * time.Second,
		// Provider calls are bounded separately; leave headroom for them.
		WriteTimeout: time.Duration(cfg.Dispatch.ProviderTimeoutSeconds+10) * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}

	log.Info().
		Int("port", cfg.App.Port).
		Str("email_provider", cfg.Providers.EmailProvider).
		Bool("events_enabled", cfg.Kafka.Enabled()).
		Msg("contact server started")

	return serve(ctx, server, listener, log)
}

// serve runs server on listener until ctx is cancelled or the server fails,
// then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, listener net.Listener, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error().Err(serveErr).Msg("http server terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		if serveErr == nil {
			serveErr = err
		}
	}
	return serveErr
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("contact server init failed")
}
