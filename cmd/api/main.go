// Package main provides the entrypoint for the status relay server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusrelay/statusrelay/internal/api"
	"github.com/statusrelay/statusrelay/internal/api/middleware"
	"github.com/statusrelay/statusrelay/internal/config"
	"github.com/statusrelay/statusrelay/internal/logging"
	"github.com/statusrelay/statusrelay/internal/metrics"
	"github.com/statusrelay/statusrelay/internal/plugin"
	"github.com/statusrelay/statusrelay/internal/provider/resilience"
	"github.com/statusrelay/statusrelay/internal/service"
	"github.com/statusrelay/statusrelay/internal/status"
	"github.com/statusrelay/statusrelay/internal/status/statuspageio"
	"github.com/statusrelay/statusrelay/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "statusrelay"

func main() {
	if err := run(); err != nil {
		log := zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
		log.Fatal().Err(err).Msg("statusrelay exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(logging.Config{
		Service: serviceName,
		Version: Version,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.AppEnv).
		Msg("starting status relay")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.AppEnv,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		return err
	}
	promMetrics := metrics.New()

	registry := service.Default()
	health := resilience.NewRegistry()

	var breaker *resilience.CircuitBreakerConfig
	if cfg.CircuitBreaker {
		cb := resilience.DefaultCircuitBreakerConfig(statuspageio.ProviderName)
		breaker = &cb
	}

	client := statuspageio.NewClient(statuspageio.ClientConfig{
		Registry:        registry,
		BaseURL:         cfg.StatuspageBaseURL,
		Timeout:         cfg.ProviderTimeout,
		CircuitBreaker:  breaker,
		Health:          health,
		UserAgent:       serviceName + "/" + Version,
		ProviderMetrics: providerMetrics,
		Logger:          log,
	})

	statusService := status.NewService(status.ServiceConfig{
		Registry: registry,
		Provider: client,
		Logger:   log,
		Metrics:  promMetrics,
	})

	dispatcher := plugin.New(plugin.Config{
		Registry: registry,
		Fetcher:  statusService,
		Logger:   log,
		Metrics:  promMetrics,
	})

	log.Info().
		Int("services", registry.Len()).
		Str("default_service", registry.DefaultKey()).
		Bool("circuit_breaker", cfg.CircuitBreaker).
		Dur("provider_timeout", cfg.ProviderTimeout).
		Msg("status service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		PromMetrics: promMetrics,
		Dispatcher:  dispatcher,
		Registry:    registry,
		Health:      health,
		RateLimit:   middleware.PerMinute(cfg.RateLimitPerMinute),
		CORSOrigins: cfg.CORSAllowedOrigins,
		RequireTLS:  cfg.RequireTLS,
	})

	// No WriteTimeout: upstream lookups are unbounded unless PROVIDER_TIMEOUT is set.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
