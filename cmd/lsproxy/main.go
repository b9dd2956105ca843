package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nuanced-dev/lsproxy/pkg/api"
	"github.com/nuanced-dev/lsproxy/pkg/config"
	"github.com/nuanced-dev/lsproxy/pkg/container"
	"github.com/nuanced-dev/lsproxy/pkg/dispatcher"
	"github.com/nuanced-dev/lsproxy/pkg/observability"
	"github.com/nuanced-dev/lsproxy/pkg/orchestrator"
	"github.com/nuanced-dev/lsproxy/pkg/workspace"
)

const version = "0.1.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting lsproxy")
	logger.Infof("Workspace: %s (host path %s)", cfg.Orchestrator.WorkspacePath, cfg.Orchestrator.HostWorkspacePath)

	ctx := context.Background()
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize OpenTelemetry")
		// Don't fail - continue without OTel
	}

	runtime, err := container.NewDockerRuntime()
	if err != nil {
		log.Fatalf("Failed to connect to container engine: %v", err)
	}

	languages := workspace.NewDefaultRegistry()

	orchLog := logrus.New()
	orch := orchestrator.New(&orchestrator.Config{
		NetworkName:          cfg.Orchestrator.NetworkName,
		HostWorkspacePath:    cfg.Orchestrator.HostWorkspacePath,
		WorkerPort:           cfg.Orchestrator.WorkerPort,
		HealthInitialBackoff: cfg.Orchestrator.HealthInitialBackoff,
		HealthBackoffFactor:  cfg.Orchestrator.HealthBackoffFactor,
		HealthMaxBackoff:     cfg.Orchestrator.HealthMaxBackoff,
		HealthDeadline:       cfg.Orchestrator.HealthDeadline,
		StopTimeout:          cfg.Orchestrator.StopTimeout,
		LogLevel:             cfg.Observability.LogLevel.String(),
		ReconcileInterval:    cfg.Orchestrator.ReconcileInterval,
	}, runtime, languages, orchLog)

	if err := orch.Initialize(ctx, cfg.Orchestrator.WorkspacePath); err != nil {
		logger.WithError(err).Error("Failed to initialize orchestrator")
		log.Fatalf("Failed to initialize orchestrator: %v", err)
	}
	logger.Info("Orchestrator initialized, workers spawned")

	reconciler := orchestrator.NewReconciler(orch, orchLog)
	if err := reconciler.Start(); err != nil {
		logger.WithError(err).Error("Failed to start worker health reconciler")
	}

	disp := dispatcher.New(orch, languages)

	apiLog := logrus.New()
	server := api.NewServer(disp, orch, version, apiLog)

	var handler http.Handler = server
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "lsproxy-api",
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		)
		logger.Info("OpenTelemetry HTTP instrumentation enabled")
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	handler = observability.HTTPMetricsMiddleware(metrics)(handler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthChecker := observability.NewHealthChecker(runtime, orch.Registry())

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, healthChecker)

	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
		logger.Info("Metrics endpoint enabled at /metrics")
	}

	healthServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		defer observability.RecoverPanic(logger, "health/metrics server goroutine")
		logger.Infof("Starting health/metrics server on port %s", cfg.Server.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	shutdownManager := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)

	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		logger.Info("Shutting down health server")
		return healthServer.Shutdown(ctx)
	})

	// Shutdown funcs run concurrently, so the reconciler is stopped in the
	// same func as, and before, the orchestrator shutdown.
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		logger.Info("Stopping worker health reconciler")
		reconciler.Stop()
		logger.Info("Shutting down orchestrator, stopping worker containers")
		return orch.Shutdown(ctx)
	})

	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		logger.Info("Closing container engine connection")
		return runtime.Close()
	})

	if otelProviders != nil {
		shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
			logger.Info("Shutting down OpenTelemetry")
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		defer observability.RecoverPanic(logger, "api server goroutine")
		logger.Infof("Starting lsproxy API server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	logger.Info("Server started successfully, waiting for shutdown signal")
	if err := shutdownManager.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		os.Exit(1)
	}

	logger.Info("Server shutdown complete")
}
