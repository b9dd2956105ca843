// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, and distributed tracing integration.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.Infof("Server started on port %d", 8080)
//
// Context-aware logging:
//
//	logger.WithField("request_id", reqID).WithError(err).Error("Request failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/symbols", "200").Inc()
//	metrics.HTTPRequestDuration.WithLabelValues("GET", "/api/v1/symbols").Observe(0.123)
//
// Wrap the API handler and expose the scrape endpoint:
//
//	handler = observability.HTTPMetricsMiddleware(metrics)(handler)
//	observability.RegisterMetricsEndpoint(healthMux, registry)
//
// # Health Checks
//
// Configure health checker against the container engine and worker registry:
//
//	checker := observability.NewHealthChecker(runtime, orchestrator.Registry())
//	status := checker.Check(ctx)
//	fmt.Printf("Status: %s\n", status.Status)
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:        true,
//		Endpoint:       "otel-collector:4317",
//		ServiceName:    "lsproxy",
//		ServiceVersion: "v1.0.0",
//		Insecure:       true,
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/orchestrator: Worker registry consumed by the health checker
package observability
