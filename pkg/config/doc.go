// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	LSPROXY_HOST="0.0.0.0"
//	LSPROXY_PORT="8080"
//	LSPROXY_HEALTH_PORT="9090"
//	LSPROXY_READ_TIMEOUT="15s"
//	LSPROXY_WRITE_TIMEOUT="15s"
//	USE_AUTH="false"  # external auth middleware, not implemented here
//
// Orchestrator settings:
//
//	HOST_WORKSPACE_PATH="/home/dev/project"  # outer-host bind source
//	WORKSPACE_PATH="/mnt/workspace"          # in-process workspace root
//	LSPROXY_NETWORK_NAME="lsproxy-net"
//	LSPROXY_WORKER_PORT="8080"
//	LSPROXY_HEALTH_INITIAL_BACKOFF="100ms"
//	LSPROXY_HEALTH_BACKOFF_FACTOR="1.5"
//	LSPROXY_HEALTH_MAX_BACKOFF="2s"
//	LSPROXY_HEALTH_DEADLINE="30s"
//	LSPROXY_STOP_TIMEOUT="10s"
//	LSPROXY_RECONCILE_INTERVAL="15s"
//
// Observability settings:
//
//	LOG_LEVEL="info"  # debug, info, warn, error
//	LSPROXY_METRICS_ENABLED="true"
//	LSPROXY_OTEL_ENABLED="true"
//	LSPROXY_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Workspace: %s\n", cfg.Orchestrator.WorkspacePath)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/orchestrator: consumes OrchestratorConfig
//   - pkg/observability: uses ObservabilityConfig
package config
