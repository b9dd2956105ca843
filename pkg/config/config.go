package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nuanced-dev/lsproxy/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Orchestrator configuration
	Orchestrator OrchestratorConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// UseAuth gates whether external auth middleware (an external
	// collaborator per spec.md §1, not implemented by this module) is
	// expected to sit in front of the base process.
	UseAuth bool
}

// OrchestratorConfig holds the workspace paths and container-orchestration
// settings the base process needs to spawn and supervise worker containers.
type OrchestratorConfig struct {
	// HostWorkspacePath is the outer-host path bound into worker containers
	// (spec.md §4.D path translation rule). Read once at startup and never
	// consulted again afterward.
	HostWorkspacePath string

	// WorkspacePath is the workspace root as seen by this process itself
	// (defaults to /mnt/workspace, matching the worker's own mount point).
	WorkspacePath string

	// NetworkName is the shared bridge network created at initialize and
	// removed at shutdown.
	NetworkName string

	// WorkerPort is the port every worker image listens on.
	WorkerPort int

	// HealthInitialBackoff, HealthBackoffFactor, HealthMaxBackoff, and
	// HealthDeadline parameterize the spawn health loop (spec.md §4.D).
	HealthInitialBackoff time.Duration
	HealthBackoffFactor  float64
	HealthMaxBackoff     time.Duration
	HealthDeadline       time.Duration

	// StopTimeout bounds graceful container stop before a force-kill.
	StopTimeout time.Duration

	// ReconcileInterval controls how often the background reconciler
	// re-checks worker health between requests. Zero disables it.
	ReconcileInterval time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Orchestrator:  loadOrchestratorConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("LSPROXY_HOST", "0.0.0.0"),
		Port:            getEnv("LSPROXY_PORT", "8080"),
		ReadTimeout:     getEnvDuration("LSPROXY_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("LSPROXY_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("LSPROXY_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("LSPROXY_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("LSPROXY_HEALTH_PORT", "9090"),
		UseAuth:         getEnvBool("USE_AUTH", false),
	}
}

// loadOrchestratorConfig loads orchestrator configuration from environment.
//
// HOST_WORKSPACE_PATH is the outer-host workspace path for bind mounts
// (spec.md §4.D). If unset, the base process assumes it is not itself
// containerized and falls back to WORKSPACE_PATH directly.
func loadOrchestratorConfig() OrchestratorConfig {
	workspacePath := getEnv("WORKSPACE_PATH", "/mnt/workspace")
	hostWorkspacePath := getEnv("HOST_WORKSPACE_PATH", workspacePath)

	return OrchestratorConfig{
		HostWorkspacePath:    hostWorkspacePath,
		WorkspacePath:        workspacePath,
		NetworkName:          getEnv("LSPROXY_NETWORK_NAME", "lsproxy-net"),
		WorkerPort:           getEnvInt("LSPROXY_WORKER_PORT", 8080),
		HealthInitialBackoff: getEnvDuration("LSPROXY_HEALTH_INITIAL_BACKOFF", 100*time.Millisecond),
		HealthBackoffFactor:  getEnvFloat("LSPROXY_HEALTH_BACKOFF_FACTOR", 1.5),
		HealthMaxBackoff:     getEnvDuration("LSPROXY_HEALTH_MAX_BACKOFF", 2*time.Second),
		HealthDeadline:       getEnvDuration("LSPROXY_HEALTH_DEADLINE", 30*time.Second),
		StopTimeout:          getEnvDuration("LSPROXY_STOP_TIMEOUT", 10*time.Second),
		ReconcileInterval:    getEnvDuration("LSPROXY_RECONCILE_INTERVAL", 15*time.Second),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("LSPROXY_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("LSPROXY_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("LSPROXY_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("LSPROXY_OTEL_SERVICE_NAME", "lsproxy"),
		OTelServiceVersion: getEnv("LSPROXY_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("LSPROXY_OTEL_INSECURE", true),
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate orchestrator config
	if c.Orchestrator.WorkspacePath == "" {
		return fmt.Errorf("workspace path is required")
	}
	if c.Orchestrator.NetworkName == "" {
		return fmt.Errorf("network name is required")
	}
	if c.Orchestrator.WorkerPort <= 0 {
		return fmt.Errorf("worker port must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
