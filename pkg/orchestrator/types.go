// Package orchestrator owns the WorkerRegistry and is the only component
// that mutates it or calls the Container Runtime Adapter. It detects
// languages present in a workspace, spawns one worker container per
// language, health-checks them, and tears them down on shutdown.
package orchestrator

import "time"

// WorkerState is the lifecycle state of a WorkerDescriptor. Entries
// transition through Spawning -> Healthy -> Stopping -> Gone, or
// Spawning -> Failed -> Gone. The Reconciler can also demote Healthy to
// Failed, and Shutdown takes a Failed entry through Stopping to Gone.
type WorkerState string

const (
	WorkerStateSpawning WorkerState = "spawning"
	WorkerStateHealthy  WorkerState = "healthy"
	WorkerStateFailed   WorkerState = "failed"
	WorkerStateStopping WorkerState = "stopping"
	WorkerStateGone     WorkerState = "gone"
)

// WorkerDescriptor identifies one running worker container.
type WorkerDescriptor struct {
	Language          string
	ImageRef          string
	ContainerID       string
	NetworkAliasOrIP  string
	Port              int
	EndpointURL       string
	SpawnedAt         time.Time
	State             WorkerState
	LastError         string
}

// Config holds orchestrator configuration.
type Config struct {
	// NetworkName is the shared bridge network created at initialize and
	// removed at shutdown.
	NetworkName string

	// HostWorkspacePath is the bind source passed to the container engine.
	// Per the path translation rule, this must be the outer-host path,
	// never the base process's own mount point.
	HostWorkspacePath string

	// WorkerPort is the port every worker image listens on.
	WorkerPort int

	// HealthInitialBackoff, HealthBackoffFactor, HealthMaxBackoff, and
	// HealthDeadline parameterize the spawn health loop.
	HealthInitialBackoff time.Duration
	HealthBackoffFactor  float64
	HealthMaxBackoff     time.Duration
	HealthDeadline       time.Duration

	// StopTimeout bounds graceful container stop before a force-kill.
	StopTimeout time.Duration

	// LogLevel is propagated to worker containers via env.
	LogLevel string

	// ReconcileInterval controls how often the background reconciler
	// re-checks worker health between requests. Zero disables it.
	ReconcileInterval time.Duration
}

// DefaultConfig returns the spec-mandated defaults (§4.D spawn algorithm
// and §5 timeouts).
func DefaultConfig() *Config {
	return &Config{
		NetworkName:          "lsproxy-net",
		WorkerPort:           8080,
		HealthInitialBackoff: 100 * time.Millisecond,
		HealthBackoffFactor:  1.5,
		HealthMaxBackoff:     2 * time.Second,
		HealthDeadline:       30 * time.Second,
		StopTimeout:          10 * time.Second,
		LogLevel:             "info",
		ReconcileInterval:    15 * time.Second,
	}
}
