// Package container provides a narrow adapter over a container engine:
// create/start/stop/remove containers, create/remove a shared network,
// and inspect state for health and endpoint derivation. It is the only
// package in this module that talks to the container engine's API.
package container

import "context"

// ContainerSpec describes everything needed to create a worker container.
type ContainerSpec struct {
	Image         string
	CmdArgs       []string
	Env           map[string]string
	Binds         []string // "host_path:/mnt/workspace:rw"
	Network       string
	ExposedPorts  []int
	MemoryLimit   int64   // bytes, 0 means unbounded
	CPUShares     float64 // fractional CPUs, 0 means unbounded
}

// ContainerState mirrors the subset of engine container state this system
// cares about for health derivation.
type ContainerState struct {
	Running bool
	ExitCode int
}

// InspectResult is the outcome of inspecting a running container.
type InspectResult struct {
	State           ContainerState
	NetworkEndpoints map[string]string // network name -> container IP on that network
}

// Runtime is the Container Runtime Adapter: a thin, blocking interface
// over a container engine. All operations may block the calling
// goroutine; the Orchestrator is expected to call them from goroutines it
// is willing to have block, not from latency-sensitive request paths.
type Runtime interface {
	// CreateNetwork is idempotent; returns the network id.
	CreateNetwork(ctx context.Context, name string) (string, error)

	// RemoveNetwork removes a previously created network. Idempotent.
	RemoveNetwork(ctx context.Context, name string) error

	// PullIfMissing pulls an image only if it is not already present locally.
	PullIfMissing(ctx context.Context, imageRef string) error

	// CreateContainer returns the engine-assigned container id.
	CreateContainer(ctx context.Context, spec ContainerSpec) (string, error)

	// StartContainer starts a previously created container.
	StartContainer(ctx context.Context, id string) error

	// StopContainer sends a graceful stop with the given timeout, falling
	// back to a forced kill if the container does not exit in time.
	StopContainer(ctx context.Context, id string, timeout int) error

	// RemoveContainer removes a container, forcing removal of a still-running
	// one when force is true.
	RemoveContainer(ctx context.Context, id string, force bool) error

	// InspectContainer returns current state and network endpoints.
	InspectContainer(ctx context.Context, id string) (*InspectResult, error)

	// ContainerLogs returns up to tailBytes of combined stdout/stderr,
	// for diagnostic inclusion in errors.
	ContainerLogs(ctx context.Context, id string, tailBytes int) (string, error)

	// Close releases adapter-held resources (engine client connections).
	Close() error

	// Ping verifies the engine is reachable, for use by health probes.
	Ping(ctx context.Context) error
}
