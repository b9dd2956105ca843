package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nuanced-dev/lsproxy/pkg/container"
	"github.com/nuanced-dev/lsproxy/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopRuntime is a minimal container.Runtime double for tests that never
// reach the health-probe loop (the Initialize integration path is covered
// separately, gated on a real container engine).
type noopRuntime struct{}

func (noopRuntime) CreateNetwork(ctx context.Context, name string) (string, error) { return "net", nil }
func (noopRuntime) RemoveNetwork(ctx context.Context, name string) error           { return nil }
func (noopRuntime) PullIfMissing(ctx context.Context, imageRef string) error       { return nil }
func (noopRuntime) CreateContainer(ctx context.Context, spec container.ContainerSpec) (string, error) {
	return "container-id", nil
}
func (noopRuntime) StartContainer(ctx context.Context, id string) error { return nil }
func (noopRuntime) StopContainer(ctx context.Context, id string, timeout int) error {
	return nil
}
func (noopRuntime) RemoveContainer(ctx context.Context, id string, force bool) error { return nil }
func (noopRuntime) InspectContainer(ctx context.Context, id string) (*container.InspectResult, error) {
	return &container.InspectResult{
		State:            container.ContainerState{Running: true},
		NetworkEndpoints: map[string]string{"lsproxy-net": "127.0.0.1"},
	}, nil
}
func (noopRuntime) ContainerLogs(ctx context.Context, id string, tailBytes int) (string, error) {
	return "", nil
}
func (noopRuntime) Close() error           { return nil }
func (noopRuntime) Ping(ctx context.Context) error { return nil }

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.HealthInitialBackoff = 5 * time.Millisecond
	cfg.HealthMaxBackoff = 20 * time.Millisecond
	cfg.HealthDeadline = 100 * time.Millisecond
	cfg.ReconcileInterval = 0
	return cfg
}

func TestOrchestrator_WorkerForFile_NotFound(t *testing.T) {
	o := New(testConfig(), noopRuntime{}, workspace.NewDefaultRegistry(), nil)

	_, err := o.WorkerForFile("main.go")
	assert.ErrorIs(t, err, ErrWorkerNotFound)
}

func TestOrchestrator_AllWorkers_EmptyBeforeInit(t *testing.T) {
	o := New(testConfig(), noopRuntime{}, workspace.NewDefaultRegistry(), nil)
	assert.Empty(t, o.AllWorkers())
}

func TestOrchestrator_Shutdown_Idempotent(t *testing.T) {
	o := New(testConfig(), noopRuntime{}, workspace.NewDefaultRegistry(), nil)
	require.NoError(t, o.Shutdown(context.Background()))
	require.NoError(t, o.Shutdown(context.Background()))
}

// TestOrchestrator_Initialize_HealthTimeout exercises the per-worker
// Failed path: the fake runtime never serves a real /health endpoint, so
// the probe always fails and the short testConfig deadline trips quickly.
func TestOrchestrator_Initialize_HealthTimeout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root+"/main.go", "package main")

	o := New(testConfig(), noopRuntime{}, workspace.NewDefaultRegistry(), nil)
	err := o.Initialize(context.Background(), root)
	assert.ErrorIs(t, err, ErrHealthTimeout)

	// Rollback must have cleared the registry entry.
	assert.Empty(t, o.AllWorkers())
}

func TestOrchestrator_Initialize_NoLanguagesDetected(t *testing.T) {
	root := t.TempDir()

	o := New(testConfig(), noopRuntime{}, workspace.NewDefaultRegistry(), nil)
	err := o.Initialize(context.Background(), root)
	assert.ErrorIs(t, err, ErrNoLanguagesDetected)
}

func TestOrchestrator_Initialize_AlreadyInitialized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root+"/main.go", "package main")

	cfg := testConfig()
	cfg.HealthDeadline = 0 // force immediate health timeout, we only care about the guard
	o := New(cfg, noopRuntime{}, workspace.NewDefaultRegistry(), nil)

	_ = o.Initialize(context.Background(), root)
	o.mu.Lock()
	o.initialized = true
	o.mu.Unlock()

	err := o.Initialize(context.Background(), root)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestBuildWorkerArgs(t *testing.T) {
	args := buildWorkerArgs([]string{"pyright-langserver", "--stdio"})
	assert.Equal(t, []string{"--lsp-command", "pyright-langserver", "--lsp-arg=--stdio"}, args)
}

func TestBuildWorkerArgs_Empty(t *testing.T) {
	assert.Nil(t, buildWorkerArgs(nil))
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
