package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nuanced-dev/lsproxy/pkg/container"
	"github.com/nuanced-dev/lsproxy/pkg/workspace"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Orchestrator detects languages present in a workspace, spawns one
// worker container per language concurrently, health-checks each, and
// owns their teardown. It is the only component that mutates
// WorkerRegistry or calls the Container Runtime Adapter.
type Orchestrator struct {
	config   *Config
	runtime  container.Runtime
	registry *WorkerRegistry

	languages *workspace.Registry
	detector  *workspace.VersionDetector
	resolver  *workspace.ImageResolver

	log *logrus.Logger

	mu            sync.Mutex
	initialized   bool
	workspacePath string
	httpClient    *http.Client
}

// New constructs an Orchestrator. runtime must already be connected to a
// reachable container engine (§7 EngineUnavailable is fatal at init and
// is surfaced by the runtime constructor, not here).
func New(cfg *Config, runtime container.Runtime, languages *workspace.Registry, log *logrus.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logrus.New()
	}

	resolver, _ := workspace.NewImageResolver(languages, 0)

	return &Orchestrator{
		config:    cfg,
		runtime:   runtime,
		registry:  NewWorkerRegistry(),
		languages: languages,
		detector:  workspace.NewVersionDetector(log),
		resolver:  resolver,
		log:       log,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Registry exposes the WorkerRegistry for read-only consultation by HTTP
// handlers (e.g. /system/health).
func (o *Orchestrator) Registry() *WorkerRegistry {
	return o.registry
}

// Initialize detects languages present under workspacePath, runs the
// Version Detector, and spawns one worker per detected language
// concurrently. It returns only after every worker reports Healthy, or
// rolls back every already-Healthy worker and returns an aggregate error
// if any sibling failed (§4.D, §7 all-or-nothing).
func (o *Orchestrator) Initialize(ctx context.Context, workspacePath string) error {
	o.mu.Lock()
	if o.initialized {
		o.mu.Unlock()
		return ErrAlreadyInitialized
	}
	o.workspacePath = workspacePath
	o.mu.Unlock()

	detected, err := o.languages.Detect(workspacePath)
	if err != nil {
		return err
	}
	if len(detected) == 0 {
		return ErrNoLanguagesDetected
	}

	versions, err := o.detector.Detect(workspacePath)
	if err != nil {
		return err
	}

	meta, err := workspace.ReadProjectMetadata(workspacePath)
	if err != nil {
		return err
	}

	if _, err := o.runtime.CreateNetwork(ctx, o.config.NetworkName); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	hostPath := o.config.HostWorkspacePath
	if hostPath == "" {
		hostPath = workspacePath
	}

	g, gctx := errgroup.WithContext(ctx)
	spawned := make([]workspace.Language, 0, len(detected))
	var spawnErrs []error
	var spawnedMu sync.Mutex

	for lang := range detected {
		lang := lang
		g.Go(func() error {
			if err := o.spawnWorker(gctx, lang, versions[lang], meta, hostPath); err != nil {
				err = fmt.Errorf("language %s: %w", lang, err)
				spawnedMu.Lock()
				spawnErrs = append(spawnErrs, err)
				spawnedMu.Unlock()
				return err
			}
			spawnedMu.Lock()
			spawned = append(spawned, lang)
			spawnedMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		err = errors.Join(spawnErrs...)
		o.log.WithError(err).Error("initialize failed, rolling back already-started workers")
		o.rollback(context.Background(), spawned)
		// Entries left are Failed workers whose containers spawnWorker
		// already removed; retire them too.
		for _, desc := range o.registry.All() {
			lang := workspace.Language(desc.Language)
			o.registry.Transition(lang, WorkerStateGone, desc.LastError)
			o.registry.Delete(lang)
		}
		o.runtime.RemoveNetwork(context.Background(), o.config.NetworkName)
		return err
	}

	o.mu.Lock()
	o.initialized = true
	o.mu.Unlock()

	return nil
}

// spawnWorker implements the per-language spawn algorithm (§4.D steps 1-7).
func (o *Orchestrator) spawnWorker(ctx context.Context, lang workspace.Language, version string, meta *workspace.ProjectMetadata, hostPath string) error {
	spec, err := o.languages.Get(lang)
	if err != nil {
		return err
	}

	// 1. Mark registry entry Spawning.
	attemptID := uuid.NewString()
	desc := &WorkerDescriptor{
		Language:  string(lang),
		SpawnedAt: time.Now(),
		State:     WorkerStateSpawning,
	}
	o.registry.Set(lang, desc)
	o.log.WithField("language", lang).WithField("spawn_attempt_id", attemptID).Info("spawning worker")

	// 2. Resolve image via §4.B.
	imageRef, err := o.resolver.Resolve(lang, version, meta)
	if err != nil {
		o.registry.Transition(lang, WorkerStateFailed, err.Error())
		return fmt.Errorf("%w: %v", ErrImageMissing, err)
	}
	desc.ImageRef = imageRef

	if err := o.runtime.PullIfMissing(ctx, imageRef); err != nil {
		o.registry.Transition(lang, WorkerStateFailed, err.Error())
		return fmt.Errorf("%w: %v", ErrImageMissing, err)
	}

	// 3. Create container.
	cmdArgs := buildWorkerArgs(spec.LSPCommand)
	env := map[string]string{
		"WORKSPACE_PATH": "/mnt/workspace",
		"LOG_LEVEL":      o.config.LogLevel,
		"PORT":           strconv.Itoa(o.config.WorkerPort),
	}

	containerID, err := o.runtime.CreateContainer(ctx, container.ContainerSpec{
		Image:        imageRef,
		CmdArgs:      cmdArgs,
		Env:          env,
		Binds:        []string{hostPath + ":/mnt/workspace:rw"},
		Network:      o.config.NetworkName,
		ExposedPorts: []int{o.config.WorkerPort},
	})
	if err != nil {
		o.registry.Transition(lang, WorkerStateFailed, err.Error())
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	desc.ContainerID = containerID

	// 4. Start container.
	if err := o.runtime.StartContainer(ctx, containerID); err != nil {
		o.registry.Transition(lang, WorkerStateFailed, err.Error())
		o.runtime.RemoveContainer(ctx, containerID, true)
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	// 5. Compute endpoint from inspect.
	inspect, err := o.runtime.InspectContainer(ctx, containerID)
	if err != nil {
		o.registry.Transition(lang, WorkerStateFailed, err.Error())
		o.runtime.RemoveContainer(ctx, containerID, true)
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	ip := inspect.NetworkEndpoints[o.config.NetworkName]
	desc.NetworkAliasOrIP = ip
	desc.Port = o.config.WorkerPort
	desc.EndpointURL = fmt.Sprintf("http://%s:%d", ip, o.config.WorkerPort)

	// 6. Health loop.
	if err := o.waitHealthy(ctx, desc.EndpointURL); err != nil {
		logs, _ := o.runtime.ContainerLogs(ctx, containerID, 4096)
		lastErr := fmt.Sprintf("%v: %s", err, logs)
		o.registry.Transition(lang, WorkerStateFailed, lastErr)
		// 7. On Failed: stop and remove the container before returning.
		o.runtime.StopContainer(ctx, containerID, int(o.config.StopTimeout.Seconds()))
		o.runtime.RemoveContainer(ctx, containerID, true)
		return fmt.Errorf("%w: %s", ErrHealthTimeout, lastErr)
	}

	o.registry.Transition(lang, WorkerStateHealthy, "")
	o.log.WithField("language", lang).WithField("spawn_attempt_id", attemptID).Info("worker healthy")
	return nil
}

// waitHealthy polls GET /health with exponential backoff (initial 100ms,
// factor 1.5, cap 2s, total deadline 30s) until the first 200 response
// whose JSON body has status == "ok".
func (o *Orchestrator) waitHealthy(ctx context.Context, endpoint string) error {
	deadline := time.Now().Add(o.config.HealthDeadline)
	backoff := o.config.HealthInitialBackoff

	for {
		if ok := o.probeHealth(ctx, endpoint); ok {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("worker did not become healthy within %s", o.config.HealthDeadline)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * o.config.HealthBackoffFactor)
		if backoff > o.config.HealthMaxBackoff {
			backoff = o.config.HealthMaxBackoff
		}
	}
}

func (o *Orchestrator) probeHealth(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Status == "ok"
}

// rollback tears down every worker listed in langs, in any order; used
// when a sibling failed during Initialize (all-or-nothing).
func (o *Orchestrator) rollback(ctx context.Context, langs []workspace.Language) {
	for _, lang := range langs {
		desc, ok := o.registry.Get(lang)
		if !ok {
			continue
		}
		o.stopWorker(ctx, desc)
		o.registry.Delete(lang)
	}
}

// WorkerForFile returns the registered worker whose language claims
// path's extension.
func (o *Orchestrator) WorkerForFile(path string) (*WorkerDescriptor, error) {
	ext := extOf(path)
	lang, ok := o.languages.LanguageForExtension(ext)
	if !ok {
		return nil, ErrWorkerNotFound
	}
	return o.WorkerForLanguage(lang)
}

// WorkerForLanguage returns the registered worker for a language.
func (o *Orchestrator) WorkerForLanguage(lang workspace.Language) (*WorkerDescriptor, error) {
	desc, ok := o.registry.Get(lang)
	if !ok {
		return nil, ErrWorkerNotFound
	}
	return desc, nil
}

// AllWorkers returns every registered worker descriptor.
func (o *Orchestrator) AllWorkers() []*WorkerDescriptor {
	return o.registry.All()
}

// Shutdown stops and removes every container, removes the shared
// network, and clears the registry. Idempotent; safe to call from
// process-termination paths.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	for _, desc := range o.registry.All() {
		o.stopWorker(ctx, desc)
		o.registry.Delete(workspace.Language(desc.Language))
	}

	if err := o.runtime.RemoveNetwork(ctx, o.config.NetworkName); err != nil {
		o.log.WithError(err).Warn("failed to remove orchestrator network during shutdown")
	}

	if err := o.detector.Close(); err != nil {
		o.log.WithError(err).Warn("failed to close version detector watcher")
	}

	o.mu.Lock()
	o.initialized = false
	o.mu.Unlock()

	return nil
}

// stopWorker implements the per-entry shutdown sequence: mark Stopping,
// graceful stop with timeout, remove (force), mark Gone.
func (o *Orchestrator) stopWorker(ctx context.Context, desc *WorkerDescriptor) {
	if desc.State == WorkerStateGone {
		return
	}

	lang := workspace.Language(desc.Language)
	o.registry.Transition(lang, WorkerStateStopping, desc.LastError)
	if desc.ContainerID != "" {
		if err := o.runtime.StopContainer(ctx, desc.ContainerID, int(o.config.StopTimeout.Seconds())); err != nil {
			o.log.WithError(err).WithField("container_id", desc.ContainerID).Warn("graceful stop failed")
		}
		if err := o.runtime.RemoveContainer(ctx, desc.ContainerID, true); err != nil {
			o.log.WithError(err).WithField("container_id", desc.ContainerID).Warn("remove failed")
		}
	}
	o.registry.Transition(lang, WorkerStateGone, desc.LastError)
}

// buildWorkerArgs turns an LSP command argv into the worker image's CMD
// flags: --lsp-command <srv> [--lsp-arg=X]*.
func buildWorkerArgs(lspCommand []string) []string {
	if len(lspCommand) == 0 {
		return nil
	}

	args := []string{"--lsp-command", lspCommand[0]}
	for _, a := range lspCommand[1:] {
		args = append(args, "--lsp-arg="+a)
	}
	return args
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
