package orchestrator

import "errors"

var (
	// ErrEngineUnavailable means the container engine socket is missing
	// or refused connection. Fatal at init.
	ErrEngineUnavailable = errors.New("container engine unavailable")

	// ErrImageMissing means the resolved tag is not locally present and
	// pull failed. Per-worker fatal; aborts init (all-or-nothing).
	ErrImageMissing = errors.New("image missing and pull failed")

	// ErrSpawnFailed means container create or start was rejected.
	// Per-worker fatal.
	ErrSpawnFailed = errors.New("worker spawn failed")

	// ErrHealthTimeout means a worker never reached Healthy within its
	// deadline. Per-worker fatal; container logs are captured.
	ErrHealthTimeout = errors.New("worker health timeout")

	// ErrNoLanguagesDetected means no supported language was found under
	// the workspace root.
	ErrNoLanguagesDetected = errors.New("no languages detected in workspace")

	// ErrWorkerNotFound is returned by WorkerForFile/WorkerForLanguage
	// when no registry entry exists for the language.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrAlreadyInitialized guards against a double initialize call.
	ErrAlreadyInitialized = errors.New("orchestrator already initialized")

	// ErrNotInitialized is returned by operations that require a prior
	// successful initialize.
	ErrNotInitialized = errors.New("orchestrator not initialized")
)
