package lspmux

import "errors"

var (
	// ErrChildNotReady is returned when a request arrives before the LSP
	// child has completed its initialize handshake.
	ErrChildNotReady = errors.New("lsp child not ready")

	// ErrChildGone is returned once the child process has exited or the
	// reader hit EOF; every pending and future request fails with it
	// until a restart is requested.
	ErrChildGone = errors.New("lsp child gone")

	// ErrTimedOut is returned when a request's deadline elapses before a
	// matching response arrives.
	ErrTimedOut = errors.New("lsp request timed out")

	// ErrAlreadyStarted guards against starting the same child twice.
	ErrAlreadyStarted = errors.New("lsp child already started")

	// ErrInitializeFailed wraps a failure during the initialize handshake.
	ErrInitializeFailed = errors.New("lsp initialize failed")
)
