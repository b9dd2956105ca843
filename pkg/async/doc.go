// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery, timeout
// enforcement, and context cancellation.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, 30*time.Second, "task name", func(ctx context.Context) error {
//		// Task code with automatic panic recovery and timeout
//		return processData(ctx)
//	})
//
// SafeGoNoError: same as SafeGo for functions that don't return an error.
//
// # Features
//
// Panic Recovery: Captures panics with stack traces
// Timeout Enforcement: Per-task timeouts (nominal for tasks that block on
// something other than ctx, e.g. a channel read)
// Context Cancellation: Respects context cancellation
//
// # Use Cases
//
// Long-lived background watchers, batch imports, cache warming
//
// # Related Packages
//
//   - pkg/lspmux: Uses SafeGoNoError to watch a language server's jsonrpc2
//     connection for disconnect without risking the worker process on panic
package async
