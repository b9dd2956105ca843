package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSafeGo_Success(t *testing.T) {
	ctx := context.Background()
	executed := atomic.Bool{}

	SafeGo(ctx, 1*time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	if !executed.Load() {
		t.Error("SafeGo did not execute function")
	}
}

func TestSafeGo_WithError(t *testing.T) {
	ctx := context.Background()
	executed := atomic.Bool{}

	SafeGo(ctx, 1*time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		return errors.New("test error")
	})

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	if !executed.Load() {
		t.Error("SafeGo did not execute function despite error")
	}
	// Error should be logged but not crash
}

func TestSafeGo_Timeout(t *testing.T) {
	ctx := context.Background()
	started := atomic.Bool{}
	completed := atomic.Bool{}

	SafeGo(ctx, 50*time.Millisecond, "test task", func(ctx context.Context) error {
		started.Store(true)
		select {
		case <-time.After(200 * time.Millisecond):
			completed.Store(true)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	// Wait for timeout
	time.Sleep(150 * time.Millisecond)

	if !started.Load() {
		t.Error("Function did not start")
	}
	if completed.Load() {
		t.Error("Function should have been canceled by timeout")
	}
}

func TestSafeGo_PanicRecovery(t *testing.T) {
	ctx := context.Background()
	executed := atomic.Bool{}

	SafeGo(ctx, 1*time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		panic("test panic")
	})

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	if !executed.Load() {
		t.Error("Function did not execute before panic")
	}
	// Panic should be recovered and logged
}

func TestSafeGo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := atomic.Bool{}
	completed := atomic.Bool{}

	SafeGo(ctx, 5*time.Second, "test task", func(ctx context.Context) error {
		started.Store(true)
		select {
		case <-time.After(1 * time.Second):
			completed.Store(true)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	// Cancel context quickly
	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !started.Load() {
		t.Error("Function did not start")
	}
	if completed.Load() {
		t.Error("Function should have been canceled")
	}
}

func TestSafeGoNoError(t *testing.T) {
	ctx := context.Background()
	executed := atomic.Bool{}

	SafeGoNoError(ctx, 1*time.Second, "test task", func(ctx context.Context) {
		executed.Store(true)
	})

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	if !executed.Load() {
		t.Error("SafeGoNoError did not execute function")
	}
}

