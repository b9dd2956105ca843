package workerclient

import (
	"errors"
	"fmt"
)

// ErrTransport is the sentinel wrapped by TransportError (§7 kind 6):
// network-level failure between base and worker, distinct from a worker
// returning a non-2xx response.
var ErrTransport = errors.New("worker transport error")

// TransportError wraps a network-level failure talking to a worker. The
// caller has already retried once with a 200ms backoff before this is
// returned (§7: "Retried at most once with 200 ms backoff, then surfaced").
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error {
	return ErrTransport
}

// WorkerError carries a non-2xx worker response (§7: "non-2xx to
// WorkerError carrying status + body").
type WorkerError struct {
	Status int
	Body   string
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker returned status %d: %s", e.Status, e.Body)
}
