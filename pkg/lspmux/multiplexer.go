package lspmux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/nuanced-dev/lsproxy/pkg/async"
)

// State is the worker's LSP child state machine (§4.F):
//   Uninitialized --start--> Starting --initialize ok--> Ready --child exit--> Dead
//                                  \--initialize err--> Dead
type State string

const (
	StateUninitialized State = "uninitialized"
	StateStarting       State = "starting"
	StateReady          State = "ready"
	StateDead           State = "dead"
)

// DefaultRequestTimeout is the per-request LSP deadline (§5).
const DefaultRequestTimeout = 30 * time.Second

// Subscriber receives every server-to-client notification the child sends
// (e.g. window/logMessage, textDocument/publishDiagnostics).
type Subscriber func(method string, params interface{})

// Multiplexer owns one LSP child process and lets many concurrent callers
// share its single pair of stdio pipes. The underlying demultiplexing by
// JSON-RPC id, the stdin write serialization, and the framed stdout
// reader are delegated to jsonrpc2.Conn, which implements exactly the
// writer/reader-task split and in-flight id table this component is
// responsible for; this type adds the worker-specific lifecycle (child
// process ownership, the initialize handshake, ChildGone propagation,
// and the notification subscriber list) on top of it.
type Multiplexer struct {
	argv []string
	log  *logrus.Logger

	mu    sync.RWMutex
	state State

	cmd  *exec.Cmd
	conn *jsonrpc2.Conn

	subsMu sync.Mutex
	subs   []Subscriber

	requestTimeout time.Duration
	nextID         uint64
}

// New constructs a multiplexer for the given LSP server argv (e.g.
// ["pyright-langserver", "--stdio"]). The child is not started until
// Start is called.
func New(argv []string, log *logrus.Logger) *Multiplexer {
	if log == nil {
		log = logrus.New()
	}
	return &Multiplexer{
		argv:           argv,
		log:            log,
		state:          StateUninitialized,
		requestTimeout: DefaultRequestTimeout,
	}
}

// State returns the current lifecycle state.
func (m *Multiplexer) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Multiplexer) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Subscribe registers a callback invoked for every server notification.
func (m *Multiplexer) Subscribe(sub Subscriber) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, sub)
}

// Start launches the LSP child, wires a jsonrpc2 connection over its
// stdio pipes, and performs the initialize/initialized handshake using
// workspacePath as rootUri.
func (m *Multiplexer) Start(ctx context.Context, workspacePath string) error {
	if m.State() != StateUninitialized {
		return ErrAlreadyStarted
	}
	m.setState(StateStarting)

	if len(m.argv) == 0 {
		m.setState(StateDead)
		return fmt.Errorf("%w: empty lsp command", ErrInitializeFailed)
	}

	cmd := exec.CommandContext(ctx, m.argv[0], m.argv[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		m.setState(StateDead)
		return fmt.Errorf("%w: %v", ErrInitializeFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.setState(StateDead)
		return fmt.Errorf("%w: %v", ErrInitializeFailed, err)
	}

	if err := cmd.Start(); err != nil {
		m.setState(StateDead)
		return fmt.Errorf("%w: %v", ErrInitializeFailed, err)
	}
	m.cmd = cmd

	var connOpts []jsonrpc2.ConnOpt
	if m.log.IsLevelEnabled(logrus.DebugLevel) {
		connOpts = append(connOpts, withTrace(m.log))
	}

	stream := jsonrpc2.NewBufferedStream(rwCloser{stdout, stdin}, jsonrpc2.VSCodeObjectCodec{})
	m.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(m.handleServerMessage)), connOpts...)

	// Watches the connection for the life of the child process; timeout is
	// nominal since the task blocks on DisconnectNotify rather than ctx.
	async.SafeGoNoError(context.Background(), 24*time.Hour, "lspmux disconnect watcher", func(context.Context) {
		<-m.conn.DisconnectNotify()
		m.setState(StateDead)
	})

	initCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	var result InitializeResult
	err = m.conn.Call(initCtx, "initialize", InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   "file://" + workspacePath,
	}, &result)
	if err != nil {
		m.setState(StateDead)
		return fmt.Errorf("%w: %v", ErrInitializeFailed, err)
	}

	if err := m.conn.Notify(ctx, "initialized", struct{}{}); err != nil {
		m.setState(StateDead)
		return fmt.Errorf("%w: %v", ErrInitializeFailed, err)
	}

	m.setState(StateReady)
	return nil
}

// handleServerMessage routes unsolicited server->client notifications to
// subscribers. jsonrpc2.Conn already handles response demultiplexing for
// our own outbound Call()s internally, so only notifications (and any
// server-initiated requests, which this system's LSP servers never send)
// reach this handler.
func (m *Multiplexer) handleServerMessage(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	if !req.Notif {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "worker does not accept server-initiated requests"}
	}

	var params interface{}
	if req.Params != nil {
		json.Unmarshal(*req.Params, &params)
	}

	m.subsMu.Lock()
	subs := append([]Subscriber(nil), m.subs...)
	m.subsMu.Unlock()

	for _, sub := range subs {
		sub(req.Method, params)
	}
	return nil, nil
}

// Request sends a JSON-RPC request and blocks until the matching response
// arrives, the request's deadline elapses, or the child dies.
func (m *Multiplexer) Request(ctx context.Context, method string, params interface{}, result interface{}) error {
	if m.State() != StateReady {
		if m.State() == StateDead {
			return ErrChildGone
		}
		return ErrChildNotReady
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	id := jsonrpc2.ID{Num: atomic.AddUint64(&m.nextID, 1)}

	done := make(chan error, 1)
	go func() {
		done <- m.conn.Call(reqCtx, method, params, result, jsonrpc2.PickID(id))
	}()

	select {
	case err := <-done:
		return m.classifyCallErr(reqCtx, err)
	case <-ctx.Done():
		// Caller went away (e.g. HTTP client disconnected) before the
		// language server answered; ask it to stop the work, best-effort,
		// then keep waiting for the real Call to unwind so reqCtx's
		// timeout still bounds the goroutine above.
		m.conn.Notify(context.Background(), "$/cancelRequest", cancelParams{ID: id.Num})
		<-done
		return ctx.Err()
	}
}

// cancelParams is the $/cancelRequest notification payload (LSP base
// protocol); only numeric ids are used since every id this multiplexer
// assigns comes from its own nextID counter.
type cancelParams struct {
	ID uint64 `json:"id"`
}

func (m *Multiplexer) classifyCallErr(reqCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if m.State() == StateDead {
		return ErrChildGone
	}
	if reqCtx.Err() == context.DeadlineExceeded {
		return ErrTimedOut
	}
	return err
}

// Notify sends a fire-and-forget JSON-RPC notification.
func (m *Multiplexer) Notify(ctx context.Context, method string, params interface{}) error {
	if m.State() != StateReady {
		if m.State() == StateDead {
			return ErrChildGone
		}
		return ErrChildNotReady
	}
	return m.conn.Notify(ctx, method, params)
}

// Close shuts down the JSON-RPC connection and waits for the child to exit.
func (m *Multiplexer) Close() error {
	if m.conn != nil {
		m.conn.Close()
	}
	if m.cmd != nil && m.cmd.Process != nil {
		m.cmd.Process.Kill()
		m.cmd.Wait()
	}
	m.setState(StateDead)
	return nil
}

// rwCloser combines a child process's stdout reader and stdin writer
// into the single io.ReadWriteCloser jsonrpc2.NewBufferedStream expects.
type rwCloser struct {
	io.ReadCloser
	io.WriteCloser
}

func (rw rwCloser) Close() error {
	werr := rw.WriteCloser.Close()
	rerr := rw.ReadCloser.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
