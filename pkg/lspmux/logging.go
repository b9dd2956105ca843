package lspmux

import (
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/jsonrpc2"
)

// traceLogger adapts a logrus.Logger to jsonrpc2's small Logger interface
// so raw JSON-RPC traffic can be logged at debug level without a second
// logging library.
type traceLogger struct {
	log *logrus.Logger
}

func (t traceLogger) Printf(format string, v ...interface{}) {
	t.log.Debugf(format, v...)
}

// withTrace returns a jsonrpc2.ConnOpt that logs every message on conn
// when the logger's level is Debug or more verbose.
func withTrace(log *logrus.Logger) jsonrpc2.ConnOpt {
	return jsonrpc2.LogMessages(traceLogger{log: log})
}
