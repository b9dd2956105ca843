package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nuanced-dev/lsproxy/pkg/dispatcher"
	"github.com/nuanced-dev/lsproxy/pkg/workerclient"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ProblemDetail{Error: ProblemDetailBody{Kind: kind, Message: message}})
}

// writeDispatchError maps a dispatcher/workerclient error to the §7
// problem-detail shape, preferring to forward the worker's own kind when a
// WorkerError body decodes into one.
func writeDispatchError(w http.ResponseWriter, err error) {
	if errors.Is(err, dispatcher.ErrNoWorkerForLanguage) {
		writeProblem(w, http.StatusNotFound, "NoWorkerForLanguage", err.Error())
		return
	}

	var workerErr *workerclient.WorkerError
	if errors.As(err, &workerErr) {
		var forwarded struct {
			Error ProblemDetailBody `json:"error"`
		}
		if json.Unmarshal([]byte(workerErr.Body), &forwarded) == nil && forwarded.Error.Kind != "" {
			writeJSON(w, workerErr.Status, ProblemDetail{Error: forwarded.Error})
			return
		}
		writeProblem(w, workerErr.Status, "WorkerError", workerErr.Error())
		return
	}

	var transportErr *workerclient.TransportError
	if errors.As(err, &transportErr) {
		writeProblem(w, http.StatusBadGateway, "TransportError", err.Error())
		return
	}

	writeProblem(w, http.StatusInternalServerError, "Internal", err.Error())
}
