// Package dispatcher implements the Language Dispatcher (§4.H): given a file
// path, consult the static extension -> language table and look up the
// worker in WorkerRegistry.
package dispatcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nuanced-dev/lsproxy/pkg/orchestrator"
	"github.com/nuanced-dev/lsproxy/pkg/workspace"
)

// WorkerLookup is the subset of the Orchestrator the dispatcher depends on.
// The Dispatcher holds this interface rather than a concrete
// *orchestrator.Orchestrator, so any lookup implementation can back it.
type WorkerLookup interface {
	WorkerForLanguage(lang workspace.Language) (*orchestrator.WorkerDescriptor, error)
}

// Dispatcher resolves a file path to a running worker.
type Dispatcher struct {
	lookup    WorkerLookup
	languages *workspace.Registry
}

// New constructs a Dispatcher over the given worker lookup and language table.
func New(lookup WorkerLookup, languages *workspace.Registry) *Dispatcher {
	return &Dispatcher{lookup: lookup, languages: languages}
}

// WorkerForFile resolves path's extension to a language and returns that
// language's WorkerDescriptor. It is determined solely by the extension of
// path, independent of whether the file exists (§8).
func (d *Dispatcher) WorkerForFile(path string) (*orchestrator.WorkerDescriptor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := d.languages.LanguageForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized extension %q", ErrNoWorkerForLanguage, ext)
	}

	desc, err := d.lookup.WorkerForLanguage(lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkerForLanguage, err)
	}
	return desc, nil
}
