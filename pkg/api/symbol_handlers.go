package api

import (
	"encoding/json"
	"net/http"

	"github.com/nuanced-dev/lsproxy/pkg/worker"
)

// handleFindDefinition implements POST /v1/symbol/find-definition (§6).
func (s *Server) handleFindDefinition(w http.ResponseWriter, r *http.Request) {
	var req FindDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	desc, err := s.dispatcher.WorkerForFile(req.Position.Path)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	resp, err := s.clientFor(desc).Definition(r.Context(), worker.DefinitionRequest{
		Position:          req.Position,
		IncludeSourceCode: req.IncludeSourceCode,
	})
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleFindReferences implements POST /v1/symbol/find-references (§6).
func (s *Server) handleFindReferences(w http.ResponseWriter, r *http.Request) {
	var req FindReferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	desc, err := s.dispatcher.WorkerForFile(req.IdentifierPosition.Path)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	resp, err := s.clientFor(desc).References(r.Context(), worker.ReferencesRequest{
		IdentifierPosition: req.IdentifierPosition,
		ContextLines:       req.ContextLines,
	})
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleFindReferencedSymbols implements POST /v1/symbol/find-referenced-symbols
// (§6). The categorization of referenced symbols as workspace vs. external
// is the worker's authoritative logic; the base does not duplicate it (§8).
func (s *Server) handleFindReferencedSymbols(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePath string `json:"file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	desc, err := s.dispatcher.WorkerForFile(req.FilePath)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	resp, err := s.clientFor(desc).FindReferencedSymbols(r.Context(), worker.FindReferencedSymbolsRequest{
		Path: req.FilePath,
	})
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleFindIdentifier implements POST /v1/symbol/find-identifier (§6).
func (s *Server) handleFindIdentifier(w http.ResponseWriter, r *http.Request) {
	var req FindIdentifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	desc, err := s.dispatcher.WorkerForFile(req.Position.Path)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	resp, err := s.clientFor(desc).FindIdentifier(r.Context(), worker.FindIdentifierRequest{
		Position: req.Position,
	})
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDefinitionsInFile implements GET /v1/symbol/definitions-in-file?file_path=… (§6).
func (s *Server) handleDefinitionsInFile(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("file_path")
	if filePath == "" {
		writeProblem(w, http.StatusBadRequest, "BadRequest", "file_path is required")
		return
	}

	desc, err := s.dispatcher.WorkerForFile(filePath)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	resp, err := s.clientFor(desc).Symbols(r.Context(), worker.SymbolsRequest{Path: filePath})
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
