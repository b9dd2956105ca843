package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/nuanced-dev/lsproxy/pkg/lspmux"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.mux.State() == lspmux.StateReady {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not_ready"})
}

// rpcEnvelope is the opaque shape accepted and returned by POST /lsp: a raw
// JSON-RPC 2.0 message forwarded to the LSP child verbatim (§4.E).
type rpcEnvelope struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     json.RawMessage `json:"id,omitempty"`
}

func (s *Server) handleLSPPassthrough(w http.ResponseWriter, r *http.Request) {
	var env rpcEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeProblem(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	if len(env.ID) == 0 {
		if err := s.mux.Notify(r.Context(), env.Method, env.Params); err != nil {
			writeProblem(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
		return
	}

	var result json.RawMessage
	if err := s.mux.Request(r.Context(), env.Method, env.Params, &result); err != nil {
		writeProblem(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"result": result})
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	var req DefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	uri, err := s.toURI(req.Position.Path)
	if err != nil {
		writeProblem(w, err)
		return
	}

	params := lspmux.TextDocumentPositionParams{
		TextDocument: lspmux.TextDocumentIdentifier{URI: uri},
		Position:     req.Position.Position,
	}

	var raw json.RawMessage
	if err := s.mux.Request(r.Context(), "textDocument/definition", params, &raw); err != nil {
		writeProblem(w, err)
		return
	}

	locations := decodeLocations(raw)
	resp := DefinitionResponse{Definitions: make([]FilePosition, 0, len(locations))}
	for _, loc := range locations {
		resp.Definitions = append(resp.Definitions, FilePosition{
			Path:     s.fromURI(loc.URI),
			Position: loc.Range.Start,
		})
	}

	resp.SelectedIdentifier = s.identifierAt(req.Position.Path, req.Position.Position)
	if req.IncludeSourceCode && len(resp.Definitions) > 0 {
		resp.SourceCode = s.readLine(resp.Definitions[0].Path, resp.Definitions[0].Position.Line)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	var req ReferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	uri, err := s.toURI(req.IdentifierPosition.Path)
	if err != nil {
		writeProblem(w, err)
		return
	}

	params := lspmux.ReferenceParams{
		TextDocumentPositionParams: lspmux.TextDocumentPositionParams{
			TextDocument: lspmux.TextDocumentIdentifier{URI: uri},
			Position:     req.IdentifierPosition.Position,
		},
		Context: lspmux.ReferenceContext{IncludeDeclaration: true},
	}

	var locations []lspmux.Location
	if err := s.mux.Request(r.Context(), "textDocument/references", params, &locations); err != nil {
		writeProblem(w, err)
		return
	}

	resp := ReferencesResponse{
		SelectedIdentifier: s.identifierAt(req.IdentifierPosition.Path, req.IdentifierPosition.Position),
		References:         make([]ReferenceHit, 0, len(locations)),
	}
	for _, loc := range locations {
		path := s.fromURI(loc.URI)
		hit := ReferenceHit{Path: path, Position: loc.Range.Start}
		if req.ContextLines > 0 {
			hit.Context = s.readContext(path, loc.Range.Start.Line, req.ContextLines)
		}
		resp.References = append(resp.References, hit)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	var req SymbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	uri, err := s.toURI(req.Path)
	if err != nil {
		writeProblem(w, err)
		return
	}

	var symbols []lspmux.SymbolInformation
	params := struct {
		TextDocument lspmux.TextDocumentIdentifier `json:"textDocument"`
	}{TextDocument: lspmux.TextDocumentIdentifier{URI: uri}}
	if err := s.mux.Request(r.Context(), "textDocument/documentSymbol", params, &symbols); err != nil {
		writeProblem(w, err)
		return
	}

	resp := SymbolsResponse{Symbols: make([]Symbol, 0, len(symbols))}
	for _, sym := range symbols {
		resp.Symbols = append(resp.Symbols, Symbol{
			Name:     sym.Name,
			Kind:     sym.Kind,
			Path:     s.fromURI(sym.Location.URI),
			Position: sym.Location.Range.Start,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindIdentifier(w http.ResponseWriter, r *http.Request) {
	var req FindIdentifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if _, err := s.toURI(req.Position.Path); err != nil {
		writeProblem(w, err)
		return
	}

	identifier, start, end := s.identifierRangeAt(req.Position.Path, req.Position.Position)
	writeJSON(w, http.StatusOK, FindIdentifierResponse{
		Identifier: identifier,
		Range:      lspmux.Range{Start: start, End: end},
	})
}

func (s *Server) handleFindReferencedSymbols(w http.ResponseWriter, r *http.Request) {
	var req FindReferencedSymbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	uri, err := s.toURI(req.Path)
	if err != nil {
		writeProblem(w, err)
		return
	}

	var symbols []lspmux.SymbolInformation
	params := struct {
		TextDocument lspmux.TextDocumentIdentifier `json:"textDocument"`
	}{TextDocument: lspmux.TextDocumentIdentifier{URI: uri}}
	if err := s.mux.Request(r.Context(), "textDocument/documentSymbol", params, &symbols); err != nil {
		writeProblem(w, err)
		return
	}

	resp := FindReferencedSymbolsResponse{Symbols: make([]ReferencedSymbol, 0, len(symbols))}
	for _, sym := range symbols {
		path := sym.Location.URI
		inWorkspace := strings.HasPrefix(path, "file://"+s.workspacePath)
		rs := ReferencedSymbol{Name: sym.Name, Workspace: inWorkspace}
		if inWorkspace {
			rs.Path = s.fromURI(path)
		} else {
			rs.ExternalOf = filepath.Dir(strings.TrimPrefix(path, "file://"))
		}
		resp.Symbols = append(resp.Symbols, rs)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	s.diagMu.RLock()
	out := make(map[string]interface{}, len(s.diagnostics))
	for k, v := range s.diagnostics {
		out[k] = v
	}
	s.diagMu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

// --- path translation (§4.D "path translation rule" applied worker-side to
// per-request document paths instead of the container bind mount) ---

func (s *Server) toURI(relPath string) (string, error) {
	abs := filepath.Join(s.workspacePath, relPath)
	cleanRoot := filepath.Clean(s.workspacePath)
	if abs != cleanRoot && !strings.HasPrefix(abs, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathOutsideWorkspace, relPath)
	}
	return "file://" + abs, nil
}

func (s *Server) fromURI(uri string) string {
	abs := strings.TrimPrefix(uri, "file://")
	rel, err := filepath.Rel(s.workspacePath, abs)
	if err != nil {
		return abs
	}
	return rel
}

func decodeLocations(raw json.RawMessage) []lspmux.Location {
	var single lspmux.Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return []lspmux.Location{single}
	}
	var many []lspmux.Location
	json.Unmarshal(raw, &many)
	return many
}

// --- local file inspection used by find-identifier and optional
// source-code inclusion; reading the workspace filesystem directly is an
// external collaborator the core consumes, not duplicates (§3 Non-goals) ---

func (s *Server) readLine(relPath string, line int) string {
	lines := s.fileLines(relPath)
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}

func (s *Server) readContext(relPath string, line, contextLines int) string {
	lines := s.fileLines(relPath)
	if line < 0 || line >= len(lines) {
		return ""
	}
	start := line - contextLines
	if start < 0 {
		start = 0
	}
	end := line + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func (s *Server) fileLines(relPath string) []string {
	abs := filepath.Join(s.workspacePath, relPath)
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil
	}
	return strings.Split(string(content), "\n")
}

func (s *Server) identifierAt(relPath string, pos lspmux.Position) string {
	id, _, _ := s.identifierRangeAt(relPath, pos)
	return id
}

func (s *Server) identifierRangeAt(relPath string, pos lspmux.Position) (string, lspmux.Position, lspmux.Position) {
	lines := s.fileLines(relPath)
	if pos.Line < 0 || pos.Line >= len(lines) {
		return "", pos, pos
	}
	line := []rune(lines[pos.Line])
	col := pos.Character
	if col < 0 || col > len(line) {
		return "", pos, pos
	}

	isIdentChar := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
	}

	start := col
	for start > 0 && start-1 < len(line) && isIdentChar(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isIdentChar(line[end]) {
		end++
	}

	return string(line[start:end]),
		lspmux.Position{Line: pos.Line, Character: start},
		lspmux.Position{Line: pos.Line, Character: end}
}

// --- error taxonomy mapping (§7) ---

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	writeJSON(w, status, ProblemDetail{Error: ProblemDetailBody{
		Kind:    kind,
		Message: err.Error(),
	}})
}

func classify(err error) (ErrorKind, int) {
	switch {
	case errors.Is(err, lspmux.ErrChildNotReady):
		return ErrorKindChildNotReady, http.StatusServiceUnavailable
	case errors.Is(err, lspmux.ErrChildGone):
		return ErrorKindChildGone, http.StatusServiceUnavailable
	case errors.Is(err, lspmux.ErrTimedOut):
		return ErrorKindTimedOut, http.StatusGatewayTimeout
	case errors.Is(err, ErrPathOutsideWorkspace), errors.Is(err, ErrBadRequest):
		return ErrorKindBadRequest, http.StatusBadRequest
	}

	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return ErrorKindLspError, http.StatusBadGateway
	}

	return ErrorKindInternal, http.StatusInternalServerError
}
