package worker

import "github.com/nuanced-dev/lsproxy/pkg/lspmux"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// FilePosition names a line/character offset inside a workspace-relative file.
type FilePosition struct {
	Path     string        `json:"path"`
	Position lspmux.Position `json:"position"`
}

// DefinitionRequest is the body of POST /definition.
type DefinitionRequest struct {
	Position         FilePosition `json:"position"`
	IncludeSourceCode bool        `json:"include_source_code,omitempty"`
}

// DefinitionResponse is the result of POST /definition.
type DefinitionResponse struct {
	Definitions       []FilePosition `json:"definitions"`
	SelectedIdentifier string        `json:"selected_identifier"`
	SourceCode        string         `json:"source_code,omitempty"`
}

// ReferencesRequest is the body of POST /references.
type ReferencesRequest struct {
	IdentifierPosition FilePosition `json:"identifier_position"`
	ContextLines       int          `json:"context_lines,omitempty"`
}

// ReferenceHit is one entry of a /references result.
type ReferenceHit struct {
	Path     string          `json:"path"`
	Position lspmux.Position `json:"position"`
	Context  string          `json:"context,omitempty"`
}

// ReferencesResponse is the result of POST /references.
type ReferencesResponse struct {
	References         []ReferenceHit `json:"references"`
	SelectedIdentifier string         `json:"selected_identifier"`
}

// SymbolsRequest is the body of POST /symbols.
type SymbolsRequest struct {
	Path string `json:"path"`
}

// Symbol is one entry of a /symbols result.
type Symbol struct {
	Name     string          `json:"name"`
	Kind     int             `json:"kind"`
	Path     string          `json:"path"`
	Position lspmux.Position `json:"position"`
}

// SymbolsResponse is the result of POST /symbols.
type SymbolsResponse struct {
	Symbols []Symbol `json:"symbols"`
}

// FindIdentifierRequest is the body of POST /find-identifier.
type FindIdentifierRequest struct {
	Position FilePosition `json:"position"`
}

// FindIdentifierResponse is the result of POST /find-identifier.
type FindIdentifierResponse struct {
	Identifier string          `json:"identifier"`
	Range      lspmux.Range    `json:"range"`
}

// FindReferencedSymbolsRequest is the body of POST /find-referenced-symbols.
type FindReferencedSymbolsRequest struct {
	Path string `json:"path"`
}

// ReferencedSymbol categorizes a symbol referenced from a file as either
// defined inside the workspace or external to it. The exact categorization
// algorithm is worker-local and not duplicated by the base process (§8).
type ReferencedSymbol struct {
	Name       string `json:"name"`
	Path       string `json:"path,omitempty"`
	ExternalOf string `json:"external_of,omitempty"`
	Workspace  bool   `json:"workspace"`
}

// FindReferencedSymbolsResponse is the result of POST /find-referenced-symbols.
type FindReferencedSymbolsResponse struct {
	Symbols []ReferencedSymbol `json:"symbols"`
}

// ErrorKind names an entry of the §7 error taxonomy surfaced to HTTP callers.
type ErrorKind string

const (
	ErrorKindChildNotReady ErrorKind = "ChildNotReady"
	ErrorKindChildGone     ErrorKind = "ChildGone"
	ErrorKindTimedOut      ErrorKind = "TimedOut"
	ErrorKindBadRequest    ErrorKind = "BadRequest"
	ErrorKindLspError      ErrorKind = "LspError"
	ErrorKindInternal      ErrorKind = "Internal"
)

// ProblemDetail is the worker's uniform error response shape (§7):
// "HTTP responses carry a problem-detail object: {error: {kind, message, details?}}."
type ProblemDetail struct {
	Error ProblemDetailBody `json:"error"`
}

// ProblemDetailBody is the inner payload of ProblemDetail.
type ProblemDetailBody struct {
	Kind    ErrorKind         `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}
