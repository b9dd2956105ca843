package api

import "github.com/nuanced-dev/lsproxy/pkg/worker"

// FindDefinitionRequest is the body of POST /v1/symbol/find-definition (§6).
type FindDefinitionRequest struct {
	Position          worker.FilePosition `json:"position"`
	IncludeSourceCode bool                `json:"include_source_code,omitempty"`
}

// FindDefinitionResponse is the result of POST /v1/symbol/find-definition.
type FindDefinitionResponse = worker.DefinitionResponse

// FindReferencesRequest is the body of POST /v1/symbol/find-references.
type FindReferencesRequest struct {
	IdentifierPosition worker.FilePosition `json:"identifier_position"`
	ContextLines       int                 `json:"context_lines,omitempty"`
}

// FindReferencesResponse is the result of POST /v1/symbol/find-references.
type FindReferencesResponse = worker.ReferencesResponse

// FindReferencedSymbolsResponse is the result of POST /v1/symbol/find-referenced-symbols.
type FindReferencedSymbolsResponse = worker.FindReferencedSymbolsResponse

// FindIdentifierRequest is the body of POST /v1/symbol/find-identifier.
type FindIdentifierRequest struct {
	Position worker.FilePosition `json:"position"`
}

// FindIdentifierResponse is the result of POST /v1/symbol/find-identifier.
type FindIdentifierResponse = worker.FindIdentifierResponse

// DefinitionsInFileResponse is the result of GET /v1/symbol/definitions-in-file.
type DefinitionsInFileResponse = worker.SymbolsResponse

// SystemHealthResponse is the result of GET /v1/system/health (§6):
// "{status, version, languages: {lang: bool}}".
type SystemHealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Languages map[string]bool `json:"languages"`
}

// ProblemDetail mirrors the worker's uniform error shape (§7) for the base
// API's own errors (e.g. NoWorkerForLanguage, BadRequest).
type ProblemDetail struct {
	Error ProblemDetailBody `json:"error"`
}

// ProblemDetailBody is the inner payload of ProblemDetail.
type ProblemDetailBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}
