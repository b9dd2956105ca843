package lspmux

// Position is a zero-based line/character offset, mirroring LSP's
// TextDocumentPositionParams.position.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a start/end pair of Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pairs a file URI with a Range inside it.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentPositionParams is the shared shape used by definition,
// references, and hover-style LSP requests.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// ReferenceContext controls whether the declaration itself is included in
// textDocument/references results.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams extends TextDocumentPositionParams for textDocument/references.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// SymbolInformation is one entry in a textDocument/documentSymbol result.
type SymbolInformation struct {
	Name     string   `json:"name"`
	Kind     int      `json:"kind"`
	Location Location `json:"location"`
}

// ClientCapabilities is sent empty-but-present; workers in this system do
// not negotiate optional LSP features beyond what every supported server
// implements by default.
type ClientCapabilities struct{}

// InitializeParams is the body of the "initialize" handshake request the
// multiplexer sends to the child on Start: the process id, the workspace
// root URI, and (empty) client capabilities.
type InitializeParams struct {
	ProcessID    int                `json:"processId"`
	RootURI      string             `json:"rootUri"`
	Capabilities ClientCapabilities `json:"capabilities"`
}

// InitializeResult is the minimal shape of the server's initialize response
// this system inspects; unrecognized fields are ignored by encoding/json.
type InitializeResult struct {
	Capabilities map[string]interface{} `json:"capabilities"`
}
