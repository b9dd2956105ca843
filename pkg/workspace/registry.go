package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Registry holds the static, in-process table of supported languages.
// Mutation only happens at startup (Register); after that it is read-only,
// mirroring the teacher's languages.Registry shape.
type Registry struct {
	mu        sync.RWMutex
	languages map[Language]*LanguageSpec
	byExt     map[string]Language
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		languages: make(map[Language]*LanguageSpec),
		byExt:     make(map[string]Language),
	}
}

// NewDefaultRegistry returns a registry seeded with DefaultLanguages.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, spec := range DefaultLanguages() {
		// Sibling languages (ruby-sorbet) are registered but do not claim
		// extensions away from their parent; the dispatcher only ever
		// routes by the first registration of an extension.
		_ = r.Register(spec)
	}
	return r
}

// Register adds a language to the registry.
func (r *Registry) Register(spec *LanguageSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.languages[spec.ID]; exists {
		return ErrLanguageAlreadyExists
	}
	r.languages[spec.ID] = spec

	for _, ext := range spec.Extensions {
		if _, claimed := r.byExt[ext]; !claimed {
			r.byExt[ext] = spec.ID
		}
	}

	return nil
}

// Get retrieves a language spec by ID.
func (r *Registry) Get(id Language) (*LanguageSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.languages[id]
	if !exists {
		return nil, ErrLanguageNotFound
	}
	return spec, nil
}

// List returns every registered language spec.
func (r *Registry) List() []*LanguageSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*LanguageSpec, 0, len(r.languages))
	for _, spec := range r.languages {
		specs = append(specs, spec)
	}
	return specs
}

// LanguageForExtension returns the language registered for a file
// extension (including the leading dot), or "" if none claims it.
func (r *Registry) LanguageForExtension(ext string) (Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.byExt[ext]
	return lang, ok
}

// Detect scans a workspace root for file extensions and returns the set of
// languages present. Per spec.md §4.D, nothing is excluded by .gitignore —
// the system lists everything under root.
func (r *Registry) Detect(root string) (map[Language]bool, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, ErrWorkspaceNotFound
	}

	found := make(map[Language]bool)
	sorbet := false

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // fail soft per file, keep walking
		}
		if info.IsDir() {
			if info.Name() == "sorbet" {
				sorbet = true
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if lang, ok := r.LanguageForExtension(ext); ok {
			found[lang] = true
		}

		if ext == ".rb" && !sorbet {
			if hasSorbetHint(path) {
				sorbet = true
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if sorbet && found[LanguageRuby] {
		found[LanguageRubySorbet] = true
	}

	return found, nil
}

// hasSorbetHint checks a single .rb file for a "# typed:" sigil, failing
// soft (false) on any read error so one unreadable file never aborts
// detection for the rest of the workspace.
func hasSorbetHint(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "# typed:")
}
