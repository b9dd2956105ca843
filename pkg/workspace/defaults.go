package workspace

// DefaultLanguages returns the built-in language specs the registry is
// seeded with. AvailableTags are sorted ascending major.minor.patch
// strings baked into the binary (spec.md §4.B step 1).
func DefaultLanguages() []*LanguageSpec {
	return []*LanguageSpec{
		getPythonSpec(),
		getTypeScriptSpec(),
		getJavaScriptSpec(),
		getGoSpec(),
		getRustSpec(),
		getJavaSpec(),
		getCPPSpec(),
		getCSpec(),
		getCSharpSpec(),
		getPHPSpec(),
		getRubySpec(),
		getRubySorbetSpec(),
	}
}

func getPythonSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguagePython,
		Name:            "Python",
		Extensions:      []string{".py", ".pyi"},
		LSPCommand:      []string{"pyright-langserver", "--stdio"},
		RequiresVersion: true,
		DefaultImageTag: "3.11",
		AvailableTags:   []string{"3.8", "3.9", "3.10", "3.11", "3.12"},
	}
}

func getTypeScriptSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageTypeScript,
		Name:            "TypeScript",
		Extensions:      []string{".ts", ".tsx"},
		LSPCommand:      []string{"typescript-language-server", "--stdio"},
		RequiresVersion: true,
		DefaultImageTag: "20",
		AvailableTags:   []string{"16", "18", "20", "22"},
	}
}

func getJavaScriptSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageJavaScript,
		Name:            "JavaScript",
		Extensions:      []string{".js", ".jsx", ".mjs", ".cjs"},
		LSPCommand:      []string{"typescript-language-server", "--stdio"},
		RequiresVersion: true,
		DefaultImageTag: "20",
		AvailableTags:   []string{"16", "18", "20", "22"},
	}
}

func getGoSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageGo,
		Name:            "Go",
		Extensions:      []string{".go"},
		LSPCommand:      []string{"gopls", "serve"},
		RequiresVersion: true,
		DefaultImageTag: "1.22",
		AvailableTags:   []string{"1.19", "1.20", "1.21", "1.22", "1.23"},
	}
}

func getRustSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageRust,
		Name:            "Rust",
		Extensions:      []string{".rs"},
		LSPCommand:      []string{"rust-analyzer"},
		RequiresVersion: false,
		DefaultImageTag: "stable",
	}
}

func getJavaSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageJava,
		Name:            "Java",
		Extensions:      []string{".java"},
		LSPCommand:      []string{"jdtls"},
		RequiresVersion: true,
		DefaultImageTag: "17",
		AvailableTags:   []string{"8", "11", "17", "21"},
	}
}

func getCPPSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageCPP,
		Name:            "C++",
		Extensions:      []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
		LSPCommand:      []string{"clangd"},
		RequiresVersion: false,
		DefaultImageTag: "17",
	}
}

func getCSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageC,
		Name:            "C",
		Extensions:      []string{".c", ".h"},
		LSPCommand:      []string{"clangd"},
		RequiresVersion: false,
		DefaultImageTag: "17",
	}
}

func getCSharpSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageCSharp,
		Name:            "C#",
		Extensions:      []string{".cs"},
		LSPCommand:      []string{"omnisharp", "-lsp"},
		RequiresVersion: false,
		DefaultImageTag: "8.0",
	}
}

func getPHPSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguagePHP,
		Name:            "PHP",
		Extensions:      []string{".php"},
		LSPCommand:      []string{"intelephense", "--stdio"},
		RequiresVersion: true,
		DefaultImageTag: "8.2",
		AvailableTags:   []string{"7.4", "8.0", "8.1", "8.2", "8.3"},
	}
}

func getRubySpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageRuby,
		Name:            "Ruby",
		Extensions:      []string{".rb", ".rake", ".gemspec"},
		LSPCommand:      []string{"solargraph", "stdio"},
		RequiresVersion: true,
		DefaultImageTag: "3.2",
		AvailableTags:   []string{"2.7", "3.0", "3.1", "3.2", "3.3"},
	}
}

// getRubySorbetSpec describes the sibling worker spawned alongside ruby
// when the workspace carries Sorbet typing hints (spec.md §4.D).
func getRubySorbetSpec() *LanguageSpec {
	return &LanguageSpec{
		ID:              LanguageRubySorbet,
		Name:            "Ruby (Sorbet)",
		Extensions:      []string{".rb", ".rbi"},
		LSPCommand:      []string{"srb", "tc", "--lsp"},
		RequiresVersion: true,
		SiblingOf:       LanguageRuby,
		DefaultImageTag: "3.2",
		AvailableTags:   []string{"2.7", "3.0", "3.1", "3.2", "3.3"},
	}
}
