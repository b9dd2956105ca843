package workspace

import "testing"

func TestDefaultLanguages_AllValid(t *testing.T) {
	for _, spec := range DefaultLanguages() {
		if err := spec.Validate(); err != nil {
			t.Errorf("spec %s failed validation: %v", spec.ID, err)
		}
	}
}

func TestDefaultLanguages_NoDuplicateIDs(t *testing.T) {
	seen := make(map[Language]bool)
	for _, spec := range DefaultLanguages() {
		if seen[spec.ID] {
			t.Errorf("duplicate language ID: %s", spec.ID)
		}
		seen[spec.ID] = true
	}
}

func TestLanguageSpec_ImageRef(t *testing.T) {
	spec := getPythonSpec()
	ref := spec.ImageRef("3.11")
	want := "lsproxy-python-3.11:latest"
	if ref != want {
		t.Errorf("expected %s, got %s", want, ref)
	}
}

func TestRubySorbetSpec_IsSiblingOfRuby(t *testing.T) {
	spec := getRubySorbetSpec()
	if spec.SiblingOf != LanguageRuby {
		t.Errorf("expected ruby-sorbet to be a sibling of ruby, got %s", spec.SiblingOf)
	}
}
