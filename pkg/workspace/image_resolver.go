package workspace

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

// ProjectMetadata is the optional .lsproxy.yaml a workspace root may carry
// to pin language versions independently of whatever the Version Detector
// infers from manifests (spec.md §4.B, "optionally version-pinned via
// project metadata").
type ProjectMetadata struct {
	Versions map[Language]string `yaml:"versions"`
}

// ImageResolver implements spec.md §4.B: resolve a (language, detected
// version) pair to a concrete image tag, preferring an exact match, then
// the closest available tag not exceeding the detected version, then the
// language's default tag. Resolutions are cached by (language, version)
// since the inputs are immutable for the lifetime of a worker.
type ImageResolver struct {
	registry *Registry
	cache    *lru.Cache[string, string]
}

// NewImageResolver builds a resolver backed by registry. cacheSize bounds
// the LRU cache of resolved tags; 256 is generous for the closed language
// set this system supports.
func NewImageResolver(registry *Registry, cacheSize int) (*ImageResolver, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	c, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &ImageResolver{registry: registry, cache: c}, nil
}

// ReadProjectMetadata loads .lsproxy.yaml from a workspace root, if present.
// A missing file is not an error: it returns a zero-value ProjectMetadata.
func ReadProjectMetadata(root string) (*ProjectMetadata, error) {
	data, err := os.ReadFile(filepath.Join(root, ".lsproxy.yaml"))
	if os.IsNotExist(err) {
		return &ProjectMetadata{}, nil
	}
	if err != nil {
		return nil, err
	}

	var meta ProjectMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, ErrInvalidVersionExpression
	}
	if meta.Versions == nil {
		meta.Versions = make(map[Language]string)
	}
	return &meta, nil
}

// Resolve picks an image tag for lang given a detected version (possibly
// empty) and project metadata pin (possibly nil). Pins win over detection.
func (r *ImageResolver) Resolve(lang Language, detectedVersion string, meta *ProjectMetadata) (string, error) {
	spec, err := r.registry.Get(lang)
	if err != nil {
		return "", err
	}

	if !spec.RequiresVersion {
		return spec.ImageRef(spec.DefaultImageTag), nil
	}

	version := detectedVersion
	if meta != nil {
		if pinned, ok := meta.Versions[lang]; ok && pinned != "" {
			version = pinned
		}
	}

	cacheKey := string(lang) + "@" + version
	if tag, ok := r.cache.Get(cacheKey); ok {
		return spec.ImageRef(tag), nil
	}

	tag := resolveTag(spec, version)
	if tag == "" {
		return "", ErrNoImageAvailable
	}

	r.cache.Add(cacheKey, tag)
	return spec.ImageRef(tag), nil
}

// resolveTag implements the three-step precedence: exact match, closest
// match not exceeding version, else the spec's default tag.
func resolveTag(spec *LanguageSpec, version string) string {
	if version == "" {
		return spec.DefaultImageTag
	}

	for _, tag := range spec.AvailableTags {
		if tag == version {
			return tag
		}
	}

	want := parseVersionParts(version)
	best := ""
	var bestParts []int
	for _, tag := range spec.AvailableTags {
		parts := parseVersionParts(tag)
		if compareVersionParts(parts, want) <= 0 {
			if best == "" || compareVersionParts(parts, bestParts) > 0 {
				best = tag
				bestParts = parts
			}
		}
	}
	if best != "" {
		return best
	}

	return spec.DefaultImageTag
}

func parseVersionParts(v string) []int {
	fields := strings.Split(v, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			n = 0
		}
		parts[i] = n
	}
	return parts
}

// compareVersionParts returns -1, 0, or 1 comparing a to b component-wise,
// treating a missing trailing component as 0.
func compareVersionParts(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
