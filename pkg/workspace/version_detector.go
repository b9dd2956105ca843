package workspace

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// VersionDetector implements spec.md §4.A: for each supported language it
// consults a fixed, ordered list of manifest files and returns the first
// hit, reduced to a base major.minor(.patch) string. Malformed manifests
// fail soft — None for that language, logged, detection continues.
type VersionDetector struct {
	log *logrus.Logger

	mu    sync.RWMutex
	cache map[string]map[Language]string

	watcher *fsnotify.Watcher
}

// NewVersionDetector constructs a detector. Passing a nil logger falls
// back to logrus' standard logger.
func NewVersionDetector(log *logrus.Logger) *VersionDetector {
	if log == nil {
		log = logrus.New()
	}
	return &VersionDetector{
		log:   log,
		cache: make(map[string]map[Language]string),
	}
}

// Detect scans a workspace root and returns a Language -> version map.
// Languages with no detected version are simply absent from the map.
func (d *VersionDetector) Detect(root string) (map[Language]string, error) {
	d.mu.RLock()
	if cached, ok := d.cache[root]; ok {
		d.mu.RUnlock()
		return cached, nil
	}
	d.mu.RUnlock()

	versions := map[Language]string{
		LanguageRuby:       d.detectRuby(root),
		LanguageRubySorbet: d.detectRuby(root),
		LanguagePython:     d.detectPython(root),
		LanguageTypeScript: d.detectNode(root),
		LanguageJavaScript: d.detectNode(root),
		LanguageJava:       d.detectJava(root),
		LanguageGo:         d.detectGo(root),
		LanguagePHP:        d.detectPHP(root),
	}
	for lang, v := range versions {
		if v == "" {
			delete(versions, lang)
		}
	}

	d.mu.Lock()
	d.cache[root] = versions
	d.mu.Unlock()

	d.watch(root)

	return versions, nil
}

// watch installs a best-effort fsnotify watch on root so a long-lived base
// process invalidates its detection cache when a manifest is edited after
// initialize. Failure to watch is logged, never fatal — detection always
// works without it, just without the cache-busting.
func (d *VersionDetector) watch(root string) {
	if d.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			d.log.WithError(err).Debug("version detector: fsnotify unavailable, cache will not auto-invalidate")
			return
		}
		d.watcher = w
		go d.watchLoop()
	}

	if err := d.watcher.Add(root); err != nil {
		d.log.WithError(err).WithField("root", root).Debug("version detector: failed to watch workspace root")
	}
}

func (d *VersionDetector) watchLoop() {
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if isManifestPath(ev.Name) {
				d.invalidate(filepath.Dir(ev.Name))
			}
		case _, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (d *VersionDetector) invalidate(root string) {
	d.mu.Lock()
	delete(d.cache, root)
	d.mu.Unlock()
}

// Close releases the fsnotify watcher, if one was started.
func (d *VersionDetector) Close() error {
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}

var manifestBasenames = map[string]bool{
	".ruby-version": true, "Gemfile": true, ".tool-versions": true,
	".python-version": true, "pyproject.toml": true, "Pipfile": true, "runtime.txt": true,
	".nvmrc": true, ".node-version": true, "package.json": true,
	"pom.xml": true, "build.gradle": true, ".java-version": true,
	"go.mod": true, ".go-version": true,
	"composer.json": true, ".php-version": true,
}

func isManifestPath(path string) bool {
	return manifestBasenames[filepath.Base(path)]
}

// --- per-language detection, in precedence order ---

func (d *VersionDetector) detectRuby(root string) string {
	if v := readFirstLine(filepath.Join(root, ".ruby-version")); v != "" {
		return normalizeVersion(v)
	}
	if v := grepCapture(filepath.Join(root, "Gemfile"), regexp.MustCompile(`ruby\s+["']([^"']+)["']`)); v != "" {
		return normalizeVersion(v)
	}
	if v := toolVersionsRow(filepath.Join(root, ".tool-versions"), "ruby"); v != "" {
		return normalizeVersion(v)
	}
	return ""
}

func (d *VersionDetector) detectPython(root string) string {
	if v := readFirstLine(filepath.Join(root, ".python-version")); v != "" {
		return normalizeVersion(v)
	}
	if v := grepCapture(filepath.Join(root, "pyproject.toml"), regexp.MustCompile(`requires-python\s*=\s*["']([^"']+)["']`)); v != "" {
		return normalizeVersion(v)
	}
	if v := grepCapture(filepath.Join(root, "Pipfile"), regexp.MustCompile(`python_version\s*=\s*["']([^"']+)["']`)); v != "" {
		return normalizeVersion(v)
	}
	if v := grepCapture(filepath.Join(root, "runtime.txt"), regexp.MustCompile(`python-([0-9][0-9.]*)`)); v != "" {
		return normalizeVersion(v)
	}
	return ""
}

func (d *VersionDetector) detectNode(root string) string {
	if v := readFirstLine(filepath.Join(root, ".nvmrc")); v != "" {
		return normalizeVersion(v)
	}
	if v := readFirstLine(filepath.Join(root, ".node-version")); v != "" {
		return normalizeVersion(v)
	}
	if v := grepCapture(filepath.Join(root, "package.json"), regexp.MustCompile(`"node"\s*:\s*"([^"]+)"`)); v != "" {
		return normalizeVersion(v)
	}
	if v := toolVersionsRow(filepath.Join(root, ".tool-versions"), "nodejs"); v != "" {
		return normalizeVersion(v)
	}
	return ""
}

func (d *VersionDetector) detectJava(root string) string {
	if v := grepCapture(filepath.Join(root, "pom.xml"), regexp.MustCompile(`<(?:maven\.compiler\.)?source>([^<]+)</(?:maven\.compiler\.)?source>`)); v != "" {
		return normalizeVersion(v)
	}
	if v := grepCapture(filepath.Join(root, "build.gradle"), regexp.MustCompile(`sourceCompatibility\s*=\s*['"]?([0-9.]+)`)); v != "" {
		return normalizeVersion(v)
	}
	if v := readFirstLine(filepath.Join(root, ".java-version")); v != "" {
		return normalizeVersion(v)
	}
	if v := toolVersionsRow(filepath.Join(root, ".tool-versions"), "java"); v != "" {
		return normalizeVersion(v)
	}
	return ""
}

func (d *VersionDetector) detectGo(root string) string {
	if v := grepCapture(filepath.Join(root, "go.mod"), regexp.MustCompile(`(?m)^go\s+([0-9]+\.[0-9]+(?:\.[0-9]+)?)`)); v != "" {
		return normalizeVersion(v)
	}
	if v := readFirstLine(filepath.Join(root, ".go-version")); v != "" {
		return normalizeVersion(v)
	}
	if v := toolVersionsRow(filepath.Join(root, ".tool-versions"), "golang"); v != "" {
		return normalizeVersion(v)
	}
	return ""
}

func (d *VersionDetector) detectPHP(root string) string {
	if v := grepCapture(filepath.Join(root, "composer.json"), regexp.MustCompile(`"php"\s*:\s*"([^"]+)"`)); v != "" {
		return normalizeVersion(v)
	}
	if v := readFirstLine(filepath.Join(root, ".php-version")); v != "" {
		return normalizeVersion(v)
	}
	if v := toolVersionsRow(filepath.Join(root, ".tool-versions"), "php"); v != "" {
		return normalizeVersion(v)
	}
	return ""
}

// --- manifest helpers, all fail soft (empty string on any error) ---

func readFirstLine(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

func grepCapture(path string, pattern *regexp.Regexp) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	m := pattern.FindSubmatch(data)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}

func toolVersionsRow(path, tool string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == tool {
			return fields[1]
		}
	}
	return ""
}

var constraintPrefix = regexp.MustCompile(`^[><=^~\s]+`)

// normalizeVersion reduces a version expression like ">=3.11", "^8.2", or
// "3.11 # comment" to a bare major.minor(.patch) string by stripping
// leading constraint operators and anything after the first space, tab
// or '#'. Other prefixes (such as "python-") are not stripped.
func normalizeVersion(raw string) string {
	v := constraintPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	// Cut trailing garbage after the version number (e.g. "3.11 # comment").
	if idx := strings.IndexAny(v, " \t#"); idx >= 0 {
		v = v[:idx]
	}
	return strings.TrimSpace(v)
}
