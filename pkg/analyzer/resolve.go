package analyzer

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resolver abstracts the filesystem checks Analyze needs. Production code
// uses FSResolver; tests inject a fake so the analyzer's resolution logic
// is exercised without touching disk — the same dependency-injection
// approach the storage layer uses for its own testability.
type Resolver interface {
	// Exists reports whether path names a regular file, relative to the
	// resolver's own root.
	Exists(path string) bool
	// ReadFile returns path's contents, for content-hash computation. A
	// resolver that can't or won't read file contents may return any
	// non-nil error; Analyze treats that as "no hash available" rather
	// than a failure.
	ReadFile(path string) ([]byte, error)
}

// FSResolver is the production Resolver, rooted at a directory on disk.
type FSResolver struct {
	Root string
}

// NewFSResolver returns a resolver rooted at root.
func NewFSResolver(root string) *FSResolver {
	return &FSResolver{Root: root}
}

func (r *FSResolver) abs(p string) string {
	return filepath.Join(r.Root, filepath.FromSlash(p))
}

func (r *FSResolver) Exists(p string) bool {
	info, err := os.Stat(r.abs(p))
	return err == nil && !info.IsDir()
}

func (r *FSResolver) ReadFile(p string) ([]byte, error) {
	return os.ReadFile(r.abs(p))
}

// extensionsFor returns the extensions tried, in order, when an import
// target has none of its own. Unrecognized languages fall back to the
// JS/TS family since that is the most common extension-elided import
// style in the corpus this analyzer targets.
func extensionsFor(language string) []string {
	switch language {
	case "go":
		return []string{".go"}
	case "python":
		return []string{".py"}
	case "javascript", "typescript", "jsx", "tsx":
		return []string{".ts", ".tsx", ".js", ".jsx"}
	default:
		return []string{".ts", ".tsx", ".js", ".jsx"}
	}
}

// resolved is the outcome of resolving one Import target.
type resolved struct {
	isLibrary bool
	path      string // root-relative path, set when !isLibrary
	name      string // library name, set when isLibrary
	found     bool
}

// resolve turns one Import into a concrete target: a root-relative file
// path for relative/absolute imports, or a bare library name for
// library/builtin imports. Relative and absolute imports that don't exist
// on disk after extension-guessing come back with found=false.
func resolve(src ImportSource, imp Import, fsys Resolver) resolved {
	switch imp.Kind {
	case KindLibrary, KindBuiltin:
		return resolved{isLibrary: true, name: libraryName(imp.Target), found: true}

	case KindAbsolute:
		var base string
		switch {
		case strings.HasPrefix(imp.Target, "@/"):
			base = path.Join("/src", imp.Target[2:])
		case strings.HasPrefix(imp.Target, "~/"):
			base = path.Join("/", imp.Target[1:])
		default:
			base = path.Clean("/" + imp.Target)
		}
		return resolveFileCandidate(base, src.Language, fsys)

	case KindRelative:
		dir := path.Dir(src.SourceFile)
		base := path.Clean(path.Join(dir, imp.Target))
		if !strings.HasPrefix(base, "/") {
			base = "/" + base
		}
		return resolveFileCandidate(base, src.Language, fsys)

	default:
		return resolved{found: false}
	}
}

// resolveFileCandidate tries base as-is, then base+ext for each
// extension, then base/index.ext — the same fallback order a Node-style
// module resolver uses.
func resolveFileCandidate(base, language string, fsys Resolver) resolved {
	if fsys.Exists(base) {
		return resolved{path: base, found: true}
	}
	for _, ext := range extensionsFor(language) {
		candidate := base + ext
		if fsys.Exists(candidate) {
			return resolved{path: candidate, found: true}
		}
	}
	for _, ext := range extensionsFor(language) {
		candidate := path.Join(base, "index"+ext)
		if fsys.Exists(candidate) {
			return resolved{path: candidate, found: true}
		}
	}
	return resolved{path: base, found: false}
}

// libraryName strips a deep-import subpath ("lodash/debounce") down to
// the package name ("lodash") for scoped and unscoped packages alike.
func libraryName(target string) string {
	if strings.HasPrefix(target, "@") {
		parts := strings.SplitN(target, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return target
	}
	parts := strings.SplitN(target, "/", 2)
	return parts[0]
}
