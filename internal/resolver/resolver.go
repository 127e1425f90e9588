// Package resolver normalizes the many spellings of a page entry into one
// canonical form.
//
// A canonical entry is either project-root-relative ("@/pages/home.tsx") or
// package-relative ("react-feather/Home"). Callers may hand in absolute
// paths, file:// URLs, paths that run through a node_modules directory, or
// already-canonical strings; Canonicalize collapses all of them to exactly
// one representation per logical file and rejects anything that escapes the
// project root.
package resolver

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/stackpress/reactus/internal/errors"
)

// RootMarker prefixes project-root-relative entries.
const RootMarker = "@"

// fileScheme is the URL scheme stripped from file references.
const fileScheme = "file://"

// packageBoundary is the directory segment that marks the start of an
// external package path.
const packageBoundary = "node_modules"

// Resolver canonicalizes raw entry strings against one project root.
type Resolver struct {
	projectRoot string
}

// New creates a resolver for the given project root. The root is cleaned to
// an absolute-style path so containment checks are exact.
func New(projectRoot string) *Resolver {
	return &Resolver{projectRoot: filepath.Clean(projectRoot)}
}

// ProjectRoot returns the root all entries are resolved against.
func (r *Resolver) ProjectRoot() string {
	return r.projectRoot
}

// Canonicalize normalizes raw into its canonical entry form. The rules apply
// in order; in particular package-boundary stripping runs before the
// project-root containment check, because package paths are frequently
// absolute paths living outside the project root.
func (r *Resolver) Canonicalize(raw string) (string, error) {
	if raw == "" {
		return "", errors.NewInvalidEntry("EMPTY_ENTRY", "entry is empty")
	}

	// Rule 1: strip everything up to and including the last package
	// boundary; the remainder is package-relative and already canonical.
	if stripped, ok := stripPackageBoundary(raw); ok {
		if stripped == "" {
			return "", errors.NewInvalidEntry("EMPTY_PACKAGE_PATH", "no module path after package boundary").WithEntry(raw)
		}
		return stripped, nil
	}

	// Rule 2: anything that does not look like a path is a bare package
	// specifier, already canonical.
	if !looksLikePath(raw) {
		return raw, nil
	}

	// Rule 3: strip a file URL scheme.
	entry := strings.TrimPrefix(raw, fileScheme)

	// Rule 4: already in project-root-relative form. Clean it so one logical
	// file keeps exactly one canonical spelling, and keep it inside the root.
	if rest, ok := strings.CutPrefix(entry, RootMarker+"/"); ok {
		cleaned := path.Clean("/" + rest)
		if cleaned == "/" {
			return "", errors.NewInvalidEntry("EMPTY_ENTRY", "entry names the project root, not a file").WithEntry(raw)
		}
		return RootMarker + cleaned, nil
	}

	// Rule 5: resolve against the project root and require containment.
	abs := entry
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.projectRoot, abs)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(r.projectRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.NewInvalidEntry(
			"OUTSIDE_ROOT",
			"entry resolves outside the project root "+r.projectRoot,
		).WithEntry(raw)
	}

	return RootMarker + "/" + filepath.ToSlash(rel), nil
}

// Absolute maps a project-root-relative entry back to its absolute path.
// Package-relative entries resolve by name, not by location, so they report
// ok=false.
func (r *Resolver) Absolute(entry string) (string, bool) {
	if rest, ok := strings.CutPrefix(entry, RootMarker+"/"); ok {
		return filepath.Join(r.projectRoot, filepath.FromSlash(rest)), true
	}

	return "", false
}

// IsPackageEntry reports whether entry is package-relative.
func IsPackageEntry(entry string) bool {
	return !strings.HasPrefix(entry, RootMarker+"/")
}

// stripPackageBoundary removes everything up to and including the last
// package-boundary segment and its trailing separator.
func stripPackageBoundary(raw string) (string, bool) {
	normalized := strings.ReplaceAll(raw, "\\", "/")

	idx := strings.LastIndex(normalized, packageBoundary+"/")
	if idx < 0 {
		return "", false
	}

	// The marker must be a whole path segment, not a substring of one.
	if idx > 0 && normalized[idx-1] != '/' {
		return "", false
	}

	return normalized[idx+len(packageBoundary)+1:], true
}

// looksLikePath reports whether raw is spelled as a file path rather than a
// bare package specifier.
func looksLikePath(raw string) bool {
	return strings.HasPrefix(raw, "/") ||
		strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") ||
		strings.HasPrefix(raw, fileScheme) ||
		strings.HasPrefix(raw, RootMarker+"/")
}
