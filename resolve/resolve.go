// Package resolve maps logical imports of the avatar package onto its sources.
package resolve

import (
	"path/filepath"
	"strings"

	"avatard/project"
)

// Resolver resolves `<package>` and `<package>/<sub>` imports against the
// library's src directory. Results are not cached; the disk is probed on
// every call.
type Resolver struct {
	name    string
	srcRoot string
	entry   string
}

// New returns a Resolver for the given layout.
func New(layout project.Layout) *Resolver {
	return &Resolver{
		name:    layout.PackageName,
		srcRoot: layout.SrcRoot(),
		entry:   layout.LibraryEntry(),
	}
}

// Name returns the package name this resolver handles.
func (r *Resolver) Name() string {
	return r.name
}

// Resolve returns the file a logical import refers to. Candidates for a
// sub path are tried as-is, with ".tsx" appended, then as a directory with
// an "index.tsx".
func (r *Resolver) Resolve(logicalPath string) (string, bool) {
	if logicalPath == r.name || logicalPath == r.name+"/index" {
		return r.entry, true
	}
	rel, ok := strings.CutPrefix(logicalPath, r.name+"/")
	if !ok {
		return "", false
	}
	for _, candidate := range r.candidates(rel) {
		if project.FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) candidates(rel string) []string {
	base, ok := project.Within(r.srcRoot, rel)
	if !ok {
		return nil
	}
	return []string{
		base,
		base + ".tsx",
		filepath.Join(base, "index.tsx"),
	}
}
