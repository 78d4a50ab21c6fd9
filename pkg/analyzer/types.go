// Package analyzer implements the file-dependency analyzer: it turns a
// parsed import list for one source file into graph nodes and
// imports_file/imports_library edges, re-scoping its own prior output on
// every re-run so ingestion stays idempotent.
package analyzer

import "fmt"

// ImportKind classifies how an import specifier was written in source.
type ImportKind string

const (
	KindRelative ImportKind = "relative" // ./x, ../x
	KindAbsolute ImportKind = "absolute" // @/x, ~/x
	KindLibrary  ImportKind = "library"  // react, lodash/debounce
	KindBuiltin  ImportKind = "builtin"  // fs, path, os
)

// ImportItem is one named binding pulled in by an import statement.
type ImportItem struct {
	Name        string
	Alias       string
	IsDefault   bool
	IsNamespace bool
}

// Import is one import statement as reported by a language parser
// upstream of this package; analyzer.Analyze resolves it to a node and an
// edge, or to a MissingLink if the target can't be found.
type Import struct {
	Target string // raw specifier, e.g. "./util", "@/lib/x", "react"
	Kind   ImportKind
	Items  []ImportItem
	Line   int
}

// ImportSource is everything Analyze needs for one file: its own
// identity plus the imports a parser already extracted from it.
type ImportSource struct {
	SourceFile string // root-relative path, e.g. "/src/App.tsx"
	Root       string // filesystem root the source tree is checked out at
	Language   string
	Imports    []Import
}

// MissingLinkFileNotFound is the only MissingLink.Type this package
// produces today: an import whose target resolved to no file on disk.
const MissingLinkFileNotFound = "file_not_found"

// MissingLink records an import whose target could not be resolved on
// disk. This is data, not an error: a dependency graph of a partially
// checked-out or generated codebase is expected to have holes in it.
type MissingLink struct {
	SourceFile string
	Target     string
	Type       string
	Reason     string
}

// Result is what Analyze reports for one file.
type Result struct {
	SourceFile   string
	CreatedNodes int
	CreatedEdges int
	MissingLinks []MissingLink
	Stats        map[string]int
}

// AnalyzerError wraps a failure with the file being analyzed, per the
// AnalyzerError taxonomy entry in spec §7.
type AnalyzerError struct {
	File string
	Op   string
	Err  error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer: %s %s: %v", e.Op, e.File, e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }
