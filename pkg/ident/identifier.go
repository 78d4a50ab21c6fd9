// Package ident derives and parses the stable, globally unique identifier
// strings used as the shared currency between every other component of
// the graph engine: the GraphStore keys nodes by identifier, the analyzer
// generates them for files/imports/libraries, and the inference engine
// never has to know about them at all because edges reference node IDs,
// not identifiers, once a node has been upserted.
//
// Every function here is pure — no I/O, no store access — so that
// identifier generation and parsing can be reasoned about, tested, and
// reused independently of any particular storage backend.
package ident

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidIdentifier is the sentinel wrapped by InvalidIdentifierError.
// Use errors.Is(err, ident.ErrInvalidIdentifier) to detect malformed
// identifier strings regardless of which function produced the error.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// InvalidIdentifierError reports why a string could not be parsed as a
// canonical identifier.
type InvalidIdentifierError struct {
	Identifier string
	Reason     string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Identifier, e.Reason)
}

func (e *InvalidIdentifierError) Unwrap() error { return ErrInvalidIdentifier }

const librarySeparator = "::"

// Parsed is the decomposed form of a canonical identifier string.
type Parsed struct {
	Path        string // empty for library identifiers
	Kind        string
	Name        string
	ParentScope string // empty unless the identifier carries a parent scope segment
	IsLibrary   bool
}

// Normalize produces the canonical path form used inside identifiers:
// backslashes folded to forward slashes, made relative to root when the
// path falls under it, and a leading slash enforced on whatever remains.
func Normalize(p string, root string) string {
	p = strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
	if root != "" {
		root = strings.ReplaceAll(filepath.ToSlash(root), `\`, "/")
		if rel, ok := relativeToRoot(root, p); ok {
			p = rel
		}
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// relativeToRoot strips root from p when p lies under it, returning the
// remainder and true. It returns p unchanged and false otherwise.
func relativeToRoot(root, p string) (string, bool) {
	root = strings.TrimSuffix(root, "/")
	if root == "" {
		return p, false
	}
	if p == root {
		return "", true
	}
	if strings.HasPrefix(p, root+"/") {
		return strings.TrimPrefix(p, root+"/"), true
	}
	return p, false
}

func join(segments ...string) string {
	return strings.Join(segments, librarySeparator)
}

// FileID derives the identifier for a file node.
func FileID(p string, root string) string {
	norm := Normalize(p, root)
	return join(norm, "file", path.Base(norm))
}

// ExportID derives the identifier for a named export in a file.
func ExportID(p, name, root string) string {
	return join(Normalize(p, root), "export", name)
}

// ImportID derives the identifier for a named import in a file.
func ImportID(p, name, root string) string {
	return join(Normalize(p, root), "import", name)
}

// ClassID derives the identifier for a class declared in a file.
func ClassID(p, name, root string) string {
	return join(Normalize(p, root), "class", name)
}

// MethodID derives the identifier for a method, inserting the owning
// class name as the parent-scope segment.
func MethodID(p, className, methodName, root string) string {
	return join(Normalize(p, root), className, "method", methodName)
}

// FunctionID derives the identifier for a top-level function.
func FunctionID(p, name, root string) string {
	return join(Normalize(p, root), "function", name)
}

// LibraryID derives the identifier for an external library/package node.
func LibraryID(name string) string {
	return join("library", name)
}

// Parse decomposes a canonical identifier string. It is the inverse of
// the Generate* functions above, modulo whitespace: Parse(FileID(p, root))
// always yields Kind == "file", Name == basename(Normalize(p, root)), and
// Path == Normalize(p, root).
//
// Parse fails with InvalidIdentifierError when the identifier has fewer
// than three "::"-separated segments, unless it uses the "library::name"
// form.
func Parse(identifier string) (*Parsed, error) {
	trimmed := strings.TrimSpace(identifier)
	if strings.HasPrefix(trimmed, "library"+librarySeparator) {
		name := strings.TrimPrefix(trimmed, "library"+librarySeparator)
		if name == "" {
			return nil, &InvalidIdentifierError{Identifier: identifier, Reason: "empty library name"}
		}
		return &Parsed{Kind: "library", Name: name, IsLibrary: true}, nil
	}

	segments := strings.Split(trimmed, librarySeparator)
	switch len(segments) {
	case 3:
		return &Parsed{Path: segments[0], Kind: segments[1], Name: segments[2]}, nil
	case 4:
		return &Parsed{Path: segments[0], ParentScope: segments[1], Kind: segments[2], Name: segments[3]}, nil
	default:
		return nil, &InvalidIdentifierError{
			Identifier: identifier,
			Reason:     fmt.Sprintf("expected 3 or 4 \"::\"-separated segments, got %d", len(segments)),
		}
	}
}

// knownKinds is the open set of node kinds this module is aware of. It is
// advisory only: Parse and the Generate* functions accept any kind
// string. IsKnownKind/RegisterKind exist so a caller that wants to catch a
// typo'd kind before it becomes an unparseable identifier can opt in.
var knownKinds = map[string]bool{
	"file": true, "class": true, "method": true, "function": true,
	"variable": true, "interface": true, "type": true, "export": true,
	"import": true, "library": true,
}

// IsKnownKind reports whether kind is in the open set of recognized node
// kinds registered so far.
func IsKnownKind(kind string) bool {
	return knownKinds[kind]
}

// RegisterKind extends the open set of recognized node kinds. Language
// parsers that introduce a new kind (e.g. "decorator") call this once at
// startup so later IsKnownKind checks don't flag it as a typo.
func RegisterKind(kind string) {
	knownKinds[kind] = true
}
