package ident_test

import (
	"errors"
	"testing"

	"github.com/mineclover/depgraph/pkg/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/src/App.tsx", ident.Normalize("/project/src/App.tsx", "/project"))
	assert.Equal(t, "/src/App.tsx", ident.Normalize(`project\src\App.tsx`, "project"))
	assert.Equal(t, "/a/b.go", ident.Normalize("a/b.go", ""))
}

func TestFileIDRoundTrip(t *testing.T) {
	id := ident.FileID("/project/src/App.tsx", "/project")
	parsed, err := ident.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "/src/App.tsx", parsed.Path)
	assert.Equal(t, "file", parsed.Kind)
	assert.Equal(t, "App.tsx", parsed.Name)
	assert.False(t, parsed.IsLibrary)
}

func TestMethodIDRoundTrip(t *testing.T) {
	id := ident.MethodID("/src/x.ts", "Foo", "bar", "")
	parsed, err := ident.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "Foo", parsed.ParentScope)
	assert.Equal(t, "method", parsed.Kind)
	assert.Equal(t, "bar", parsed.Name)
}

func TestLibraryIDRoundTrip(t *testing.T) {
	id := ident.LibraryID("react")
	assert.Equal(t, "library::react", id)
	parsed, err := ident.Parse(id)
	require.NoError(t, err)
	assert.True(t, parsed.IsLibrary)
	assert.Equal(t, "library", parsed.Kind)
	assert.Equal(t, "react", parsed.Name)
}

func TestParseInvalid(t *testing.T) {
	_, err := ident.Parse("too::short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ident.ErrInvalidIdentifier))

	_, err = ident.Parse("a::b::c::d::e")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ident.ErrInvalidIdentifier))

	_, err = ident.Parse("library::")
	require.Error(t, err)
}

func TestDifferentPathsCompareUnequal(t *testing.T) {
	a := ident.FileID("/src/a.ts", "")
	b := ident.FileID("/src/b.ts", "")
	assert.NotEqual(t, a, b)
}

func TestGeneratorsRoundTripProperty(t *testing.T) {
	generators := []string{
		ident.FileID("/src/App.tsx", "/"),
		ident.ExportID("/src/App.tsx", "Default", "/"),
		ident.ImportID("/src/App.tsx", "useState", "/"),
		ident.ClassID("/src/App.tsx", "App", "/"),
		ident.FunctionID("/src/App.tsx", "render", "/"),
		ident.LibraryID("react"),
	}
	for _, id := range generators {
		_, err := ident.Parse(id)
		require.NoErrorf(t, err, "identifier %q should round-trip", id)
	}
}
