package analyzer_test

import (
	"context"
	"testing"

	"github.com/mineclover/depgraph/pkg/analyzer"
	"github.com/mineclover/depgraph/pkg/edgetype"
	"github.com/mineclover/depgraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore(graph.NewMemoryEngine())
	for _, def := range edgetype.New().TypesRequiringPersistence() {
		require.NoError(t, s.RegisterEdgeType(graph.EdgeTypeDef{Type: def.Type, ParentType: def.ParentType}))
	}
	return s
}

func TestAnalyzeLibraryImportWeight(t *testing.T) {
	store := newTestStore(t)
	resolver := newFakeResolver("/src/App.tsx")
	a := analyzer.New(store, resolver)

	src := analyzer.ImportSource{
		SourceFile: "/src/App.tsx",
		Root:       "/project",
		Language:   "typescript",
		Imports: []analyzer.Import{
			{Target: "react", Kind: analyzer.KindLibrary, Items: []analyzer.ImportItem{{Name: "useState"}}},
		},
	}
	result, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedNodes)
	assert.Equal(t, 1, result.CreatedEdges)

	edges, err := store.FindEdges(graph.EdgeFilter{Types: []string{"imports_library"}})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.InDelta(t, 1.6, edges[0].Weight, 0.001)
}

func TestAnalyzeRelativeImportWithExtensionGuessing(t *testing.T) {
	store := newTestStore(t)
	resolver := newFakeResolver("/src/App.tsx", "/src/utils.ts")
	a := analyzer.New(store, resolver)

	src := analyzer.ImportSource{
		SourceFile: "/src/App.tsx",
		Root:       "/project",
		Language:   "typescript",
		Imports: []analyzer.Import{
			{Target: "./utils", Kind: analyzer.KindRelative, Items: []analyzer.ImportItem{{Name: "x", IsDefault: true}}},
		},
	}
	result, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, result.MissingLinks)

	edges, err := store.FindEdges(graph.EdgeFilter{Types: []string{"imports_file"}})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	// 1 + 0.1*1 + 2.0 (relative) + 0.5 (default) = 3.6
	assert.InDelta(t, 3.6, edges[0].Weight, 0.001)
}

func TestAnalyzeMissingTargetIsDataNotError(t *testing.T) {
	store := newTestStore(t)
	resolver := newFakeResolver("/src/App.tsx")
	a := analyzer.New(store, resolver)

	src := analyzer.ImportSource{
		SourceFile: "/src/App.tsx",
		Root:       "/project",
		Language:   "typescript",
		Imports: []analyzer.Import{
			{Target: "./missing", Kind: analyzer.KindRelative},
		},
	}
	result, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, result.MissingLinks, 1)
	assert.Equal(t, "./missing", result.MissingLinks[0].Target)
	assert.Equal(t, 0, result.CreatedEdges)
}

func TestAnalyzeIsIdempotentOnReanalysis(t *testing.T) {
	store := newTestStore(t)
	resolver := newFakeResolver("/src/App.tsx", "/src/a.ts", "/src/b.ts")
	a := analyzer.New(store, resolver)

	src := analyzer.ImportSource{
		SourceFile: "/src/App.tsx", Root: "/project", Language: "typescript",
		Imports: []analyzer.Import{{Target: "./a", Kind: analyzer.KindRelative}},
	}
	_, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)

	// Second analysis drops the ./a import and adds ./b; re-running must
	// leave exactly one owned edge behind, not two.
	src.Imports = []analyzer.Import{{Target: "./b", Kind: analyzer.KindRelative}}
	_, err = a.Analyze(context.Background(), src)
	require.NoError(t, err)

	edges, err := store.FindEdges(graph.EdgeFilter{Types: []string{"imports_file"}, SourceFiles: []string{"/src/App.tsx"}})
	require.NoError(t, err)
	require.Len(t, edges, 1)

	target, err := store.GetNode(edges[0].To)
	require.NoError(t, err)
	assert.Equal(t, "/src/b.ts", target.SourceFile)
}

func TestDependencyTreeDetectsCircularReference(t *testing.T) {
	store := newTestStore(t)
	resolver := newFakeResolver("/src/a.ts", "/src/b.ts")
	a := analyzer.New(store, resolver)

	_, err := a.Analyze(context.Background(), analyzer.ImportSource{
		SourceFile: "/src/a.ts", Root: "/project", Language: "typescript",
		Imports: []analyzer.Import{{Target: "./b", Kind: analyzer.KindRelative}},
	})
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), analyzer.ImportSource{
		SourceFile: "/src/b.ts", Root: "/project", Language: "typescript",
		Imports: []analyzer.Import{{Target: "./a", Kind: analyzer.KindRelative}},
	})
	require.NoError(t, err)

	nodes, err := store.FindNodes(graph.NodeFilter{SourceFiles: []string{"/src/a.ts"}})
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	tree, err := a.DependencyTree(nodes[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	require.Len(t, tree.Children[0].Children, 1)
	assert.True(t, tree.Children[0].Children[0].IsCircular)
}
