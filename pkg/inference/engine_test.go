package inference_test

import (
	"context"
	"testing"

	"github.com/mineclover/depgraph/pkg/edgetype"
	"github.com/mineclover/depgraph/pkg/graph"
	"github.com/mineclover/depgraph/pkg/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*graph.Store, *edgetype.Registry, *inference.Engine) {
	t.Helper()
	registry := edgetype.New()
	store := graph.NewStore(graph.NewMemoryEngine())
	for _, def := range registry.TypesRequiringPersistence() {
		require.NoError(t, store.RegisterEdgeType(graph.EdgeTypeDef{
			Type: def.Type, ParentType: def.ParentType, IsDirected: def.IsDirected,
			IsTransitive: def.IsTransitive, IsInheritable: def.IsInheritable,
		}))
	}
	return store, registry, inference.New(store, registry)
}

func mustNode(t *testing.T, s *graph.Store, identifier, kind string) graph.NodeID {
	t.Helper()
	id, err := s.UpsertNode(&graph.Node{Identifier: identifier, Kind: kind, Name: identifier})
	require.NoError(t, err)
	return id
}

// Three-file chain: a depends_on b depends_on c. Transitive closure from a
// must reach c at depth 2, without a direct a->c edge existing.
func TestQueryTransitiveThreeFileChain(t *testing.T) {
	store, _, eng := newTestEngine(t)
	a := mustNode(t, store, "a", "file")
	b := mustNode(t, store, "b", "file")
	c := mustNode(t, store, "c", "file")
	_, err := store.UpsertEdge(&graph.Edge{From: a, To: b, Type: "depends_on"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: b, To: c, Type: "depends_on"})
	require.NoError(t, err)

	res, err := eng.QueryTransitive(context.Background(), a, "depends_on", inference.DefaultBudget())
	require.NoError(t, err)
	assert.False(t, res.Truncated)

	byTo := map[graph.NodeID]inference.DerivedEdge{}
	for _, e := range res.Edges {
		byTo[e.To] = e
	}
	require.Contains(t, byTo, b)
	assert.Equal(t, 1, byTo[b].Depth)
	require.Contains(t, byTo, c)
	assert.Equal(t, 2, byTo[c].Depth)

	cached, found, err := store.GetCacheEntry(a, c, "depends_on")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, cached.Depth)
}

func TestQueryTransitiveRejectsNonTransitiveType(t *testing.T) {
	store, _, eng := newTestEngine(t)
	a := mustNode(t, store, "a", "file")
	_, err := eng.QueryTransitive(context.Background(), a, "calls", inference.DefaultBudget())
	require.Error(t, err)
	assert.ErrorIs(t, err, inference.ErrNotTransitive)
}

func TestQueryTransitiveCycleProtection(t *testing.T) {
	store, _, eng := newTestEngine(t)
	a := mustNode(t, store, "a", "file")
	b := mustNode(t, store, "b", "file")
	_, err := store.UpsertEdge(&graph.Edge{From: a, To: b, Type: "depends_on"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: b, To: a, Type: "depends_on"})
	require.NoError(t, err)

	res, err := eng.QueryTransitive(context.Background(), a, "depends_on", inference.DefaultBudget())
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	// Must terminate and report each node once, not loop forever.
	assert.Len(t, res.Edges, 1)
	assert.Equal(t, b, res.Edges[0].To)
}

func TestQueryHierarchicalUnionsDescendants(t *testing.T) {
	store, _, eng := newTestEngine(t)
	file := mustNode(t, store, "file", "file")
	lib := mustNode(t, store, "react", "library")
	local := mustNode(t, store, "local", "file")
	_, err := store.UpsertEdge(&graph.Edge{From: file, To: lib, Type: "imports_library"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: file, To: local, Type: "imports_file"})
	require.NoError(t, err)

	edges, err := eng.QueryHierarchical(file, "imports", true, false)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

// Mirrors a real analyzer run: only the leaf types imports_file and
// imports_library are ever written, never depends_on itself. A transitive
// query against depends_on must still reach across the chain by following
// depends_on's hierarchical descendants at each hop.
func TestQueryTransitiveFollowsHierarchicalDescendants(t *testing.T) {
	store, _, eng := newTestEngine(t)
	app := mustNode(t, store, "App.tsx", "file")
	helpers := mustNode(t, store, "helpers.ts", "file")
	math := mustNode(t, store, "math.ts", "file")
	_, err := store.UpsertEdge(&graph.Edge{From: app, To: helpers, Type: "imports_file"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: helpers, To: math, Type: "imports_file"})
	require.NoError(t, err)

	res, err := eng.QueryTransitive(context.Background(), app, "depends_on", inference.DefaultBudget())
	require.NoError(t, err)
	assert.False(t, res.Truncated)

	byTo := map[graph.NodeID]inference.DerivedEdge{}
	for _, e := range res.Edges {
		byTo[e.To] = e
	}
	require.Contains(t, byTo, helpers)
	assert.Equal(t, 1, byTo[helpers].Depth)
	require.Contains(t, byTo, math)
	assert.Equal(t, 2, byTo[math].Depth)

	cached, found, err := store.GetCacheEntry(app, math, "depends_on")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, cached.Depth)
	require.Len(t, cached.EdgePath, 2)
}

// A cached depth-3 derivation must go stale when an interior hop is
// mutated, even though neither of the derived row's own endpoints changed.
func TestQueryTransitiveCacheInvalidatesOnInteriorEdgeMutation(t *testing.T) {
	store, _, eng := newTestEngine(t)
	a := mustNode(t, store, "a", "file")
	b := mustNode(t, store, "b", "file")
	c := mustNode(t, store, "c", "file")
	d := mustNode(t, store, "d", "file")
	_, err := store.UpsertEdge(&graph.Edge{From: a, To: b, Type: "depends_on"})
	require.NoError(t, err)
	bcID, err := store.UpsertEdge(&graph.Edge{From: b, To: c, Type: "depends_on"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: c, To: d, Type: "depends_on"})
	require.NoError(t, err)

	res, err := eng.QueryTransitive(context.Background(), a, "depends_on", inference.DefaultBudget())
	require.NoError(t, err)
	assert.False(t, res.Truncated)

	cached, found, err := store.GetCacheEntry(a, d, "depends_on")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, cached.Depth)

	// Mutate the interior b->c edge; this does not touch a or d directly.
	require.NoError(t, store.DeleteEdge(bcID))

	_, stillFound, err := store.GetCacheEntry(a, d, "depends_on")
	require.NoError(t, err)
	assert.False(t, stillFound, "stale a->d cache row must not survive an interior edge mutation")
}

func TestQueryInheritableProjectsThroughContains(t *testing.T) {
	store, registry, eng := newTestEngine(t)
	require.NoError(t, registry.Register(&edgetype.EdgeType{Type: "depends_on_inherited", IsInheritable: true}))
	require.NoError(t, store.RegisterEdgeType(graph.EdgeTypeDef{Type: "depends_on_inherited", IsInheritable: true}))

	pkgNode := mustNode(t, store, "pkg", "package")
	fileNode := mustNode(t, store, "pkg/file.go", "file")
	target := mustNode(t, store, "other", "package")
	_, err := store.UpsertEdge(&graph.Edge{From: pkgNode, To: fileNode, Type: "contains"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: fileNode, To: target, Type: "depends_on_inherited"})
	require.NoError(t, err)

	res, err := eng.QueryInheritable(context.Background(), pkgNode, "depends_on_inherited")
	require.NoError(t, err)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, target, res.Edges[0].To)
}

func TestQueryInheritableRejectsNonInheritableType(t *testing.T) {
	store, _, eng := newTestEngine(t)
	a := mustNode(t, store, "a", "package")
	_, err := eng.QueryInheritable(context.Background(), a, "calls")
	require.Error(t, err)
	assert.ErrorIs(t, err, inference.ErrNotInheritable)
}

func TestInferAllDedupesByMinDepth(t *testing.T) {
	store, _, eng := newTestEngine(t)
	a := mustNode(t, store, "a", "file")
	b := mustNode(t, store, "b", "file")
	c := mustNode(t, store, "c", "file")
	_, err := store.UpsertEdge(&graph.Edge{From: a, To: b, Type: "depends_on"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: b, To: c, Type: "depends_on"})
	require.NoError(t, err)
	_, err = store.UpsertEdge(&graph.Edge{From: a, To: c, Type: "depends_on"})
	require.NoError(t, err)

	res, err := eng.InferAll(context.Background(), a, inference.DefaultBudget())
	require.NoError(t, err)

	for _, e := range res.Edges {
		if e.To == c && e.Type == "depends_on" {
			assert.Equal(t, 1, e.Depth, "direct a->c edge should win over the depth-2 derivation")
		}
	}
}
