// Package inference computes relationships that are not stored directly
// but follow from the stored graph and the edge-type taxonomy: the
// hierarchical query (an edge type plus its ancestors/descendants), the
// transitive closure of a transitive edge type, and the containment
// projection of an inheritable edge type. Results that required more than
// one hop are memoized in the store's inference-cache table.
package inference

import (
	"context"
	"sort"
	"strconv"

	"github.com/mineclover/depgraph/pkg/edgetype"
	"github.com/mineclover/depgraph/pkg/graph"
)

// Engine answers inference queries against a graph.Store, consulting an
// edgetype.Registry for hierarchy and transitivity/inheritability flags.
type Engine struct {
	store    *graph.Store
	registry *edgetype.Registry
}

// New builds an inference Engine over store, consulting registry for the
// edge-type hierarchy and flags.
func New(store *graph.Store, registry *edgetype.Registry) *Engine {
	return &Engine{store: store, registry: registry}
}

// DerivedEdge is one relationship produced by a query: either a direct
// stored edge (Depth 1) or one inferred from a multi-hop path (Depth > 1).
// Path carries the direct-edge ids that produced the derivation, in hop
// order: one id for a Depth-1 result of QueryTransitive, and empty for the
// direct edges InferAll reports on its own.
type DerivedEdge struct {
	From  graph.NodeID
	To    graph.NodeID
	Type  string
	Depth int
	Path  []graph.EdgeID
}

// Result is the outcome of a bounded query: the edges it found, and
// whether Budget forced it to stop before the search space was exhausted.
type Result struct {
	Edges     []DerivedEdge
	Truncated bool
}

// QueryHierarchical returns id's outgoing edges whose type is edgeType,
// widened to edgeType's descendants (includeDescendants) and/or its
// ancestor chain (includeAncestors) per spec §4.4. The direct edgeType
// itself is always included.
func (e *Engine) QueryHierarchical(id graph.NodeID, edgeType string, includeDescendants, includeAncestors bool) ([]*graph.Edge, error) {
	if _, ok := e.registry.Get(edgeType); !ok {
		return nil, &InferenceError{Op: "query_hierarchical", Type: edgeType, Err: graph.ErrUnknownEdgeType}
	}

	typeSet := map[string]bool{edgeType: true}
	if includeDescendants {
		for _, d := range e.registry.DescendantsOf(edgeType) {
			typeSet[d.Type] = true
		}
	}
	if includeAncestors {
		for _, a := range e.registry.AncestorsOf(edgeType) {
			typeSet[a.Type] = true
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)

	edges, err := e.store.FindEdges(graph.EdgeFilter{Types: types, FromNode: &id})
	if err != nil {
		return nil, &InferenceError{Op: "query_hierarchical", Type: edgeType, Err: err}
	}
	return edges, nil
}

// QueryTransitive computes the transitive closure of edgeType starting at
// from: every node reachable by following one or more edges of edgeType or
// its hierarchical descendants (per §4.4.2's "following edges of type …
// and its hierarchical descendants" — the analyzer only ever writes leaf
// types, so a transitive query against e.g. depends_on must still walk
// imports_file/imports_library edges), tagged with the minimum depth at
// which it was reached. edgeType must have IsTransitive set, or
// ErrNotTransitive is returned. Depth-1 results are the edges already in
// the store; depth>1 results are written to the cache as derived edges,
// with the direct-edge ids of their path. The walk does not read the
// cache: every call recomputes the closure from the stored edges.
func (e *Engine) QueryTransitive(ctx context.Context, from graph.NodeID, edgeType string, budget Budget) (*Result, error) {
	def, ok := e.registry.Get(edgeType)
	if !ok {
		return nil, &InferenceError{Op: "query_transitive", Type: edgeType, Err: graph.ErrUnknownEdgeType}
	}
	if !def.IsTransitive {
		return nil, &InferenceError{Op: "query_transitive", Type: edgeType, Err: ErrNotTransitive}
	}

	typeSet := map[string]bool{edgeType: true}
	for _, d := range e.registry.DescendantsOf(edgeType) {
		typeSet[d.Type] = true
	}
	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)

	type queued struct {
		id       graph.NodeID
		depth    int
		path     map[graph.NodeID]bool
		edgePath []graph.EdgeID
	}

	result := &Result{}
	bestDepth := map[graph.NodeID]int{from: 0}
	queue := []queued{{id: from, depth: 0, path: map[graph.NodeID]bool{from: true}}}

	for len(queue) > 0 {
		if ctxDone(ctx) || budget.expired() {
			result.Truncated = true
			break
		}
		cur := queue[0]
		queue = queue[1:]

		if budget.depthExceeded(cur.depth + 1) {
			result.Truncated = true
			continue
		}

		neighbors, err := e.store.FindEdges(graph.EdgeFilter{Types: types, FromNode: &cur.id})
		if err != nil {
			return nil, &InferenceError{Op: "query_transitive", Type: edgeType, Err: err}
		}
		for _, edge := range neighbors {
			if cur.path[edge.To] {
				continue // cycle: never re-enter a node already on this path
			}
			nextDepth := cur.depth + 1
			if existing, seen := bestDepth[edge.To]; seen && existing <= nextDepth {
				continue
			}
			bestDepth[edge.To] = nextDepth

			nextEdgePath := make([]graph.EdgeID, len(cur.edgePath), len(cur.edgePath)+1)
			copy(nextEdgePath, cur.edgePath)
			nextEdgePath = append(nextEdgePath, edge.ID)

			result.Edges = append(result.Edges, DerivedEdge{From: from, To: edge.To, Type: edgeType, Depth: nextDepth, Path: nextEdgePath})

			nextPath := make(map[graph.NodeID]bool, len(cur.path)+1)
			for k := range cur.path {
				nextPath[k] = true
			}
			nextPath[edge.To] = true
			queue = append(queue, queued{id: edge.To, depth: nextDepth, path: nextPath, edgePath: nextEdgePath})

			if nextDepth > 1 {
				if err := e.store.PutCacheEntry(&graph.CacheEntry{
					From: from, To: edge.To, InferredType: edgeType, Depth: nextDepth, EdgePath: nextEdgePath,
				}); err != nil {
					return nil, &InferenceError{Op: "query_transitive", Type: edgeType, Err: err}
				}
			}
		}
	}

	sort.Slice(result.Edges, func(i, j int) bool {
		if result.Edges[i].Depth != result.Edges[j].Depth {
			return result.Edges[i].Depth < result.Edges[j].Depth
		}
		return result.Edges[i].To < result.Edges[j].To
	})
	return result, nil
}

// QueryInheritable projects edgeType through the containment hierarchy
// rooted at container: for every B that container contains (through a
// contains edge or one of contains' descendant types, such as declares),
// and every edgeType edge B -> C, it derives container -> C. edgeType must
// have IsInheritable set, or ErrNotInheritable is returned.
func (e *Engine) QueryInheritable(ctx context.Context, container graph.NodeID, edgeType string) (*Result, error) {
	def, ok := e.registry.Get(edgeType)
	if !ok {
		return nil, &InferenceError{Op: "query_inheritable", Type: edgeType, Err: graph.ErrUnknownEdgeType}
	}
	if !def.IsInheritable {
		return nil, &InferenceError{Op: "query_inheritable", Type: edgeType, Err: ErrNotInheritable}
	}

	containTypes := []string{"contains"}
	for _, d := range e.registry.DescendantsOf("contains") {
		containTypes = append(containTypes, d.Type)
	}
	containEdges, err := e.store.FindEdges(graph.EdgeFilter{Types: containTypes, FromNode: &container})
	if err != nil {
		return nil, &InferenceError{Op: "query_inheritable", Type: edgeType, Err: err}
	}

	result := &Result{}
	seen := map[graph.NodeID]bool{}
	for _, containEdge := range containEdges {
		if ctxDone(ctx) {
			result.Truncated = true
			break
		}
		member := containEdge.To
		edges, err := e.store.FindEdges(graph.EdgeFilter{Types: []string{edgeType}, FromNode: &member})
		if err != nil {
			return nil, &InferenceError{Op: "query_inheritable", Type: edgeType, Err: err}
		}
		for _, edge := range edges {
			if seen[edge.To] {
				continue
			}
			seen[edge.To] = true
			path := []graph.EdgeID{containEdge.ID, edge.ID}
			result.Edges = append(result.Edges, DerivedEdge{From: container, To: edge.To, Type: edgeType, Depth: 2, Path: path})
			if err := e.store.PutCacheEntry(&graph.CacheEntry{
				From: container, To: edge.To, InferredType: edgeType, Depth: 2, EdgePath: path,
			}); err != nil {
				return nil, &InferenceError{Op: "query_inheritable", Type: edgeType, Err: err}
			}
		}
	}

	sort.Slice(result.Edges, func(i, j int) bool { return result.Edges[i].To < result.Edges[j].To })
	return result, nil
}

// InferAll bundles id's direct outgoing edges with every transitive and
// inheritable derivation reachable from it, deduplicated by (To, Type)
// keeping the minimum depth at which each was found.
func (e *Engine) InferAll(ctx context.Context, id graph.NodeID, budget Budget) (*Result, error) {
	best := map[string]DerivedEdge{}
	add := func(edges []DerivedEdge) {
		for _, edge := range edges {
			key := edge.Type + ":" + keyOf(edge.To)
			if existing, ok := best[key]; !ok || edge.Depth < existing.Depth {
				best[key] = edge
			}
		}
	}

	direct, err := e.store.FindEdges(graph.EdgeFilter{FromNode: &id})
	if err != nil {
		return nil, &InferenceError{Op: "infer_all", Type: "", Err: err}
	}
	directEdges := make([]DerivedEdge, 0, len(direct))
	for _, d := range direct {
		directEdges = append(directEdges, DerivedEdge{From: id, To: d.To, Type: d.Type, Depth: 1})
	}
	add(directEdges)

	truncated := false
	for _, t := range e.registry.All() {
		if t.IsTransitive {
			r, err := e.QueryTransitive(ctx, id, t.Type, budget)
			if err != nil {
				continue // type isn't reachable/applicable from id; not fatal to the bundle
			}
			add(r.Edges)
			truncated = truncated || r.Truncated
		}
		if t.IsInheritable {
			r, err := e.QueryInheritable(ctx, id, t.Type)
			if err != nil {
				continue
			}
			add(r.Edges)
			truncated = truncated || r.Truncated
		}
	}

	out := &Result{Truncated: truncated}
	for _, edge := range best {
		out.Edges = append(out.Edges, edge)
	}
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].Depth != out.Edges[j].Depth {
			return out.Edges[i].Depth < out.Edges[j].Depth
		}
		if out.Edges[i].Type != out.Edges[j].Type {
			return out.Edges[i].Type < out.Edges[j].Type
		}
		return out.Edges[i].To < out.Edges[j].To
	})
	return out, nil
}

// InvalidateForEdgeTypeChange clears the entire derived-edge cache. Call
// this after registering a new definition for an existing edge type with
// different IsTransitive/IsInheritable flags — every cached row may have
// been computed under the old semantics.
func (e *Engine) InvalidateForEdgeTypeChange() error {
	return e.store.ClearCache()
}

func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func keyOf(id graph.NodeID) string {
	return strconv.FormatInt(int64(id), 10)
}
