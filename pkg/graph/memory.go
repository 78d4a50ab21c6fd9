package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryEngine is an in-process Engine backed by plain Go maps. It is the
// default for small graphs and the engine most unit tests in this module
// run against; BadgerEngine is the persistent path.
type MemoryEngine struct {
	mu sync.RWMutex

	nextNodeID int64
	nextEdgeID int64

	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge

	nodeByIdentifier map[string]NodeID
	edgeByKey        map[string]EdgeID // "from:to:type" -> id

	edgeTypes map[string]EdgeTypeDef

	cache map[string]*CacheEntry // "from:to:inferredType" -> entry

	closed bool
}

// NewMemoryEngine returns an empty MemoryEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		nodes:            make(map[NodeID]*Node),
		edges:            make(map[EdgeID]*Edge),
		nodeByIdentifier: make(map[string]NodeID),
		edgeByKey:        make(map[string]EdgeID),
		edgeTypes:        make(map[string]EdgeTypeDef),
		cache:            make(map[string]*CacheEntry),
	}
}

func edgeMapKey(from, to NodeID, edgeType string) string {
	return fmt.Sprintf("%d:%d:%s", from, to, edgeType)
}

func cacheMapKey(from, to NodeID, inferredType string) string {
	return fmt.Sprintf("%d:%d:%s", from, to, inferredType)
}

func (m *MemoryEngine) UpsertNode(n *Node) (NodeID, error) {
	if n == nil || n.Identifier == "" {
		return 0, storeErr("upsert_node", ErrInvalidData)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, storeErr("upsert_node", ErrStorageClosed)
	}

	now := time.Now()
	if id, ok := m.nodeByIdentifier[n.Identifier]; ok {
		existing := m.nodes[id]
		updated := n.clone()
		updated.ID = id
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		m.nodes[id] = updated
		return id, nil
	}

	id := NodeID(atomic.AddInt64(&m.nextNodeID, 1))
	stored := n.clone()
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.nodes[id] = stored
	m.nodeByIdentifier[n.Identifier] = id
	return id, nil
}

func (m *MemoryEngine) GetNode(id NodeID) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, storeErr("get_node", ErrNotFound)
	}
	return n.clone(), nil
}

func (m *MemoryEngine) DeleteNode(id NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return storeErr("delete_node", ErrNotFound)
	}
	delete(m.nodes, id)
	delete(m.nodeByIdentifier, n.Identifier)

	// Cascade: any edge touching this endpoint, and any cache row keyed on
	// it or carrying it in its edge_path, is removed — spec §3's ON DELETE
	// CASCADE for edges and the inference cache.
	var removedEdges []EdgeID
	for eid, e := range m.edges {
		if e.From == id || e.To == id {
			delete(m.edges, eid)
			delete(m.edgeByKey, edgeMapKey(e.From, e.To, e.Type))
			removedEdges = append(removedEdges, eid)
		}
	}
	m.invalidateCacheForNodesLocked([]NodeID{id})
	m.invalidateCacheForEdgesLocked(removedEdges)
	return nil
}

func (m *MemoryEngine) UpsertEdge(e *Edge) (EdgeID, error) {
	if e == nil || e.Type == "" {
		return 0, storeErr("upsert_edge", ErrInvalidData)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, storeErr("upsert_edge", ErrStorageClosed)
	}
	if _, ok := m.nodes[e.From]; !ok {
		return 0, storeErr("upsert_edge", ErrInvalidEdge)
	}
	if _, ok := m.nodes[e.To]; !ok {
		return 0, storeErr("upsert_edge", ErrInvalidEdge)
	}
	if _, ok := m.edgeTypes[e.Type]; !ok {
		return 0, storeErr("upsert_edge", ErrUnknownEdgeType)
	}

	now := time.Now()
	key := edgeMapKey(e.From, e.To, e.Type)
	if id, ok := m.edgeByKey[key]; ok {
		existing := m.edges[id]
		updated := e.clone()
		updated.ID = id
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		m.edges[id] = updated
		m.invalidateCacheForNodesLocked([]NodeID{e.From, e.To})
		m.invalidateCacheForEdgesLocked([]EdgeID{id})
		return id, nil
	}

	id := EdgeID(atomic.AddInt64(&m.nextEdgeID, 1))
	stored := e.clone()
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.edges[id] = stored
	m.edgeByKey[key] = id
	m.invalidateCacheForNodesLocked([]NodeID{e.From, e.To})
	return id, nil
}

func (m *MemoryEngine) GetEdge(id EdgeID) (*Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.edges[id]
	if !ok {
		return nil, storeErr("get_edge", ErrNotFound)
	}
	return e.clone(), nil
}

func (m *MemoryEngine) DeleteEdge(id EdgeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.edges[id]
	if !ok {
		return storeErr("delete_edge", ErrNotFound)
	}
	delete(m.edges, id)
	delete(m.edgeByKey, edgeMapKey(e.From, e.To, e.Type))
	m.invalidateCacheForNodesLocked([]NodeID{e.From, e.To})
	m.invalidateCacheForEdgesLocked([]EdgeID{id})
	return nil
}

func matchesAny(needle string, haystack []string) bool {
	if len(haystack) == 0 {
		return true
	}
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func (m *MemoryEngine) FindNodes(filter NodeFilter) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Node
	for _, n := range m.nodes {
		if !matchesAny(n.Kind, filter.Kinds) {
			continue
		}
		if filter.Language != "" && n.Language != filter.Language {
			continue
		}
		if !matchesAny(n.SourceFile, filter.SourceFiles) {
			continue
		}
		if !matchesAny(n.Name, filter.Names) {
			continue
		}
		if filter.IdentifierContains != "" && !strings.Contains(n.Identifier, filter.IdentifierContains) {
			continue
		}
		out = append(out, n.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryEngine) FindEdges(filter EdgeFilter) ([]*Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Edge
	for _, e := range m.edges {
		if !matchesAny(e.Type, filter.Types) {
			continue
		}
		if filter.FromNode != nil && e.From != *filter.FromNode {
			continue
		}
		if filter.ToNode != nil && e.To != *filter.ToNode {
			continue
		}
		if !matchesAny(e.SourceFile, filter.SourceFiles) {
			continue
		}
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryEngine) DependenciesOf(id NodeID, edgeTypes []string) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[NodeID]bool{}
	var out []*Node
	for _, e := range m.edges {
		if e.From != id || !matchesAny(e.Type, edgeTypes) {
			continue
		}
		if seen[e.To] {
			continue
		}
		if n, ok := m.nodes[e.To]; ok {
			seen[e.To] = true
			out = append(out, n.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryEngine) DependentsOf(id NodeID, edgeTypes []string) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[NodeID]bool{}
	var out []*Node
	for _, e := range m.edges {
		if e.To != id || !matchesAny(e.Type, edgeTypes) {
			continue
		}
		if seen[e.From] {
			continue
		}
		if n, ok := m.nodes[e.From]; ok {
			seen[e.From] = true
			out = append(out, n.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CleanupBySourceAndTypes deletes every edge whose SourceFile equals
// sourceFile AND whose Type is in types — never edges matching only one
// of the two conditions. This is the idempotent-reingestion contract an
// analyzer relies on to re-scope its own output without touching edges
// owned by a different analyzer or a different file.
func (m *MemoryEngine) CleanupBySourceAndTypes(sourceFile string, types []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	var toDelete []EdgeID
	var affected []NodeID
	for id, e := range m.edges {
		if e.SourceFile == sourceFile && typeSet[e.Type] {
			toDelete = append(toDelete, id)
		}
	}
	for _, id := range toDelete {
		e := m.edges[id]
		delete(m.edges, id)
		delete(m.edgeByKey, edgeMapKey(e.From, e.To, e.Type))
		affected = append(affected, e.From, e.To)
	}
	if len(affected) > 0 {
		m.invalidateCacheForNodesLocked(affected)
	}
	if len(toDelete) > 0 {
		m.invalidateCacheForEdgesLocked(toDelete)
	}
	return len(toDelete), nil
}

func (m *MemoryEngine) RegisterEdgeType(def EdgeTypeDef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edgeTypes[def.Type] = def
	return nil
}

func (m *MemoryEngine) EdgeTypeDefs() ([]EdgeTypeDef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]EdgeTypeDef, 0, len(m.edgeTypes))
	for _, d := range m.edgeTypes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (m *MemoryEngine) GetCacheEntry(from, to NodeID, inferredType string) (*CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.cache[cacheMapKey(from, to, inferredType)]
	if !ok {
		return nil, false, nil
	}
	cp := *e
	return &cp, true, nil
}

func (m *MemoryEngine) PutCacheEntry(entry *CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.cache[cacheMapKey(entry.From, entry.To, entry.InferredType)] = &cp
	return nil
}

func (m *MemoryEngine) InvalidateCacheForNodes(ids []NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateCacheForNodesLocked(ids)
	return nil
}

// invalidateCacheForNodesLocked drops every cache row touching either
// endpoint in ids. This is a sound over-approximation: it may discard rows
// that remain valid, but it never leaves a stale derived edge behind.
func (m *MemoryEngine) invalidateCacheForNodesLocked(ids []NodeID) {
	affected := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		affected[id] = true
	}
	for key, e := range m.cache {
		if affected[e.From] || affected[e.To] {
			delete(m.cache, key)
		}
	}
}

func (m *MemoryEngine) InvalidateCacheForEdges(edgeIDs []EdgeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateCacheForEdgesLocked(edgeIDs)
	return nil
}

// invalidateCacheForEdgesLocked drops every cache row whose EdgePath
// includes any of edgeIDs. A derivation cached at depth >= 2 survives a
// node-only invalidation of its interior hops (the intermediate node is
// untouched, only the edge between two other nodes mutated); this is the
// path-aware half of cache coherence that invalidateCacheForNodesLocked
// alone cannot provide.
func (m *MemoryEngine) invalidateCacheForEdgesLocked(edgeIDs []EdgeID) {
	if len(edgeIDs) == 0 {
		return
	}
	affected := make(map[EdgeID]bool, len(edgeIDs))
	for _, id := range edgeIDs {
		affected[id] = true
	}
	for key, e := range m.cache {
		for _, hop := range e.EdgePath {
			if affected[hop] {
				delete(m.cache, key)
				break
			}
		}
	}
}

func (m *MemoryEngine) ClearCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*CacheEntry)
	return nil
}

func (m *MemoryEngine) Statistics() (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &Stats{
		NodesByKind: make(map[string]int64),
		EdgesByType: make(map[string]int64),
	}
	for _, n := range m.nodes {
		s.NodesByKind[n.Kind]++
		s.TotalNodes++
	}
	for _, e := range m.edges {
		s.EdgesByType[e.Type]++
		s.TotalEdges++
	}
	return s, nil
}

func (m *MemoryEngine) AllNodes() ([]*Node, error) {
	return m.FindNodes(NodeFilter{})
}

func (m *MemoryEngine) AllEdges() ([]*Edge, error) {
	return m.FindEdges(EdgeFilter{})
}

func (m *MemoryEngine) NodeCount() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.nodes)), nil
}

func (m *MemoryEngine) EdgeCount() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.edges)), nil
}

func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
