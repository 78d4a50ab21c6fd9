package graph

import (
	"sync"
)

// Store wraps an Engine with the single-writer/many-reader discipline from
// spec §5 (any write blocks until prior reads finish; reads never block
// each other). Other invariants, such as an edge only being upserted
// against a type already present in the edge-type table, are checked by
// the Engine implementations themselves; Store passes their errors through.
//
// This mirrors the teacher's own layering — a thin, swappable Engine
// underneath, and a single exported entry point on top that every caller
// (the inference engine, the analyzer, the CLI) actually uses.
type Store struct {
	mu     sync.RWMutex
	engine Engine
}

// NewStore wraps engine. Ownership of engine transfers to the Store;
// callers should not use engine directly afterward.
func NewStore(engine Engine) *Store {
	return &Store{engine: engine}
}

// UpsertNode inserts or merges a node by its Identifier (spec §4.3).
func (s *Store) UpsertNode(n *Node) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.UpsertNode(n)
}

// UpsertEdge inserts or merges an edge by its (From, To, Type) key. It
// returns ErrUnknownEdgeType if Type has not been registered with
// RegisterEdgeType — an edge can never silently create its own type.
func (s *Store) UpsertEdge(e *Edge) (EdgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.UpsertEdge(e)
}

func (s *Store) GetNode(id NodeID) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetNode(id)
}

func (s *Store) GetEdge(id EdgeID) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetEdge(id)
}

// DeleteNode removes a node and, per spec §3's ON DELETE CASCADE, every
// edge touching it and every inference-cache row keyed on it.
func (s *Store) DeleteNode(id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.DeleteNode(id)
}

func (s *Store) DeleteEdge(id EdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.DeleteEdge(id)
}

func (s *Store) FindNodes(filter NodeFilter) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.FindNodes(filter)
}

func (s *Store) FindEdges(filter EdgeFilter) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.FindEdges(filter)
}

// DependenciesOf returns the distinct nodes id points to via any edge
// whose Type is in edgeTypes (all types, if edgeTypes is empty).
func (s *Store) DependenciesOf(id NodeID, edgeTypes []string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DependenciesOf(id, edgeTypes)
}

// DependentsOf returns the distinct nodes pointing at id.
func (s *Store) DependentsOf(id NodeID, edgeTypes []string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DependentsOf(id, edgeTypes)
}

// CleanupBySourceAndTypes deletes edges matching both sourceFile and one
// of types — the contract an analyzer's re-ingestion relies on to remove
// its own stale output without touching another analyzer's edges or
// another file's edges (spec §4.5).
func (s *Store) CleanupBySourceAndTypes(sourceFile string, types []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.CleanupBySourceAndTypes(sourceFile, types)
}

// RegisterEdgeType persists an edge-type definition so edges of that type
// can be upserted. Callers normally drive this from
// edgetype.Registry.TypesRequiringPersistence() at startup, not ad hoc.
func (s *Store) RegisterEdgeType(def EdgeTypeDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RegisterEdgeType(def)
}

func (s *Store) EdgeTypeDefs() ([]EdgeTypeDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.EdgeTypeDefs()
}

func (s *Store) GetCacheEntry(from, to NodeID, inferredType string) (*CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetCacheEntry(from, to, inferredType)
}

func (s *Store) PutCacheEntry(entry *CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.PutCacheEntry(entry)
}

// InvalidateCacheForNodes drops every cache row touching any of ids. It is
// a sound over-approximation of "rows this write could have affected",
// per spec §4.4's endpoint-based invalidation rule.
func (s *Store) InvalidateCacheForNodes(ids []NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.InvalidateCacheForNodes(ids)
}

// InvalidateCacheForEdges drops every cache row whose EdgePath includes any
// of edgeIDs — the path-aware half of invalidation, needed once a
// derivation's depth exceeds 2 and an interior hop can mutate without
// touching either of the derived row's own endpoints.
func (s *Store) InvalidateCacheForEdges(edgeIDs []EdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.InvalidateCacheForEdges(edgeIDs)
}

// ClearCache drops the entire inference cache. Callers use this when an
// edge type's IsTransitive/IsInheritable flags change, since any cached
// row derived from the old flags is now meaningless.
func (s *Store) ClearCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ClearCache()
}

func (s *Store) Statistics() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Statistics()
}

func (s *Store) AllNodes() ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.AllNodes()
}

func (s *Store) AllEdges() ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.AllEdges()
}

func (s *Store) NodeCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.NodeCount()
}

func (s *Store) EdgeCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.EdgeCount()
}

// Close releases the underlying Engine's resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Close()
}
