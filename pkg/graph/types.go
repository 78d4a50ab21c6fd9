// Package graph implements the GraphStore: the persistent node/edge/cache
// tables described in spec §4.3, with upsert semantics, filtered lookup,
// analyzer-scoped cleanup, and statistics.
//
// The package splits the contract into two layers, mirroring the
// teacher's own split between storage mechanics and orchestration:
//
//   - Engine is the storage-mechanics interface. MemoryEngine and
//     BadgerEngine are the two implementations (small in-memory graphs
//     and tests vs. persistent on-disk storage).
//   - Store wraps an Engine with the single-writer/many-reader lock from
//     spec §5. The data invariants (edges may only reference existing
//     nodes and registered edge types) are enforced by each Engine.
package graph

import (
	"errors"
	"fmt"
	"time"
)

// NodeID is the store-assigned integer identity of a node, stable within
// one database.
type NodeID int64

// EdgeID is the store-assigned integer identity of an edge.
type EdgeID int64

// Common sentinel errors. Wrap with StoreError when surfacing from an
// Engine method so callers can still unwrap to the sentinel.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidData     = errors.New("invalid data")
	ErrInvalidEdge     = errors.New("invalid edge: endpoint node not found")
	ErrStorageClosed   = errors.New("storage closed")
	ErrUnknownEdgeType = errors.New("unknown edge type")
)

// StoreError wraps an Engine-layer error with the operation that produced
// it, per the AnalyzerError/StoreError taxonomy in spec §7.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// Node is an identified entity in the codebase (spec §3).
type Node struct {
	ID         NodeID
	Identifier string
	Kind       string
	Name       string
	SourceFile string // empty only when Kind == "library"
	Language   string
	Metadata   map[string]any

	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n *Node) clone() *Node {
	cp := *n
	cp.Metadata = cloneMetadata(n.Metadata)
	return &cp
}

// Edge is a typed directed relationship between two nodes (spec §3).
type Edge struct {
	ID         EdgeID
	From       NodeID
	To         NodeID
	Type       string
	Label      string
	Metadata   map[string]any
	Weight     float64
	SourceFile string // empty means null: no owning file

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Edge) clone() *Edge {
	cp := *e
	cp.Metadata = cloneMetadata(e.Metadata)
	return &cp
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// CacheEntry is a derived-edge row memoized by the inference engine
// (spec §3, InferenceCacheEntry). The graph package only stores and
// invalidates these rows; computing them is pkg/inference's job.
type CacheEntry struct {
	From         NodeID
	To           NodeID
	InferredType string
	EdgePath     []EdgeID
	Depth        int
	ComputedAt   time.Time
}

// NodeFilter constrains FindNodes. Zero-value fields are unconstrained.
type NodeFilter struct {
	Kinds               []string
	Language            string
	SourceFiles         []string
	Names               []string
	IdentifierContains  string
}

// EdgeFilter constrains FindEdges. Zero-value fields are unconstrained.
type EdgeFilter struct {
	Types       []string
	FromNode    *NodeID
	ToNode      *NodeID
	SourceFiles []string
}

// Stats is the result of Statistics(): counts per node kind, counts per
// edge type, and totals.
type Stats struct {
	NodesByKind map[string]int64
	EdgesByType map[string]int64
	TotalNodes  int64
	TotalEdges  int64
}

// EdgeTypeDef is the subset of edgetype.EdgeType the store needs to
// persist in its own edge_types table. It is a plain struct (rather than
// an import of pkg/edgetype) only to keep Engine implementations free of
// a dependency they don't otherwise need; pkg/depgraph is responsible for
// converting between the two.
type EdgeTypeDef struct {
	Type          string
	ParentType    string
	IsDirected    bool
	IsTransitive  bool
	IsInheritable bool
	Priority      int
}

// Engine is the storage-mechanics contract. Implementations must be
// thread-safe; Store adds the single-writer serialization on top.
type Engine interface {
	UpsertNode(n *Node) (NodeID, error)
	GetNode(id NodeID) (*Node, error)
	DeleteNode(id NodeID) error

	UpsertEdge(e *Edge) (EdgeID, error)
	GetEdge(id EdgeID) (*Edge, error)
	DeleteEdge(id EdgeID) error

	FindNodes(filter NodeFilter) ([]*Node, error)
	FindEdges(filter EdgeFilter) ([]*Edge, error)

	DependenciesOf(id NodeID, edgeTypes []string) ([]*Node, error)
	DependentsOf(id NodeID, edgeTypes []string) ([]*Node, error)

	CleanupBySourceAndTypes(sourceFile string, types []string) (int, error)

	RegisterEdgeType(def EdgeTypeDef) error
	EdgeTypeDefs() ([]EdgeTypeDef, error)

	GetCacheEntry(from, to NodeID, inferredType string) (*CacheEntry, bool, error)
	PutCacheEntry(entry *CacheEntry) error
	InvalidateCacheForNodes(ids []NodeID) error
	InvalidateCacheForEdges(edgeIDs []EdgeID) error
	ClearCache() error

	Statistics() (*Stats, error)

	AllNodes() ([]*Node, error)
	AllEdges() ([]*Edge, error)
	NodeCount() (int64, error)
	EdgeCount() (int64, error)

	Close() error
}
