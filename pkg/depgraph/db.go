// Package depgraph wires the graph store, edge-type registry, inference
// engine, and file analyzer into one entry point, the way the teacher's
// own top-level package opens a single Engine and hands callers a
// ready-to-use handle instead of making them assemble the pieces.
package depgraph

import (
	"fmt"

	"github.com/mineclover/depgraph/pkg/analyzer"
	"github.com/mineclover/depgraph/pkg/config"
	"github.com/mineclover/depgraph/pkg/edgetype"
	"github.com/mineclover/depgraph/pkg/graph"
	"github.com/mineclover/depgraph/pkg/inference"
	"github.com/mineclover/depgraph/pkg/logx"
)

// DB is the facade over a depgraph database: storage, the edge-type
// taxonomy, inference, and ingestion, opened together and closed
// together.
type DB struct {
	Store     *graph.Store
	Registry  *edgetype.Registry
	Inference *inference.Engine
	Analyzer  *analyzer.Analyzer
	Log       *logx.Logger

	cfg config.Config
}

// Open builds a DB from cfg: selects the storage engine, registers the
// predefined edge-type taxonomy in the store (further types are added
// after Open through RegisterEdgeType), and wires the analyzer to the
// configured filesystem root.
func Open(cfg config.Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logx.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = logx.LevelDebug
	case "warn":
		level = logx.LevelWarn
	case "error":
		level = logx.LevelError
	}
	log := logx.New(level)

	var engine graph.Engine
	var err error
	switch cfg.Storage.Engine {
	case "badger":
		engine, err = graph.NewBadgerEngineWithOptions(graph.BadgerOptions{
			DataDir:    cfg.Storage.DataDir,
			SyncWrites: cfg.Storage.SyncWrites,
		})
	default:
		engine = graph.NewMemoryEngine()
	}
	if err != nil {
		return nil, fmt.Errorf("depgraph: open storage: %w", err)
	}

	store := graph.NewStore(engine)
	registry := edgetype.New()
	for _, def := range registry.TypesRequiringPersistence() {
		if err := store.RegisterEdgeType(graph.EdgeTypeDef{
			Type:          def.Type,
			ParentType:    def.ParentType,
			IsDirected:    def.IsDirected,
			IsTransitive:  def.IsTransitive,
			IsInheritable: def.IsInheritable,
			Priority:      def.Priority,
		}); err != nil {
			return nil, fmt.Errorf("depgraph: register edge type %q: %w", def.Type, err)
		}
	}

	resolver := analyzer.NewFSResolver(cfg.Analyzer.Root)
	db := &DB{
		Store:     store,
		Registry:  registry,
		Inference: inference.New(store, registry),
		Analyzer:  analyzer.New(store, resolver),
		Log:       log,
		cfg:       cfg,
	}
	log.Info("depgraph opened (engine=%s root=%s)", cfg.Storage.Engine, cfg.Analyzer.Root)
	return db, nil
}

// RegisterEdgeType adds a new edge type to both the in-memory registry
// (for hierarchy validation) and the store (so edges of that type can be
// upserted). Register a type here before ingesting any edge that uses
// it, per spec §4.2/§4.3's split between catalog and persistence.
func (db *DB) RegisterEdgeType(def *edgetype.EdgeType) error {
	if err := db.Registry.Register(def); err != nil {
		return err
	}
	return db.Store.RegisterEdgeType(graph.EdgeTypeDef{
		Type:          def.Type,
		ParentType:    def.ParentType,
		IsDirected:    def.IsDirected,
		IsTransitive:  def.IsTransitive,
		IsInheritable: def.IsInheritable,
		Priority:      def.Priority,
	})
}

// Close releases the underlying storage engine.
func (db *DB) Close() error {
	return db.Store.Close()
}
