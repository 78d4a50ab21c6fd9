package analyzer

import (
	"context"
	"encoding/hex"
	"errors"
	"math"
	"path"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/mineclover/depgraph/pkg/graph"
	"github.com/mineclover/depgraph/pkg/ident"
	"github.com/mineclover/depgraph/pkg/logx"
)

// OwnedEdgeTypes are the edge types this analyzer exclusively produces.
// Analyze's cleanup step only ever deletes edges of these types, so two
// analyzers scanning the same file for different relationships never
// step on each other's output.
var OwnedEdgeTypes = []string{"imports_file", "imports_library"}

// Analyzer turns parsed import lists into graph nodes and edges.
type Analyzer struct {
	store    *graph.Store
	resolver Resolver
	log      *logx.Logger
}

// New builds an Analyzer writing to store and resolving import targets
// against resolver.
func New(store *graph.Store, resolver Resolver) *Analyzer {
	return &Analyzer{store: store, resolver: resolver, log: logx.Default}
}

var errReadNotSupported = errors.New("resolver does not support reading file contents")

// Analyze runs the five-step ingestion pipeline for one file:
//  1. delete this file's previously-owned imports_file/imports_library edges
//  2. upsert the file's own node
//  3. resolve each import to a target (file or library)
//  4. upsert the target node and the edge, with its computed weight
//  5. assemble the result, recording anything that didn't resolve
//
// Re-running Analyze for the same ImportSource is idempotent: step 1
// guarantees stale edges from a deleted import never linger.
func (a *Analyzer) Analyze(ctx context.Context, src ImportSource) (*Result, error) {
	if _, err := a.store.CleanupBySourceAndTypes(src.SourceFile, OwnedEdgeTypes); err != nil {
		return nil, &AnalyzerError{File: src.SourceFile, Op: "cleanup", Err: err}
	}

	fileID, err := a.upsertFileNode(src)
	if err != nil {
		return nil, &AnalyzerError{File: src.SourceFile, Op: "upsert_file_node", Err: err}
	}

	result := &Result{SourceFile: src.SourceFile, CreatedNodes: 1, Stats: map[string]int{}}

	for _, imp := range src.Imports {
		if ctxDone(ctx) {
			break
		}
		target := resolve(src, imp, a.resolver)
		if !target.isLibrary && !target.found {
			result.MissingLinks = append(result.MissingLinks, MissingLink{
				SourceFile: src.SourceFile, Target: imp.Target,
				Type: MissingLinkFileNotFound, Reason: "no matching file on disk",
			})
			result.Stats["missing"]++
			continue
		}

		var (
			targetID graph.NodeID
			edgeType string
		)
		if target.isLibrary {
			targetID, err = a.store.UpsertNode(&graph.Node{
				Identifier: ident.LibraryID(target.name),
				Kind:       "library",
				Name:       target.name,
			})
			edgeType = "imports_library"
		} else {
			targetID, err = a.store.UpsertNode(&graph.Node{
				Identifier: ident.FileID(target.path, src.Root),
				Kind:       "file",
				Name:       path.Base(target.path),
				SourceFile: target.path,
				Language:   src.Language,
			})
			edgeType = "imports_file"
		}
		if err != nil {
			return nil, &AnalyzerError{File: src.SourceFile, Op: "upsert_target_node", Err: err}
		}
		result.CreatedNodes++

		if _, err := a.store.UpsertEdge(&graph.Edge{
			From:       fileID,
			To:         targetID,
			Type:       edgeType,
			Label:      imp.Target,
			Weight:     importWeight(imp),
			SourceFile: src.SourceFile,
		}); err != nil {
			return nil, &AnalyzerError{File: src.SourceFile, Op: "upsert_edge", Err: err}
		}
		result.CreatedEdges++
		result.Stats[edgeType]++
	}

	return result, nil
}

func (a *Analyzer) upsertFileNode(src ImportSource) (graph.NodeID, error) {
	meta := map[string]any{
		"exists":        a.resolver.Exists(src.SourceFile),
		"relative_path": src.SourceFile,
		"last_analyzed": time.Now().UTC().Format(time.RFC3339),
	}
	if hash, err := a.contentHash(src.SourceFile); err == nil {
		meta["content_hash"] = hash
	}
	return a.store.UpsertNode(&graph.Node{
		Identifier: ident.FileID(src.SourceFile, src.Root),
		Kind:       "file",
		Name:       path.Base(src.SourceFile),
		SourceFile: src.SourceFile,
		Language:   src.Language,
		Metadata:   meta,
	})
}

// contentHash computes a blake2b-256 fingerprint of the file's contents,
// used by callers to detect an unchanged file and skip re-parsing it
// upstream of Analyze. Resolvers that can't read contents (e.g. a fake
// used in a unit test that only simulates existence) simply opt out.
func (a *Analyzer) contentHash(sourceFile string) (string, error) {
	data, err := a.resolver.ReadFile(sourceFile)
	if err != nil {
		return "", errReadNotSupported
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// importWeight implements the documented edge-weight formula: a base of
// 1, plus 0.1 per named import item, plus a bonus for how committed the
// import kind is to a specific target, plus a bonus if any item is the
// module's default export — rounded to one decimal place.
func importWeight(imp Import) float64 {
	var kindBonus float64
	switch imp.Kind {
	case KindRelative:
		kindBonus = 2.0
	case KindAbsolute:
		kindBonus = 1.5
	case KindLibrary:
		kindBonus = 0.5
	case KindBuiltin:
		kindBonus = 0.1
	}

	var defaultBonus float64
	for _, item := range imp.Items {
		if item.IsDefault {
			defaultBonus = 0.5
			break
		}
	}

	w := 1 + 0.1*float64(len(imp.Items)) + kindBonus + defaultBonus
	return math.Round(w*10) / 10
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
