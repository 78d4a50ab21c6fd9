package graph

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for the BadgerDB key space. Single-byte prefixes keep scans
// cheap: every table is a contiguous range under its own prefix byte.
const (
	prefixNode       = byte(0x01) // node:nodeID -> JSON(Node)
	prefixEdge       = byte(0x02) // edge:edgeID -> JSON(Edge)
	prefixEdgeType   = byte(0x03) // edgeType:name -> JSON(EdgeTypeDef)
	prefixCache      = byte(0x04) // cache:from:to:inferredType -> JSON(CacheEntry)
	prefixIdentIndex = byte(0x05) // identIndex:identifier -> nodeID
	prefixOutIndex   = byte(0x06) // out:nodeID:edgeID -> {}
	prefixInIndex    = byte(0x07) // in:nodeID:edgeID -> {}
	prefixCounters   = byte(0x08) // counters:"node"|"edge" -> next id
)

// BadgerEngine is the persistent Engine backed by BadgerDB. It carries the
// same key-prefix discipline the teacher's storage layer uses, widened
// with an edge-type table and an inference-cache table the original
// engine had no need for.
type BadgerEngine struct {
	db *badger.DB
	mu sync.Mutex // serializes the id-counter read-modify-write
}

// BadgerOptions configures the on-disk engine.
type BadgerOptions struct {
	DataDir    string
	InMemory   bool
	SyncWrites bool
}

// NewBadgerEngine opens a persistent engine rooted at dataDir.
func NewBadgerEngine(dataDir string) (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{DataDir: dataDir})
}

// NewBadgerEngineInMemory opens a Badger-backed engine with no disk
// footprint, useful for tests that want BadgerEngine's exact encoding path
// without tmp-directory bookkeeping.
func NewBadgerEngineInMemory() (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{InMemory: true})
}

// NewBadgerEngineWithOptions opens an engine with full control over the
// underlying BadgerDB options.
func NewBadgerEngineWithOptions(opts BadgerOptions) (*BadgerEngine, error) {
	bopts := badger.DefaultOptions(opts.DataDir)
	bopts = bopts.WithInMemory(opts.InMemory).WithSyncWrites(opts.SyncWrites).WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, storeErr("open", err)
	}
	return &BadgerEngine{db: db}, nil
}

func nodeKey(id NodeID) []byte {
	k := make([]byte, 9)
	k[0] = prefixNode
	binary.BigEndian.PutUint64(k[1:], uint64(id))
	return k
}

func edgeKey(id EdgeID) []byte {
	k := make([]byte, 9)
	k[0] = prefixEdge
	binary.BigEndian.PutUint64(k[1:], uint64(id))
	return k
}

func edgeTypeKey(t string) []byte {
	return append([]byte{prefixEdgeType}, []byte(t)...)
}

func cacheKey(from, to NodeID, inferredType string) []byte {
	return []byte(fmt.Sprintf("%c%d:%d:%s", prefixCache, from, to, inferredType))
}

func identIndexKey(identifier string) []byte {
	return append([]byte{prefixIdentIndex}, []byte(identifier)...)
}

func outIndexKey(nodeID NodeID, edgeID EdgeID) []byte {
	k := make([]byte, 17)
	k[0] = prefixOutIndex
	binary.BigEndian.PutUint64(k[1:9], uint64(nodeID))
	binary.BigEndian.PutUint64(k[9:], uint64(edgeID))
	return k
}

func outIndexPrefix(nodeID NodeID) []byte {
	k := make([]byte, 9)
	k[0] = prefixOutIndex
	binary.BigEndian.PutUint64(k[1:], uint64(nodeID))
	return k
}

func inIndexKey(nodeID NodeID, edgeID EdgeID) []byte {
	k := make([]byte, 17)
	k[0] = prefixInIndex
	binary.BigEndian.PutUint64(k[1:9], uint64(nodeID))
	binary.BigEndian.PutUint64(k[9:], uint64(edgeID))
	return k
}

func inIndexPrefix(nodeID NodeID) []byte {
	k := make([]byte, 9)
	k[0] = prefixInIndex
	binary.BigEndian.PutUint64(k[1:], uint64(nodeID))
	return k
}

func counterKey(name string) []byte {
	return append([]byte{prefixCounters}, []byte(name)...)
}

func extractID64(key []byte, offset int) int64 {
	return int64(binary.BigEndian.Uint64(key[offset : offset+8]))
}

func (b *BadgerEngine) nextID(txn *badger.Txn, name string) (int64, error) {
	key := counterKey(name)
	var cur int64
	item, err := txn.Get(key)
	if err == nil {
		if verr := item.Value(func(val []byte) error {
			cur = int64(binary.BigEndian.Uint64(val))
			return nil
		}); verr != nil {
			return 0, verr
		}
	} else if err != badger.ErrKeyNotFound {
		return 0, err
	}
	cur++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(cur))
	if err := txn.Set(key, buf); err != nil {
		return 0, err
	}
	return cur, nil
}

func (b *BadgerEngine) UpsertNode(n *Node) (NodeID, error) {
	if n == nil || n.Identifier == "" {
		return 0, storeErr("upsert_node", ErrInvalidData)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var id NodeID
	err := b.db.Update(func(txn *badger.Txn) error {
		now := time.Now()
		if item, err := txn.Get(identIndexKey(n.Identifier)); err == nil {
			var existingID int64
			if verr := item.Value(func(val []byte) error {
				existingID = int64(binary.BigEndian.Uint64(val))
				return nil
			}); verr != nil {
				return verr
			}
			id = NodeID(existingID)

			existing, err := b.getNodeTxn(txn, id)
			if err != nil {
				return err
			}
			updated := n.clone()
			updated.ID = id
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = now
			return b.putNodeTxn(txn, updated)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		newID, err := b.nextID(txn, "node")
		if err != nil {
			return err
		}
		id = NodeID(newID)
		stored := n.clone()
		stored.ID = id
		stored.CreatedAt = now
		stored.UpdatedAt = now
		if err := b.putNodeTxn(txn, stored); err != nil {
			return err
		}
		idBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(idBuf, uint64(id))
		return txn.Set(identIndexKey(n.Identifier), idBuf)
	})
	if err != nil {
		return 0, storeErr("upsert_node", err)
	}
	return id, nil
}

func (b *BadgerEngine) putNodeTxn(txn *badger.Txn, n *Node) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return txn.Set(nodeKey(n.ID), data)
}

func (b *BadgerEngine) getNodeTxn(txn *badger.Txn, id NodeID) (*Node, error) {
	item, err := txn.Get(nodeKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var n Node
	if verr := item.Value(func(val []byte) error { return json.Unmarshal(val, &n) }); verr != nil {
		return nil, verr
	}
	return &n, nil
}

func (b *BadgerEngine) GetNode(id NodeID) (*Node, error) {
	var n *Node
	err := b.db.View(func(txn *badger.Txn) error {
		got, err := b.getNodeTxn(txn, id)
		if err != nil {
			return err
		}
		n = got
		return nil
	})
	if err != nil {
		return nil, storeErr("get_node", err)
	}
	return n, nil
}

func (b *BadgerEngine) DeleteNode(id NodeID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.db.Update(func(txn *badger.Txn) error {
		n, err := b.getNodeTxn(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(identIndexKey(n.Identifier)); err != nil {
			return err
		}
		if err := txn.Delete(nodeKey(id)); err != nil {
			return err
		}
		outRemoved, err := b.deleteEdgesWithIndexTxn(txn, outIndexPrefix(id))
		if err != nil {
			return err
		}
		inRemoved, err := b.deleteEdgesWithIndexTxn(txn, inIndexPrefix(id))
		if err != nil {
			return err
		}
		if err := b.invalidateCacheTxn(txn, map[NodeID]bool{id: true}); err != nil {
			return err
		}
		return b.invalidateCacheByEdgesTxn(txn, append(outRemoved, inRemoved...))
	})
	if err != nil {
		return storeErr("delete_node", err)
	}
	return nil
}

func (b *BadgerEngine) deleteEdgesWithIndexTxn(txn *badger.Txn, prefix []byte) ([]EdgeID, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var edgeIDs []EdgeID
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		edgeIDs = append(edgeIDs, EdgeID(extractID64(key, 9)))
	}
	for _, eid := range edgeIDs {
		if err := b.deleteEdgeTxn(txn, eid); err != nil && err != badger.ErrKeyNotFound {
			return nil, err
		}
	}
	return edgeIDs, nil
}

func (b *BadgerEngine) UpsertEdge(e *Edge) (EdgeID, error) {
	if e == nil || e.Type == "" {
		return 0, storeErr("upsert_edge", ErrInvalidData)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var id EdgeID
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := b.getNodeTxn(txn, e.From); err != nil {
			return ErrInvalidEdge
		}
		if _, err := b.getNodeTxn(txn, e.To); err != nil {
			return ErrInvalidEdge
		}
		if _, err := txn.Get(edgeTypeKey(e.Type)); err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrUnknownEdgeType
			}
			return err
		}

		existingID, found, err := b.findEdgeByKeyTxn(txn, e.From, e.To, e.Type)
		if err != nil {
			return err
		}
		now := time.Now()
		if found {
			existing, err := b.getEdgeTxn(txn, existingID)
			if err != nil {
				return err
			}
			updated := e.clone()
			updated.ID = existingID
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = now
			id = existingID
			if err := b.putEdgeTxn(txn, updated); err != nil {
				return err
			}
			if err := b.invalidateCacheTxn(txn, map[NodeID]bool{e.From: true, e.To: true}); err != nil {
				return err
			}
			return b.invalidateCacheByEdgesTxn(txn, []EdgeID{existingID})
		}

		newID, err := b.nextID(txn, "edge")
		if err != nil {
			return err
		}
		id = EdgeID(newID)
		stored := e.clone()
		stored.ID = id
		stored.CreatedAt = now
		stored.UpdatedAt = now
		if err := b.putEdgeTxn(txn, stored); err != nil {
			return err
		}
		if err := txn.Set(outIndexKey(e.From, id), []byte{}); err != nil {
			return err
		}
		if err := txn.Set(inIndexKey(e.To, id), []byte{}); err != nil {
			return err
		}
		return b.invalidateCacheTxn(txn, map[NodeID]bool{e.From: true, e.To: true})
	})
	if err != nil {
		return 0, storeErr("upsert_edge", err)
	}
	return id, nil
}

func (b *BadgerEngine) findEdgeByKeyTxn(txn *badger.Txn, from, to NodeID, edgeType string) (EdgeID, bool, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := outIndexPrefix(from)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		eid := EdgeID(extractID64(key, 9))
		e, err := b.getEdgeTxn(txn, eid)
		if err != nil {
			return 0, false, err
		}
		if e.To == to && e.Type == edgeType {
			return eid, true, nil
		}
	}
	return 0, false, nil
}

func (b *BadgerEngine) putEdgeTxn(txn *badger.Txn, e *Edge) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return txn.Set(edgeKey(e.ID), data)
}

func (b *BadgerEngine) getEdgeTxn(txn *badger.Txn, id EdgeID) (*Edge, error) {
	item, err := txn.Get(edgeKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var e Edge
	if verr := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); verr != nil {
		return nil, verr
	}
	return &e, nil
}

func (b *BadgerEngine) GetEdge(id EdgeID) (*Edge, error) {
	var e *Edge
	err := b.db.View(func(txn *badger.Txn) error {
		got, err := b.getEdgeTxn(txn, id)
		if err != nil {
			return err
		}
		e = got
		return nil
	})
	if err != nil {
		return nil, storeErr("get_edge", err)
	}
	return e, nil
}

func (b *BadgerEngine) deleteEdgeTxn(txn *badger.Txn, id EdgeID) error {
	e, err := b.getEdgeTxn(txn, id)
	if err != nil {
		return err
	}
	if err := txn.Delete(edgeKey(id)); err != nil {
		return err
	}
	if err := txn.Delete(outIndexKey(e.From, id)); err != nil {
		return err
	}
	return txn.Delete(inIndexKey(e.To, id))
}

func (b *BadgerEngine) DeleteEdge(id EdgeID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.db.Update(func(txn *badger.Txn) error {
		e, err := b.getEdgeTxn(txn, id)
		if err != nil {
			return err
		}
		if err := b.deleteEdgeTxn(txn, id); err != nil {
			return err
		}
		if err := b.invalidateCacheTxn(txn, map[NodeID]bool{e.From: true, e.To: true}); err != nil {
			return err
		}
		return b.invalidateCacheByEdgesTxn(txn, []EdgeID{id})
	})
	if err != nil {
		return storeErr("delete_edge", err)
	}
	return nil
}

func (b *BadgerEngine) FindNodes(filter NodeFilter) ([]*Node, error) {
	var out []*Node
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixNode}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n Node
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
				return err
			}
			if !matchesAny(n.Kind, filter.Kinds) ||
				(filter.Language != "" && n.Language != filter.Language) ||
				!matchesAny(n.SourceFile, filter.SourceFiles) ||
				!matchesAny(n.Name, filter.Names) ||
				(filter.IdentifierContains != "" && !strings.Contains(n.Identifier, filter.IdentifierContains)) {
				continue
			}
			cp := n
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("find_nodes", err)
	}
	return out, nil
}

func (b *BadgerEngine) FindEdges(filter EdgeFilter) ([]*Edge, error) {
	var out []*Edge
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixEdge}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e Edge
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return err
			}
			if !matchesAny(e.Type, filter.Types) ||
				(filter.FromNode != nil && e.From != *filter.FromNode) ||
				(filter.ToNode != nil && e.To != *filter.ToNode) ||
				!matchesAny(e.SourceFile, filter.SourceFiles) {
				continue
			}
			cp := e
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("find_edges", err)
	}
	return out, nil
}

func (b *BadgerEngine) DependenciesOf(id NodeID, edgeTypes []string) ([]*Node, error) {
	var out []*Node
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := outIndexPrefix(id)
		seen := map[NodeID]bool{}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			eid := EdgeID(extractID64(it.Item().KeyCopy(nil), 9))
			e, err := b.getEdgeTxn(txn, eid)
			if err != nil {
				return err
			}
			if !matchesAny(e.Type, edgeTypes) || seen[e.To] {
				continue
			}
			n, err := b.getNodeTxn(txn, e.To)
			if err != nil {
				return err
			}
			seen[e.To] = true
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("dependencies_of", err)
	}
	return out, nil
}

func (b *BadgerEngine) DependentsOf(id NodeID, edgeTypes []string) ([]*Node, error) {
	var out []*Node
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := inIndexPrefix(id)
		seen := map[NodeID]bool{}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			eid := EdgeID(extractID64(it.Item().KeyCopy(nil), 9))
			e, err := b.getEdgeTxn(txn, eid)
			if err != nil {
				return err
			}
			if !matchesAny(e.Type, edgeTypes) || seen[e.From] {
				continue
			}
			n, err := b.getNodeTxn(txn, e.From)
			if err != nil {
				return err
			}
			seen[e.From] = true
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("dependents_of", err)
	}
	return out, nil
}

func (b *BadgerEngine) CleanupBySourceAndTypes(sourceFile string, types []string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	count := 0
	err := b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := []byte{prefixEdge}
		var toDelete []EdgeID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e Edge
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				it.Close()
				return err
			}
			if e.SourceFile == sourceFile && typeSet[e.Type] {
				toDelete = append(toDelete, e.ID)
			}
		}
		it.Close()
		affected := make(map[NodeID]bool, len(toDelete)*2)
		for _, id := range toDelete {
			e, err := b.getEdgeTxn(txn, id)
			if err != nil {
				return err
			}
			affected[e.From] = true
			affected[e.To] = true
			if err := b.deleteEdgeTxn(txn, id); err != nil {
				return err
			}
		}
		count = len(toDelete)
		if len(affected) > 0 {
			if err := b.invalidateCacheTxn(txn, affected); err != nil {
				return err
			}
		}
		if len(toDelete) > 0 {
			return b.invalidateCacheByEdgesTxn(txn, toDelete)
		}
		return nil
	})
	if err != nil {
		return 0, storeErr("cleanup_by_source_and_types", err)
	}
	return count, nil
}

func (b *BadgerEngine) RegisterEdgeType(def EdgeTypeDef) error {
	data, err := json.Marshal(def)
	if err != nil {
		return storeErr("register_edge_type", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error { return txn.Set(edgeTypeKey(def.Type), data) })
	if err != nil {
		return storeErr("register_edge_type", err)
	}
	return nil
}

func (b *BadgerEngine) EdgeTypeDefs() ([]EdgeTypeDef, error) {
	var out []EdgeTypeDef
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixEdgeType}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var def EdgeTypeDef
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &def) }); err != nil {
				return err
			}
			out = append(out, def)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("edge_type_defs", err)
	}
	return out, nil
}

func (b *BadgerEngine) GetCacheEntry(from, to NodeID, inferredType string) (*CacheEntry, bool, error) {
	var entry *CacheEntry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(from, to, inferredType))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		var e CacheEntry
		if verr := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); verr != nil {
			return verr
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, false, storeErr("get_cache_entry", err)
	}
	return entry, entry != nil, nil
}

func (b *BadgerEngine) PutCacheEntry(entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return storeErr("put_cache_entry", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(entry.From, entry.To, entry.InferredType), data)
	})
	if err != nil {
		return storeErr("put_cache_entry", err)
	}
	return nil
}

func (b *BadgerEngine) invalidateCacheTxn(txn *badger.Txn, affected map[NodeID]bool) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	prefix := []byte{prefixCache}
	var toDelete [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var e CacheEntry
		if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
			it.Close()
			return err
		}
		if affected[e.From] || affected[e.To] {
			toDelete = append(toDelete, it.Item().KeyCopy(nil))
		}
	}
	it.Close()
	for _, k := range toDelete {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// invalidateCacheByEdgesTxn drops every cache row whose EdgePath contains
// one of edgeIDs, mirroring invalidateCacheTxn's endpoint-based scan but
// keying on path membership — the half of cache coherence that survives
// mutating an interior hop of a depth >= 2 derivation.
func (b *BadgerEngine) invalidateCacheByEdgesTxn(txn *badger.Txn, edgeIDs []EdgeID) error {
	if len(edgeIDs) == 0 {
		return nil
	}
	affected := make(map[EdgeID]bool, len(edgeIDs))
	for _, id := range edgeIDs {
		affected[id] = true
	}
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	prefix := []byte{prefixCache}
	var toDelete [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var e CacheEntry
		if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
			it.Close()
			return err
		}
		for _, hop := range e.EdgePath {
			if affected[hop] {
				toDelete = append(toDelete, it.Item().KeyCopy(nil))
				break
			}
		}
	}
	it.Close()
	for _, k := range toDelete {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (b *BadgerEngine) InvalidateCacheForEdges(edgeIDs []EdgeID) error {
	err := b.db.Update(func(txn *badger.Txn) error { return b.invalidateCacheByEdgesTxn(txn, edgeIDs) })
	if err != nil {
		return storeErr("invalidate_cache_for_edges", err)
	}
	return nil
}

func (b *BadgerEngine) InvalidateCacheForNodes(ids []NodeID) error {
	affected := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		affected[id] = true
	}
	err := b.db.Update(func(txn *badger.Txn) error { return b.invalidateCacheTxn(txn, affected) })
	if err != nil {
		return storeErr("invalidate_cache_for_nodes", err)
	}
	return nil
}

func (b *BadgerEngine) ClearCache() error {
	err := b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := []byte{prefixCache}
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr("clear_cache", err)
	}
	return nil
}

func (b *BadgerEngine) Statistics() (*Stats, error) {
	s := &Stats{NodesByKind: map[string]int64{}, EdgesByType: map[string]int64{}}
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		np := []byte{prefixNode}
		for it.Seek(np); it.ValidForPrefix(np); it.Next() {
			var n Node
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
				it.Close()
				return err
			}
			s.NodesByKind[n.Kind]++
			s.TotalNodes++
		}
		it.Close()

		it2 := txn.NewIterator(badger.DefaultIteratorOptions)
		ep := []byte{prefixEdge}
		for it2.Seek(ep); it2.ValidForPrefix(ep); it2.Next() {
			var e Edge
			if err := it2.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				it2.Close()
				return err
			}
			s.EdgesByType[e.Type]++
			s.TotalEdges++
		}
		it2.Close()
		return nil
	})
	if err != nil {
		return nil, storeErr("statistics", err)
	}
	return s, nil
}

func (b *BadgerEngine) AllNodes() ([]*Node, error) { return b.FindNodes(NodeFilter{}) }
func (b *BadgerEngine) AllEdges() ([]*Edge, error) { return b.FindEdges(EdgeFilter{}) }

func (b *BadgerEngine) NodeCount() (int64, error) {
	s, err := b.Statistics()
	if err != nil {
		return 0, err
	}
	return s.TotalNodes, nil
}

func (b *BadgerEngine) EdgeCount() (int64, error) {
	s, err := b.Statistics()
	if err != nil {
		return 0, err
	}
	return s.TotalEdges, nil
}

func (b *BadgerEngine) Close() error {
	return b.db.Close()
}
