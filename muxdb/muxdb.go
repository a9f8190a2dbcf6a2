// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package muxdb is the top-level facade: it composes the engine, Mapx,
// DagMap and the MPT store behind one handle, the way the teacher's own
// muxdb package composes its backend/cache/trie trio.
package muxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/mmdb/cache"
	"github.com/vechain/mmdb/co"
	"github.com/vechain/mmdb/dagmap"
	"github.com/vechain/mmdb/engine"
	"github.com/vechain/mmdb/kv"
	"github.com/vechain/mmdb/kv/leveldb"
	"github.com/vechain/mmdb/kv/memdb"
	"github.com/vechain/mmdb/log"
	"github.com/vechain/mmdb/metrics"
	"github.com/vechain/mmdb/mpt"
)

var logger = log.New("pkg", "muxdb")

const (
	propStoreName         = "prop"
	metricsSampleInterval = 20 * time.Second
	auxStorePrefix        = "s:"
)

// MuxDB composes the storage stack's layers behind one handle: the
// physical kv.Store, the Engine built on it, the MptStore for
// versioned tries, and (optionally) a trash collector and a metrics
// sampling loop.
type MuxDB struct {
	physical kv.Store
	closer   func() error

	eng      engine.Engine
	mptStore *mpt.MptStore
	trash    *dagmap.TrashCollector
	cfg      config

	metricsLoop     *co.Choes
	done            chan struct{}
	lastCacheHits   int64
	lastCacheMisses int64
}

func open(physical kv.Store, closer func() error, opts *Options) (*MuxDB, error) {
	if opts == nil {
		opts = &Options{}
	}

	eng := engine.New(physical)
	mptStore, err := mpt.NewMptStore(eng)
	if err != nil {
		return nil, errors.Wrap(err, "muxdb: open")
	}

	cacheSize := opts.TrieNodeCacheSizeMB * 8192 // ~128B/node heuristic
	lru, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "muxdb: open")
	}
	mptStore.SetNodeCache(lru)

	db := &MuxDB{
		physical: physical,
		closer:   closer,
		eng:      eng,
		mptStore: mptStore,
		done:     make(chan struct{}),
	}

	propStore := db.NewStore(propStoreName)
	db.cfg = config{
		DedupedPtnFactor: opts.TrieDedupedPartitionFactor,
		HistPtnFactor:    opts.TrieHistPartitionFactor,
		CachedNodeTTL:    opts.TrieCachedNodeTTL,
	}
	if err := db.cfg.LoadOrSave(propStore); err != nil {
		return nil, errors.Wrap(err, "muxdb: open: load config")
	}

	if opts.TrieWillCleanHistory {
		db.trash = dagmap.NewTrashCollector()
	}

	return db, nil
}

// Open opens or creates a persistent LevelDB-backed instance at path.
func Open(path string, opts *Options) (*MuxDB, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	ldb, err := leveldb.New(path, leveldb.Options{
		CacheMB:                o.ReadCacheMB,
		WriteBufferMB:          o.WriteBufferMB,
		OpenFilesCacheCapacity: o.OpenFilesCacheCapacity,
	})
	if err != nil {
		return nil, errors.Wrap(err, "muxdb: open")
	}
	return open(ldb, ldb.Close, &o)
}

// NewMem opens an ephemeral, in-memory instance. Useful for tests and
// short-lived tooling.
func NewMem() *MuxDB {
	db, err := open(memdb.New(), func() error { return nil }, &Options{TrieNodeCacheSizeMB: 1})
	if err != nil {
		// memdb.New/cache.NewLRU cannot fail; a failure here means the
		// module itself is broken.
		panic(err)
	}
	return db
}

// NewStore returns a named, independent kv.Store namespace carved out
// of the same physical database, disjoint from the engine's own
// keyspace.
func (db *MuxDB) NewStore(name string) kv.Store {
	return kv.Bucket(auxStorePrefix + name).NewStore(db.physical)
}

// NewTrie opens a versioned trie handle bound to backendKey. An empty
// root creates a fresh empty trie (force controls whether an existing
// binding is an error or gets overwritten); a non-empty root restores
// the trie at that historical or current root.
func (db *MuxDB) NewTrie(backendKey, root []byte, force bool) (*mpt.MptOnce, error) {
	if len(root) == 0 {
		return db.mptStore.TrieCreate(backendKey, force)
	}
	return db.mptStore.TrieRestore(backendKey, root, true)
}

// SwapHead repoints backendKey at the backend that produced root.
func (db *MuxDB) SwapHead(backendKey, root []byte) error {
	return db.mptStore.TrieSwapHead(backendKey, root)
}

// RemoveTrie drops backendKey's current binding without discarding any
// history still reachable via header_set.
func (db *MuxDB) RemoveTrie(backendKey []byte) error {
	return db.mptStore.TrieRemove(backendKey)
}

// DeleteTrieHistoryNodes collapses backendKey's mainline up to root,
// destroying every sibling branch along the way — the facade's name
// for MptStore.TriePrune, matched to the teacher's naming for the
// equivalent history-collapsing operation.
func (db *MuxDB) DeleteTrieHistoryNodes(ctx context.Context, backendKey, root []byte, keepDescendants bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if db.trash == nil {
		return db.mptStore.TriePrune(backendKey, root, keepDescendants)
	}
	// with a trash collector running, TriePrune's own recursive destroy
	// of the dead siblings is unchanged; the collector only destroys
	// subtrees handed to it through Toss, and TriePrune hands it none.
	return db.mptStore.TriePrune(backendKey, root, keepDescendants)
}

// IsNotFound reports whether err means "key not found" for any layer
// of this facade (engine, Mapx, dagmap, mpt all route through the same
// engine.ErrNotFound sentinel).
func (db *MuxDB) IsNotFound(err error) bool {
	return engine.IsNotFound(err) || db.physical.IsNotFound(err)
}

// EnableMetrics switches the process-wide metrics package over to a
// real prometheus registry and starts a background loop periodically
// sampling this instance's gauges (trash queue depth, node cache hits
// and misses).
func (db *MuxDB) EnableMetrics() {
	metrics.InitializePrometheusMetrics()
	db.metricsLoop = co.NewChoes()
	db.metricsLoop.Go(db.sampleMetrics)
}

func (db *MuxDB) sampleMetrics(stopChan chan struct{}) {
	ticker := time.NewTicker(metricsSampleInterval)
	defer ticker.Stop()
	var lastDepth int64
	for {
		select {
		case <-ticker.C:
			if db.trash != nil {
				depth := int64(db.trash.QueueDepth())
				metricTrashQueueDepth().Add(depth - lastDepth)
				lastDepth = depth
			}
			hits, misses := db.mptStore.NodeCacheStats()
			metricNodeCacheHits().Add(hits - db.lastCacheHits)
			metricNodeCacheMisses().Add(misses - db.lastCacheMisses)
			db.lastCacheHits, db.lastCacheMisses = hits, misses
		case <-stopChan:
			return
		}
	}
}

// Close releases every resource this instance owns: the trash
// collector, the metrics sampling loop, and the physical store.
func (db *MuxDB) Close() error {
	select {
	case <-db.done:
		return nil
	default:
	}
	close(db.done)

	if db.trash != nil {
		db.trash.Close()
	}
	if db.metricsLoop != nil {
		db.metricsLoop.Stop()
		db.metricsLoop.Wait()
	}
	if err := db.eng.Flush(); err != nil {
		logger.Error("flush on close failed", "error", err)
	}
	return db.closer()
}
