// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dagmap

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrDirtyCache is returned by Prune when the write cache hasn't been
// committed: pruning a node whose pending writes haven't reached its
// Mapx yet would silently discard them.
var ErrDirtyCache = errors.New("dagmap: prune with dirty cache")

// DagMap is the cached variant of DagMapRaw: writes stage into an
// in-memory map and only reach the underlying Mapx on Commit. Reads
// check the cache before falling through to the raw node's own
// parent-chain lookup.
type DagMap struct {
	raw *DagMapRaw

	mu    sync.Mutex
	cache map[string][]byte
}

// NewDagMap wraps raw with an empty write cache.
func NewDagMap(raw *DagMapRaw) *DagMap {
	return &DagMap{raw: raw, cache: make(map[string][]byte)}
}

// Raw exposes the underlying uncached node, e.g. for Prune/Destroy
// wiring at the DAG-management layer.
func (d *DagMap) Raw() *DagMapRaw { return d.raw }

// Get consults the write cache first, then the raw node's own
// local-then-parent-chain lookup.
func (d *DagMap) Get(key []byte) ([]byte, error) {
	d.mu.Lock()
	v, ok := d.cache[string(key)]
	d.mu.Unlock()
	if ok {
		if len(v) == 0 {
			return nil, nil // staged tombstone
		}
		return v, nil
	}
	return d.raw.Get(key)
}

// Insert stages val under key in the write cache. The previous value
// is the cache hit if any, otherwise a read-through to the raw node's
// own local data (ancestors are never shadowed by a stage-only write,
// so they're not consulted here).
func (d *DagMap) Insert(key, val []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, cached := d.cache[string(key)]
	d.cache[string(key)] = val
	if cached {
		if len(prev) == 0 {
			return nil, nil
		}
		return prev, nil
	}
	return d.raw.data.Get(key)
}

// Remove stages a tombstone under key.
func (d *DagMap) Remove(key []byte) ([]byte, error) {
	return d.Insert(key, []byte{})
}

// Dirty reports whether any write is staged but not yet committed.
func (d *DagMap) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache) > 0
}

// Commit flushes every staged write into the raw node's Mapx and
// clears the cache.
func (d *DagMap) Commit() error {
	d.mu.Lock()
	pending := d.cache
	d.cache = make(map[string][]byte)
	d.mu.Unlock()

	for k, v := range pending {
		if _, err := d.raw.InsertDirect([]byte(k), v); err != nil {
			return errors.Wrap(err, "dagmap: commit")
		}
	}
	return nil
}

// Prune requires a clean cache (Open Question iii resolved strict: see
// DESIGN.md) and otherwise delegates to the raw node's Prune, returning
// a fresh DagMap wrapping the new genesis.
func (d *DagMap) Prune() (*DagMap, error) {
	if d.Dirty() {
		return nil, ErrDirtyCache
	}
	genesis, err := d.raw.Prune()
	if err != nil {
		return nil, err
	}
	return NewDagMap(genesis), nil
}

// Destroy commits nothing; it discards any pending cache and destroys
// the underlying raw node.
func (d *DagMap) Destroy() error {
	d.mu.Lock()
	d.cache = nil
	d.mu.Unlock()
	return d.raw.Destroy()
}
