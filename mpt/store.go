// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mpt

import (
	"bytes"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/vechain/mmdb/cache"
	"github.com/vechain/mmdb/dagmap"
	"github.com/vechain/mmdb/engine"
	"github.com/vechain/mmdb/mapx"
	"github.com/vechain/mmdb/trie"
)

// ErrAlreadyExists mirrors engine.ErrAlreadyExists for TrieCreate's
// duplicate backend_key case.
var ErrAlreadyExists = engine.ErrAlreadyExists

// ErrNotFound mirrors engine.ErrNotFound for restore/swap-head misses.
var ErrNotFound = engine.ErrNotFound

// MptStore holds meta (backend_key -> current TrieBackend) and
// header_set (root hash -> the TrieBackend that produced it) as two
// persisted ordered maps of raw-bytes to an 8-byte backend id, plus an
// in-process registry resolving ids back to live *TrieBackend values.
type MptStore struct {
	eng       engine.Engine
	meta      *mapx.Mapx
	headerSet *mapx.Mapx

	mu          sync.Mutex
	registry    map[uint64]*TrieBackend
	nodeCache   *cache.LRU
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// NewMptStore allocates the store's two backing maps and an empty
// registry; each TrieCreate later starts its own fresh root backend.
func NewMptStore(eng engine.Engine) (*MptStore, error) {
	meta, err := mapx.New(eng)
	if err != nil {
		return nil, errors.Wrap(err, "mpt: new store")
	}
	headerSet, err := mapx.New(eng)
	if err != nil {
		return nil, errors.Wrap(err, "mpt: new store")
	}
	return &MptStore{
		eng:       eng,
		meta:      meta,
		headerSet: headerSet,
		registry:  make(map[uint64]*TrieBackend),
	}, nil
}

func idBytes(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}

func idFromBytes(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// SetNodeCache installs a shared LRU fronting every backend's Get, so
// resolving the same content-addressed node through two different
// historical backends still only costs one read-through lookup.
func (s *MptStore) SetNodeCache(c *cache.LRU) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeCache = c
	for _, b := range s.registry {
		b.cache = c
		b.hits = &s.cacheHits
		b.misses = &s.cacheMisses
	}
}

// NodeCacheStats reports the shared node cache's cumulative hit and miss
// counts, the source for the trie layer's cache-hit-rate gauge.
func (s *MptStore) NodeCacheStats() (hits, misses int64) {
	return s.cacheHits.Load(), s.cacheMisses.Load()
}

func (s *MptStore) newBackend(raw *dagmap.DagMapRaw) (*TrieBackend, error) {
	id, err := s.eng.AllocBranchID()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	b := &TrieBackend{raw: raw, id: id, cache: s.nodeCache, hits: &s.cacheHits, misses: &s.cacheMisses}
	s.registry[id] = b
	s.mu.Unlock()
	return b, nil
}

func (s *MptStore) lookupBackend(id uint64) (*TrieBackend, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.registry[id]
	return b, ok
}

func backendHasRoot(b *TrieBackend, root []byte) (bool, error) {
	if len(root) == 0 || bytes.Equal(root, trie.EmptyRootHash) {
		return true, nil
	}
	v, err := b.Get(root)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// TrieCreate registers a fresh empty backend under backendKey. Fails
// with ErrAlreadyExists when the key is already live and force is
// false.
func (s *MptStore) TrieCreate(backendKey []byte, force bool) (*MptOnce, error) {
	if !force {
		if v, err := s.meta.Get(backendKey); err != nil {
			return nil, err
		} else if v != nil {
			return nil, errors.Wrapf(ErrAlreadyExists, "backend key %x", backendKey)
		}
	}
	raw, err := dagmap.NewRoot(s.eng)
	if err != nil {
		return nil, err
	}
	backend, err := s.newBackend(raw)
	if err != nil {
		return nil, err
	}
	if _, err := s.meta.Insert(backendKey, idBytes(backend.id)); err != nil {
		return nil, err
	}
	return newMptOnce(s, backendKey, backend, nil)
}

// TrieRestore opens an MptOnce against the backend bound to
// backendKey at root. If root isn't present there and searchHistory is
// true, it falls back to header_set's record of the backend that
// first produced root.
func (s *MptStore) TrieRestore(backendKey, root []byte, searchHistory bool) (*MptOnce, error) {
	if idb, err := s.meta.Get(backendKey); err != nil {
		return nil, err
	} else if idb != nil {
		if backend, ok := s.lookupBackend(idFromBytes(idb)); ok {
			if ok2, err := backendHasRoot(backend, root); err != nil {
				return nil, err
			} else if ok2 {
				return newMptOnce(s, backendKey, backend, root)
			}
		}
	}
	if searchHistory {
		if idb, err := s.headerSet.Get(root); err != nil {
			return nil, err
		} else if idb != nil {
			if backend, ok := s.lookupBackend(idFromBytes(idb)); ok {
				return newMptOnce(s, backendKey, backend, root)
			}
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "root %x for backend key %x", root, backendKey)
}

// TrieSwapHead repoints backendKey at the backend that produced root,
// declaring it the new mainline tip.
func (s *MptStore) TrieSwapHead(backendKey, root []byte) error {
	idb, err := s.headerSet.Get(root)
	if err != nil {
		return err
	}
	if idb == nil {
		return errors.Wrapf(ErrNotFound, "root %x in header set", root)
	}
	_, err = s.meta.Insert(backendKey, idb)
	return err
}

// TrieRemove drops backendKey from meta only; historical backends
// remain registered in header_set.
func (s *MptStore) TrieRemove(backendKey []byte) error {
	_, err := s.meta.Remove(backendKey)
	return err
}

// TriePrune collapses the mainline up to the backend that produced
// root (folding every shallower ancestor's nodes into the genesis and
// destroying every sibling branch, per DagMapRaw.Prune), then drops
// every header_set entry whose backend no longer holds live data.
//
// keepDescendants documents intent (the caller is declaring root's own
// descendants, reachable from the current head, must survive); the
// collapse itself already guarantees that by re-parenting them onto
// the new genesis before sweeping siblings, so the parameter has no
// further effect here — see DESIGN.md for why trie_prune's exact
// contract (spec 4.D, "implied by tests") resolved to this shape.
func (s *MptStore) TriePrune(backendKey, root []byte, keepDescendants bool) error {
	_ = keepDescendants
	idb, err := s.headerSet.Get(root)
	if err != nil {
		return err
	}
	if idb == nil {
		return errors.Wrapf(ErrNotFound, "root %x in header set", root)
	}
	anchor, ok := s.lookupBackend(idFromBytes(idb))
	if !ok {
		return errors.Wrap(engine.ErrFatal, "mpt: prune: anchor backend not registered")
	}

	genesisRaw, err := anchor.raw.Prune()
	if err != nil {
		return err
	}
	anchor.raw = genesisRaw

	entries, err := s.headerSet.Iter()
	if err != nil {
		return err
	}
	for _, e := range entries {
		id := idFromBytes(e.Value)
		if b, ok := s.lookupBackend(id); ok {
			dead, err := b.raw.IsDead()
			if err != nil {
				return err
			}
			if dead {
				if _, err := s.headerSet.Remove(e.Key); err != nil {
					return err
				}
				s.mu.Lock()
				delete(s.registry, id)
				s.mu.Unlock()
			}
		}
	}
	return nil
}
