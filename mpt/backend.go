// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mpt builds a versioned Merkle-Patricia trie store on top of
// dagmap: every commit roots a new DagMapRaw child node, and a header
// set indexes every historical root back to the backend that produced
// it.
package mpt

import (
	"sync/atomic"

	"github.com/vechain/mmdb/cache"
	"github.com/vechain/mmdb/dagmap"
	"github.com/vechain/mmdb/log"
)

var logger = log.New("pkg", "mpt")

// TrieBackend is a content-addressed node store, keyed by node hash,
// implemented as one node of the dagmap overlay: trie.Database over a
// DagMapRaw. cache, when set by the owning MptStore, fronts Get with an
// LRU of resolved node bytes shared across every backend the store
// mints (hashes never collide across backends, since they're content
// addresses). hits/misses point at the owning MptStore's shared
// counters, so every backend's traffic feeds one cache-hit-rate figure.
type TrieBackend struct {
	raw    *dagmap.DagMapRaw
	id     uint64
	cache  *cache.LRU
	hits   *atomic.Int64
	misses *atomic.Int64
}

// Get resolves a node by hash, consulting the shared node cache first.
func (b *TrieBackend) Get(hash []byte) ([]byte, error) {
	if b.cache != nil {
		if v, ok := b.cache.Get(string(hash)); ok {
			if b.hits != nil {
				b.hits.Add(1)
			}
			return v.([]byte), nil
		}
		if b.misses != nil {
			b.misses.Add(1)
		}
	}
	v, err := b.raw.Get(hash)
	if err != nil {
		return nil, err
	}
	if b.cache != nil && v != nil {
		b.cache.Add(string(hash), v)
	}
	return v, nil
}

// Put stores a node under its hash.
func (b *TrieBackend) Put(hash, val []byte) error {
	if _, err := b.raw.Insert(hash, val); err != nil {
		return err
	}
	if b.cache != nil {
		b.cache.Add(string(hash), val)
	}
	return nil
}

// ID returns the engine-allocated identity this backend is registered
// under in MptStore's meta/header_set maps.
func (b *TrieBackend) ID() uint64 { return b.id }

// Raw exposes the underlying dagmap node.
func (b *TrieBackend) Raw() *dagmap.DagMapRaw { return b.raw }
