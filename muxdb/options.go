// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"encoding/json"

	"github.com/vechain/mmdb/kv"
)

// Options configures Open. Zero values fall back to sane defaults.
type Options struct {
	// TrieNodeCacheSizeMB sizes the in-memory LRU fronting committed
	// trie nodes.
	TrieNodeCacheSizeMB int
	// TrieCachedNodeTTL is persisted in config; the node LRU applies no
	// TTL and evicts by size only.
	TrieCachedNodeTTL uint16
	// TrieDedupedPartitionFactor and TrieHistPartitionFactor are
	// persisted in config and surfaced for parity with the teacher's
	// partitioned trie-node store; this dagmap-based store has no
	// partitions of its own and nothing else reads them.
	TrieDedupedPartitionFactor uint32
	TrieHistPartitionFactor    uint32
	// TrieWillCleanHistory starts a background trash collector that
	// destroys subtrees handed to it. DeleteTrieHistoryNodes does not use
	// it: pruning destroys discarded subtrees synchronously either way.
	TrieWillCleanHistory bool

	OpenFilesCacheCapacity int
	ReadCacheMB            int
	WriteBufferMB          int
}

const configKey = "config"

// config is the persisted singleton record mirroring the durable
// subset of Options across process restarts, the way muxdb's own
// config.LoadOrSave works in the teacher.
type config struct {
	DedupedPtnFactor uint32 `json:"dedupedPtnFactor"`
	HistPtnFactor    uint32 `json:"histPtnFactor"`
	CachedNodeTTL    uint16 `json:"cachedNodeTTL"`
}

// LoadOrSave reads the persisted config from store, or — if none exists
// yet — persists c as the initial value. On return c always holds the
// value now durable in store.
func (c *config) LoadOrSave(store kv.Store) error {
	v, err := store.Get([]byte(configKey))
	if err != nil {
		if !store.IsNotFound(err) {
			return err
		}
		buf, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return store.Put([]byte(configKey), buf)
	}
	return json.Unmarshal(v, c)
}
