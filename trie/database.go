// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

// Database is the node store a Trie commits into and resolves
// hash-referenced nodes from. mpt.TrieBackend implements this over a
// DagMapRaw, keyed by node hash.
type Database interface {
	Get(hash []byte) ([]byte, error)
	Put(hash, val []byte) error
}
