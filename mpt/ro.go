// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mpt

import "github.com/vechain/mmdb/trie"

// MptRo is a read-only historical trie view, pinned to the root it was
// opened at.
type MptRo struct {
	tr   *trie.Trie
	root []byte
}

// Get resolves key against this historical view.
func (r *MptRo) Get(key []byte) ([]byte, error) { return r.tr.Get(key) }

// Contains reports whether key is present in this view.
func (r *MptRo) Contains(key []byte) (bool, error) { return r.tr.Contains(key) }

// Root returns the root this view is pinned to.
func (r *MptRo) Root() []byte { return append([]byte(nil), r.root...) }
