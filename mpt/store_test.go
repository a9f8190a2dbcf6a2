// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/mmdb/cache"
	"github.com/vechain/mmdb/engine"
	"github.com/vechain/mmdb/kv/memdb"
)

func newTestStore(t *testing.T) *MptStore {
	eng := engine.New(memdb.New())
	s, err := NewMptStore(eng)
	require.Nil(t, err)
	return s
}

var backendKey = []byte{0}

// S5: three linear commits, then swap_head, remove, and restore with
// and without history fallback.
func TestTrieCommitHistorySeedScenario(t *testing.T) {
	s := newTestStore(t)

	once, err := s.TrieCreate(backendKey, false)
	require.Nil(t, err)

	require.Nil(t, once.Insert([]byte("k"), []byte("v0")))
	root0, err := once.Commit()
	require.Nil(t, err)

	require.Nil(t, once.Insert([]byte("k"), []byte("v1")))
	root1, err := once.Commit()
	require.Nil(t, err)

	require.Nil(t, once.Insert([]byte("k"), []byte("v2")))
	root2, err := once.Commit()
	require.Nil(t, err)
	_ = root2

	require.Nil(t, s.TrieSwapHead(backendKey, root1))
	require.Nil(t, s.TrieRemove(backendKey))

	restored, err := s.TrieRestore(backendKey, root0, true)
	require.Nil(t, err)
	v, err := restored.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v0"), v)

	_, err = s.TrieRestore(backendKey, root0, false)
	assert.NotNil(t, err)
}

func TestTrieCreateDuplicateKeyFails(t *testing.T) {
	s := newTestStore(t)
	_, err := s.TrieCreate(backendKey, false)
	require.Nil(t, err)

	_, err = s.TrieCreate(backendKey, false)
	assert.NotNil(t, err)

	_, err = s.TrieCreate(backendKey, true)
	assert.Nil(t, err)
}

func TestCommitRefusesDuplicateRoot(t *testing.T) {
	s := newTestStore(t)
	once, _ := s.TrieCreate(backendKey, false)

	once.Insert([]byte("k"), []byte("v"))
	_, err := once.Commit()
	require.Nil(t, err)

	// nothing changed: committing again with identical content must
	// refuse since the resulting root already lives in header_set.
	once.Insert([]byte("k"), []byte("v"))
	_, err = once.Commit()
	assert.NotNil(t, err)
}

func TestRoHandlePinsHistoricalRoot(t *testing.T) {
	s := newTestStore(t)
	once, _ := s.TrieCreate(backendKey, false)

	once.Insert([]byte("k"), []byte("v0"))
	root0, err := once.Commit()
	require.Nil(t, err)

	once.Insert([]byte("k"), []byte("v1"))
	_, err = once.Commit()
	require.Nil(t, err)

	ro, err := once.RoHandle(root0)
	require.Nil(t, err)
	v, err := ro.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v0"), v)

	v, _ = once.Get([]byte("k"))
	assert.Equal(t, []byte("v1"), v)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	once, _ := s.TrieCreate(backendKey, false)
	once.Insert([]byte("k"), []byte("v"))
	root, err := once.Commit()
	require.Nil(t, err)

	buf := once.Encode()
	decoded, err := Decode(s, buf)
	require.Nil(t, err)
	assert.Equal(t, root, decoded.Root())

	v, err := decoded.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestDecodeRejectsShortRoot(t *testing.T) {
	s := newTestStore(t)
	buf := lenPrefixed([]byte("short"))
	buf = append(buf, idBytes(0)...)
	buf = append(buf, lenPrefixed(backendKey)...)

	_, err := Decode(s, buf)
	assert.NotNil(t, err)
}

// A trimmed S6: pruning the mainline collapses its ancestor chain into
// one backend without disturbing the live head's data.
func TestTriePruneCollapsesAncestorChain(t *testing.T) {
	s := newTestStore(t)
	once, _ := s.TrieCreate(backendKey, false)

	once.Insert([]byte("k"), []byte("v0"))
	root0, err := once.Commit()
	require.Nil(t, err)

	once.Insert([]byte("k"), []byte("v1"))
	_, err = once.Commit()
	require.Nil(t, err)

	once.Insert([]byte("k"), []byte("v2"))
	root2, err := once.Commit()
	require.Nil(t, err)

	require.Nil(t, s.TriePrune(backendKey, root2, true))

	// the live head is untouched by the collapse.
	restored, err := s.TrieRestore(backendKey, root2, false)
	require.Nil(t, err)
	v, _ := restored.Get([]byte("k"))
	assert.Equal(t, []byte("v2"), v)

	// root0's nodes were committed into the genesis itself, which the
	// collapse keeps, so root0 is still reachable from the live head.
	_, err = s.TrieRestore(backendKey, root0, true)
	assert.Nil(t, err)
}

func TestNodeCacheTracksHitsAndMisses(t *testing.T) {
	s := newTestStore(t)
	lru, err := cache.NewLRU(16)
	require.Nil(t, err)
	s.SetNodeCache(lru)

	once, _ := s.TrieCreate(backendKey, false)
	once.Insert([]byte("k"), []byte("v"))
	root, err := once.Commit()
	require.Nil(t, err)

	restored, err := s.TrieRestore(backendKey, root, false)
	require.Nil(t, err)

	_, _ = restored.Get([]byte("k"))
	_, _ = restored.Get([]byte("k"))

	hits, misses := s.NodeCacheStats()
	assert.True(t, hits+misses > 0)
}
