// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemDB(t *testing.T) {
	db := NewMem()
	defer db.Close()

	assert.NotNil(t, db.eng)
	assert.NotNil(t, db.mptStore)
	assert.NotNil(t, db.done)
}

func TestOpenPersistent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db, err := Open(path, &Options{
		TrieNodeCacheSizeMB:    8,
		OpenFilesCacheCapacity: 16,
		ReadCacheMB:            8,
		WriteBufferMB:          8,
	})
	require.Nil(t, err)
	defer db.Close()

	assert.NotNil(t, db.eng)
	assert.NotNil(t, db.mptStore)
}

func TestDBStoreRoundTrip(t *testing.T) {
	db := NewMem()
	defer db.Close()

	store := db.NewStore("test")
	require.Nil(t, store.Put([]byte("k"), []byte("v")))

	v, err := store.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), v)

	require.Nil(t, store.Delete([]byte("k")))
	_, err = store.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))
}

func TestMultipleStoresAreDisjoint(t *testing.T) {
	db := NewMem()
	defer db.Close()

	s1 := db.NewStore("store1")
	s2 := db.NewStore("store2")

	require.Nil(t, s1.Put([]byte("key"), []byte("val1")))
	require.Nil(t, s2.Put([]byte("key"), []byte("val2")))

	v1, err := s1.Get([]byte("key"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("val1"), v1)

	v2, err := s2.Get([]byte("key"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("val2"), v2)
}

func TestTrieLifecycleThroughFacade(t *testing.T) {
	db := NewMem()
	defer db.Close()

	backendKey := []byte("chain-state")
	once, err := db.NewTrie(backendKey, nil, false)
	require.Nil(t, err)

	require.Nil(t, once.Insert([]byte("k"), []byte("v0")))
	root0, err := once.Commit()
	require.Nil(t, err)

	require.Nil(t, once.Insert([]byte("k"), []byte("v1")))
	root1, err := once.Commit()
	require.Nil(t, err)

	reopened, err := db.NewTrie(backendKey, root0, false)
	require.Nil(t, err)
	v, err := reopened.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v0"), v)

	require.Nil(t, db.SwapHead(backendKey, root0))
	require.Nil(t, db.RemoveTrie(backendKey))

	restored, err := db.NewTrie(backendKey, root0, false)
	require.Nil(t, err)
	v, err = restored.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v0"), v)

	assert.Nil(t, db.DeleteTrieHistoryNodes(context.Background(), backendKey, root1, true))
}

func TestEnableMetricsStartsSamplingLoop(t *testing.T) {
	db := NewMem()
	db.EnableMetrics()
	db.Close()
}

func TestConfigPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.db")

	opts := &Options{TrieDedupedPartitionFactor: 42, TrieHistPartitionFactor: 7}
	db, err := Open(path, opts)
	require.Nil(t, err)
	assert.Equal(t, uint32(42), db.cfg.DedupedPtnFactor)
	db.Close()

	reopened, err := Open(path, &Options{})
	require.Nil(t, err)
	defer reopened.Close()
	assert.Equal(t, uint32(42), reopened.cfg.DedupedPtnFactor)
}
