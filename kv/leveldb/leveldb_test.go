// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package leveldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/mmdb/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	dir := t.TempDir()
	ldb, err := New(filepath.Join(dir, "test.db"), Options{CacheMB: 8, WriteBufferMB: 8})
	assert.Nil(t, err)
	defer ldb.Close()

	memdb, err := NewMem()
	assert.Nil(t, err)
	defer memdb.Close()

	for _, store := range []*LevelDB{ldb, memdb} {
		assert.Nil(t, store.Put(key, value))

		got, err := store.Get(key)
		assert.Nil(t, err)
		assert.Equal(t, value, got)

		has, err := store.Has(key)
		assert.Nil(t, err)
		assert.True(t, has)

		has, err = store.Has(inValidKey)
		assert.Nil(t, err)
		assert.False(t, has)

		assert.Nil(t, store.Delete(key))

		_, err = store.Get(key)
		assert.True(t, store.IsNotFound(err))
	}
}

func TestLevelDBBulk(t *testing.T) {
	memdb, err := NewMem()
	assert.Nil(t, err)
	defer memdb.Close()

	bulk := memdb.Bulk()
	assert.Nil(t, bulk.Put([]byte("a"), []byte("1")))
	assert.Nil(t, bulk.Put([]byte("b"), []byte("2")))
	assert.Nil(t, bulk.Write())

	got, err := memdb.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("1"), got)
}

func TestLevelDBIterateAndDeleteRange(t *testing.T) {
	memdb, err := NewMem()
	assert.Nil(t, err)
	defer memdb.Close()

	for _, k := range []string{"a", "b", "c", "d"} {
		assert.Nil(t, memdb.Put([]byte(k), []byte(k)))
	}

	it := memdb.Iterate(kv.Range{Start: []byte("b"), Limit: []byte("d")})
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"b", "c"}, got)

	assert.Nil(t, memdb.DeleteRange(context.Background(), kv.Range{Start: []byte("b"), Limit: []byte("d")}))

	has, _ := memdb.Has([]byte("b"))
	assert.False(t, has)
	has, _ = memdb.Has([]byte("a"))
	assert.True(t, has)
}

func TestLevelDBSnapshot(t *testing.T) {
	memdb, err := NewMem()
	assert.Nil(t, err)
	defer memdb.Close()

	assert.Nil(t, memdb.Put([]byte("k"), []byte("v1")))
	snap := memdb.Snapshot()
	defer snap.Release()

	assert.Nil(t, memdb.Put([]byte("k"), []byte("v2")))

	got, err := snap.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v1"), got)

	got, err = memdb.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v2"), got)
}
