// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package memdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/mmdb/kv"
)

func TestMemDB(t *testing.T) {
	db := New()

	assert.Nil(t, db.Put([]byte("k1"), []byte("v1")))
	got, err := db.Get([]byte("k1"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v1"), got)

	has, _ := db.Has([]byte("k1"))
	assert.True(t, has)

	assert.Nil(t, db.Delete([]byte("k1")))
	_, err = db.Get([]byte("k1"))
	assert.True(t, db.IsNotFound(err))
}

func TestMemDBOrderedIteration(t *testing.T) {
	db := New()
	for _, k := range []string{"c", "a", "d", "b"} {
		assert.Nil(t, db.Put([]byte(k), []byte(k)))
	}

	it := db.Iterate(kv.Range{})
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestMemDBDeleteRange(t *testing.T) {
	db := New()
	for _, k := range []string{"a", "b", "c", "d"} {
		assert.Nil(t, db.Put([]byte(k), []byte(k)))
	}
	assert.Nil(t, db.DeleteRange(context.Background(), kv.Range{Start: []byte("b"), Limit: []byte("d")}))

	it := db.Iterate(kv.Range{})
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"a", "d"}, got)
}

func TestMemDBBulkAndSnapshot(t *testing.T) {
	db := New()
	bulk := db.Bulk()
	assert.Nil(t, bulk.Put([]byte("x"), []byte("1")))
	assert.Nil(t, bulk.Write())

	snap := db.Snapshot()
	assert.Nil(t, db.Put([]byte("x"), []byte("2")))

	got, _ := snap.Get([]byte("x"))
	assert.Equal(t, []byte("1"), got)
	snap.Release()
}
