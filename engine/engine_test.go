// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/mmdb/kv/memdb"
)

func newTestEngine() Engine {
	return New(memdb.New())
}

func TestAllocPrefixUniqueAndNonNull(t *testing.T) {
	e := newTestEngine()
	seen := map[Prefix]bool{}
	for range 10 {
		p, err := e.AllocPrefix()
		assert.Nil(t, err)
		assert.False(t, p.IsNull())
		assert.False(t, seen[p])
		seen[p] = true
	}
}

func TestAllocBranchAndVersionIDsMonotonic(t *testing.T) {
	e := newTestEngine()
	a, _ := e.AllocBranchID()
	b, _ := e.AllocBranchID()
	assert.Equal(t, a+1, b)

	v1, _ := e.AllocVersionID()
	v2, _ := e.AllocVersionID()
	assert.Equal(t, v1+1, v2)
}

func TestGetInsertRemove(t *testing.T) {
	e := newTestEngine()
	p, _ := e.AllocPrefix()

	prev, err := e.Insert(p, []byte("k"), []byte("v1"))
	assert.Nil(t, err)
	assert.Nil(t, prev)

	prev, err = e.Insert(p, []byte("k"), []byte("v2"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v1"), prev)

	got, err := e.Get(p, []byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v2"), got)

	removed, err := e.Remove(p, []byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v2"), removed)

	_, err = e.Get(p, []byte("k"))
	assert.True(t, e.IsNotFound(err))
}

func TestPrefixIsolation(t *testing.T) {
	e := newTestEngine()
	a, _ := e.AllocPrefix()
	b, _ := e.AllocPrefix()

	e.Insert(a, []byte("k"), []byte("va"))
	e.Insert(b, []byte("k"), []byte("vb"))

	va, _ := e.Get(a, []byte("k"))
	vb, _ := e.Get(b, []byte("k"))
	assert.Equal(t, []byte("va"), va)
	assert.Equal(t, []byte("vb"), vb)

	e.Remove(a, []byte("k"))
	vb, _ = e.Get(b, []byte("k"))
	assert.Equal(t, []byte("vb"), vb)
}

func TestIterAndRange(t *testing.T) {
	e := newTestEngine()
	p, _ := e.AllocPrefix()
	for _, k := range []string{"a", "b", "c", "d"} {
		e.Insert(p, []byte(k), []byte(k))
	}
	// an unrelated instance sharing no keys must not leak into iteration.
	other, _ := e.AllocPrefix()
	e.Insert(other, []byte("zzz"), []byte("zzz"))

	it := e.Iter(p)
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)

	it = e.Range(p, []byte("b"), []byte("d"))
	got = nil
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestInstanceLenCounters(t *testing.T) {
	e := newTestEngine()
	p, _ := e.AllocPrefix()

	n, err := e.GetInstanceLen(p)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), n)

	n, err = e.IncreaseInstanceLen(p)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), n)

	n, err = e.IncreaseInstanceLen(p)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), n)

	n, err = e.DecreaseInstanceLen(p)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), n)

	_, err = e.DecreaseInstanceLen(p)
	assert.Nil(t, err)
	_, err = e.DecreaseInstanceLen(p)
	assert.True(t, IsFatal(err))
}

func TestFlush(t *testing.T) {
	e := newTestEngine()
	assert.Nil(t, e.Flush())
}
