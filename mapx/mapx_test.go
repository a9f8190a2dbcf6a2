// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mapx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/mmdb/engine"
	"github.com/vechain/mmdb/kv/memdb"
)

func newTestEngine() engine.Engine {
	return engine.New(memdb.New())
}

func TestInsertGetRemove(t *testing.T) {
	eng := newTestEngine()
	m, err := New(eng)
	assert.Nil(t, err)

	prev, err := m.Insert([]byte("a"), []byte("1"))
	assert.Nil(t, err)
	assert.Nil(t, prev)

	n, _ := m.Len()
	assert.Equal(t, uint64(1), n)

	prev, err = m.Insert([]byte("a"), []byte("2"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("1"), prev)

	n, _ = m.Len()
	assert.Equal(t, uint64(1), n)

	v, err := m.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("2"), v)

	removed, err := m.Remove([]byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("2"), removed)

	n, _ = m.Len()
	assert.Equal(t, uint64(0), n)

	v, err = m.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Nil(t, v)
}

func TestLengthConsistency(t *testing.T) {
	eng := newTestEngine()
	m, _ := New(eng)

	for i := 0; i < 20; i++ {
		m.Insert([]byte{byte(i)}, []byte{byte(i)})
	}
	for i := 0; i < 10; i++ {
		m.Remove([]byte{byte(i)})
	}

	entries, err := m.Iter()
	assert.Nil(t, err)
	n, _ := m.Len()
	assert.Equal(t, uint64(len(entries)), n)
	assert.Equal(t, uint64(10), n)
}

func TestPrefixIsolation(t *testing.T) {
	eng := newTestEngine()
	a, _ := New(eng)
	b, _ := New(eng)

	a.Insert([]byte("k"), []byte("va"))
	b.Insert([]byte("k"), []byte("vb"))

	a.Remove([]byte("k"))

	v, _ := b.Get([]byte("k"))
	assert.Equal(t, []byte("vb"), v)
}

func TestSerializationRoundTripAliases(t *testing.T) {
	eng := newTestEngine()
	a, _ := New(eng)
	a.Insert([]byte("k"), []byte("v1"))

	raw := a.Prefix()
	b, err := FromPrefixSlice(eng, raw)
	assert.Nil(t, err)

	v, _ := b.Get([]byte("k"))
	assert.Equal(t, []byte("v1"), v)

	b.Insert([]byte("k"), []byte("v2"))
	v, _ = a.Get([]byte("k"))
	assert.Equal(t, []byte("v2"), v)
}

func TestShadowAliasesSamePrefix(t *testing.T) {
	eng := newTestEngine()
	a, _ := New(eng)
	s := a.Shadow()
	assert.Equal(t, a.Prefix(), s.Prefix())

	s.Insert([]byte("k"), []byte("v"))
	v, _ := a.Get([]byte("k"))
	assert.Equal(t, []byte("v"), v)
}

func TestCloneIsDeepCopyWithFreshPrefix(t *testing.T) {
	eng := newTestEngine()
	a, _ := New(eng)
	a.Insert([]byte("k"), []byte("v1"))

	clone, err := a.Clone()
	assert.Nil(t, err)
	assert.NotEqual(t, a.Prefix(), clone.Prefix())

	clone.Insert([]byte("k"), []byte("v2"))
	v, _ := a.Get([]byte("k"))
	assert.Equal(t, []byte("v1"), v)
}

func TestClear(t *testing.T) {
	eng := newTestEngine()
	m, _ := New(eng)
	for i := 0; i < 5; i++ {
		m.Insert([]byte{byte(i)}, []byte{byte(i)})
	}
	assert.Nil(t, m.Clear())

	n, _ := m.Len()
	assert.Equal(t, uint64(0), n)
	entries, _ := m.Iter()
	assert.Empty(t, entries)
}

func TestIterMutWritesBackThroughOwner(t *testing.T) {
	eng := newTestEngine()
	m, _ := New(eng)
	m.Insert([]byte("a"), []byte("1"))
	m.Insert([]byte("b"), []byte("2"))

	err := m.IterMut(func(h *ValueHandle) {
		h.Set(append(h.Value(), 'x'))
	})
	assert.Nil(t, err)

	v, _ := m.Get([]byte("a"))
	assert.Equal(t, []byte("1x"), v)
	v, _ = m.Get([]byte("b"))
	assert.Equal(t, []byte("2x"), v)
}

func TestRangeBounds(t *testing.T) {
	eng := newTestEngine()
	m, _ := New(eng)
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Insert([]byte(k), []byte(k))
	}
	entries, err := m.Range([]byte("b"), []byte("d"))
	assert.Nil(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, []byte("b"), entries[0].Key)
	assert.Equal(t, []byte("c"), entries[1].Key)
}
