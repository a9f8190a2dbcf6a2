// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mapx implements the prefixed logical map: a single container
// identified solely by an engine-allocated prefix, with no in-memory
// cache of its own.
package mapx

import (
	"github.com/pkg/errors"

	"github.com/vechain/mmdb/engine"
	"github.com/vechain/mmdb/log"
)

var logger = log.New("pkg", "mapx")

// Mapx is a logical map multiplexed onto an Engine via a single prefix.
type Mapx struct {
	eng    engine.Engine
	prefix engine.Prefix
}

// New allocates a fresh prefix and returns an empty Mapx over it.
func New(eng engine.Engine) (*Mapx, error) {
	p, err := eng.AllocPrefix()
	if err != nil {
		return nil, errors.Wrap(err, "mapx: new")
	}
	return &Mapx{eng: eng, prefix: p}, nil
}

// FromPrefixSlice adopts an existing prefix, assumed to already name
// live data (or to be freshly minted elsewhere).
func FromPrefixSlice(eng engine.Engine, raw []byte) (*Mapx, error) {
	p, err := engine.PrefixFromBytes(raw)
	if err != nil {
		return nil, err
	}
	return &Mapx{eng: eng, prefix: p}, nil
}

// Shadow returns a second handle aliasing the same prefix. Per spec,
// concurrent use of a shadow alongside writes through the original (or
// vice versa) is the caller's responsibility to serialize.
func (m *Mapx) Shadow() *Mapx {
	return &Mapx{eng: m.eng, prefix: m.prefix}
}

// Prefix returns the raw prefix bytes identifying this instance; this
// is exactly Mapx's serialized form.
func (m *Mapx) Prefix() []byte {
	return append([]byte(nil), m.prefix.Bytes()...)
}

// Len returns the persisted instance length.
func (m *Mapx) Len() (uint64, error) {
	return m.eng.GetInstanceLen(m.prefix)
}

// Get reads the value stored under key, if any.
func (m *Mapx) Get(key []byte) ([]byte, error) {
	v, err := m.eng.Get(m.prefix, key)
	if err != nil {
		if m.eng.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "mapx: get")
	}
	return v, nil
}

// Contains reports whether key is present.
func (m *Mapx) Contains(key []byte) (bool, error) {
	v, err := m.Get(key)
	return v != nil, err
}

// Insert writes val under key and returns the previous value, if any.
// If key was previously absent, the instance length is incremented
// under the area lock.
func (m *Mapx) Insert(key, val []byte) ([]byte, error) {
	prev, err := m.eng.Insert(m.prefix, key, val)
	if err != nil {
		return nil, errors.Wrap(err, "mapx: insert")
	}
	if prev == nil {
		if _, err := m.eng.IncreaseInstanceLen(m.prefix); err != nil {
			return nil, errors.Wrap(err, "mapx: insert: length update")
		}
	}
	return prev, nil
}

// Remove deletes key, decrementing the instance length when a value
// actually existed.
func (m *Mapx) Remove(key []byte) ([]byte, error) {
	prev, err := m.eng.Remove(m.prefix, key)
	if err != nil {
		return nil, errors.Wrap(err, "mapx: remove")
	}
	if prev != nil {
		if _, err := m.eng.DecreaseInstanceLen(m.prefix); err != nil {
			return nil, errors.Wrap(err, "mapx: remove: length update")
		}
	}
	return prev, nil
}

// Clear removes every key in the instance and resets the length to 0.
// Not transactional: a crash mid-clear leaves a partially cleared
// instance whose length is fixed up by completing a subsequent Clear.
func (m *Mapx) Clear() error {
	var keys [][]byte
	it := m.eng.Iter(m.prefix)
	for it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		it.Release()
		return errors.Wrap(err, "mapx: clear: iterate")
	}
	it.Release()

	for _, k := range keys {
		if _, err := m.eng.Remove(m.prefix, k); err != nil {
			return errors.Wrap(err, "mapx: clear: remove")
		}
	}
	if err := m.eng.SetInstanceLen(m.prefix, 0); err != nil {
		return errors.Wrap(err, "mapx: clear: reset length")
	}
	return nil
}

// Entry is a key/value pair yielded by Iter and Range.
type Entry struct {
	Key   []byte
	Value []byte
}

// Iter returns every entry in the instance, in engine key order.
func (m *Mapx) Iter() ([]Entry, error) {
	return m.Range(nil, nil)
}

// Range returns every entry in [start, limit) within the instance.
func (m *Mapx) Range(start, limit []byte) ([]Entry, error) {
	it := m.eng.Range(m.prefix, start, limit)
	defer it.Release()

	var out []Entry
	for it.Next() {
		out = append(out, Entry{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), it.Value()...),
		})
	}
	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "mapx: range")
	}
	return out, nil
}

// ValueHandle is a mutable view of one entry, obtained from IterMut or
// RangeMut. Calling Set stages a new value; once the callback returns,
// IterMut/RangeMut write it back through the owning Mapx so the length
// invariant is preserved, never through a stale iterator.
type ValueHandle struct {
	m       *Mapx
	key     []byte
	value   []byte
	written bool
}

// Key returns the entry's key.
func (h *ValueHandle) Key() []byte { return h.key }

// Value returns the entry's current (possibly already-Set) value.
func (h *ValueHandle) Value() []byte { return h.value }

// Set stages a replacement value, written back by IterMut/RangeMut
// after the callback returns (see those functions).
func (h *ValueHandle) Set(val []byte) { h.value = val }

// IterMut visits every entry, letting fn mutate each through a
// ValueHandle; the (possibly unmodified) value is written back via the
// owning Mapx after every visit, matching the teacher-derived semantics
// of the original write-back-on-drop mutable iterator.
func (m *Mapx) IterMut(fn func(h *ValueHandle)) error {
	return m.RangeMut(nil, nil, fn)
}

// RangeMut is the bounded counterpart of IterMut.
func (m *Mapx) RangeMut(start, limit []byte, fn func(h *ValueHandle)) error {
	entries, err := m.Range(start, limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		h := &ValueHandle{m: m, key: e.Key, value: e.Value}
		fn(h)
		if _, err := m.eng.Insert(m.prefix, h.key, h.value); err != nil {
			return errors.Wrap(err, "mapx: range_mut: write back")
		}
	}
	return nil
}

// Clone performs a deep copy of every entry into a freshly allocated
// prefix; there is no alias-sharing clone (that's Shadow).
func (m *Mapx) Clone() (*Mapx, error) {
	dst, err := New(m.eng)
	if err != nil {
		return nil, err
	}
	entries, err := m.Iter()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, err := dst.Insert(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return dst, nil
}
