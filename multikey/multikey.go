// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package multikey composes a Mapx into fixed-arity multi-key maps:
// MapxRawKeyMk for an arbitrary fixed arity N, and the MapxDk/MapxTk
// convenience wrappers for the common double- and triple-key cases.
package multikey

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/vechain/mmdb/engine"
	"github.com/vechain/mmdb/mapx"
)

// ErrShapeMismatch is returned when a key tuple's length doesn't match
// the map's configured arity.
var ErrShapeMismatch = errors.New("multikey: shape mismatch")

// MapxRawKeyMk is a fixed-arity multi-key map over raw byte key parts.
// Internally every key tuple is encoded as the concatenation of each
// part prefixed by its 4-byte big-endian length, so that the encoding
// of any leading sub-tuple is an exact byte-prefix of every full key
// extending it — this is what makes partial-path subtree removal a
// plain prefix scan.
type MapxRawKeyMk struct {
	m     *mapx.Mapx
	arity int
}

// NewMapxRawKeyMk allocates a fresh map with the given fixed arity.
func NewMapxRawKeyMk(eng engine.Engine, arity int) (*MapxRawKeyMk, error) {
	if arity < 1 {
		return nil, errors.Wrap(ErrShapeMismatch, "arity must be >= 1")
	}
	m, err := mapx.New(eng)
	if err != nil {
		return nil, err
	}
	return &MapxRawKeyMk{m: m, arity: arity}, nil
}

func encodeParts(parts [][]byte) []byte {
	var out []byte
	for _, p := range parts {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		out = append(out, lenBuf[:]...)
		out = append(out, p...)
	}
	return out
}

// upperBound returns the smallest byte slice strictly greater than
// every slice sharing prefix as a literal prefix.
func upperBound(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

// Get resolves a full-arity key tuple to its value. A partial-path
// tuple (fewer than arity parts) always resolves to nil, per spec: it
// names a subtree, not a single value.
func (mk *MapxRawKeyMk) Get(parts [][]byte) ([]byte, error) {
	if len(parts) > mk.arity {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d parts, arity is %d", len(parts), mk.arity)
	}
	if len(parts) < mk.arity {
		return nil, nil
	}
	return mk.m.Get(encodeParts(parts))
}

// Insert requires a full-arity key tuple; a partial one is a shape
// mismatch, not a legal operation.
func (mk *MapxRawKeyMk) Insert(parts [][]byte, val []byte) ([]byte, error) {
	if len(parts) != mk.arity {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d parts, arity is %d", len(parts), mk.arity)
	}
	return mk.m.Insert(encodeParts(parts), val)
}

// Remove deletes a full-arity key, or destroys every entry under a
// partial-path key's subtree. Either way it returns nil: partial-path
// removal never named a single value to return, and full-key removal
// mirrors that by spec's S2 seed scenario.
func (mk *MapxRawKeyMk) Remove(parts [][]byte) ([]byte, error) {
	if len(parts) > mk.arity {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d parts, arity is %d", len(parts), mk.arity)
	}
	if len(parts) == mk.arity {
		if _, err := mk.m.Remove(encodeParts(parts)); err != nil {
			return nil, err
		}
		return nil, nil
	}

	prefix := encodeParts(parts)
	entries, err := mk.m.Range(prefix, upperBound(prefix))
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, err := mk.m.Remove(e.Key); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Len returns the number of full-arity entries currently stored.
func (mk *MapxRawKeyMk) Len() (uint64, error) { return mk.m.Len() }

// Prefix returns the underlying Mapx's serialized prefix.
func (mk *MapxRawKeyMk) Prefix() []byte { return mk.m.Prefix() }

// Arity returns the fixed key-tuple length this map was constructed with.
func (mk *MapxRawKeyMk) Arity() int { return mk.arity }
