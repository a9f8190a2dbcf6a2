// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package multikey

import "github.com/vechain/mmdb/engine"

// MapxDk is a double-key map: a MapxRawKeyMk with arity 2 over a
// single Mapx.
type MapxDk struct {
	mk *MapxRawKeyMk
}

// NewMapxDk allocates a fresh double-key map.
func NewMapxDk(eng engine.Engine) (*MapxDk, error) {
	mk, err := NewMapxRawKeyMk(eng, 2)
	if err != nil {
		return nil, err
	}
	return &MapxDk{mk: mk}, nil
}

// Get resolves (k1, k2) to its value.
func (d *MapxDk) Get(k1, k2 []byte) ([]byte, error) {
	return d.mk.Get([][]byte{k1, k2})
}

// GetPartial resolves the subtree named by k1 alone; always nil, per
// the underlying MapxRawKeyMk partial-path contract.
func (d *MapxDk) GetPartial(k1 []byte) ([]byte, error) {
	return d.mk.Get([][]byte{k1})
}

// Insert writes val under the full key (k1, k2).
func (d *MapxDk) Insert(k1, k2, val []byte) ([]byte, error) {
	return d.mk.Insert([][]byte{k1, k2}, val)
}

// Remove deletes the full key (k1, k2).
func (d *MapxDk) Remove(k1, k2 []byte) ([]byte, error) {
	return d.mk.Remove([][]byte{k1, k2})
}

// RemovePartial destroys every (k1, *) entry, returning nil.
func (d *MapxDk) RemovePartial(k1 []byte) ([]byte, error) {
	return d.mk.Remove([][]byte{k1})
}

// Len returns the number of full keys stored.
func (d *MapxDk) Len() (uint64, error) { return d.mk.Len() }

// MapxTk is a triple-key map: MapxRawKeyMk with arity 3.
type MapxTk struct {
	mk *MapxRawKeyMk
}

// NewMapxTk allocates a fresh triple-key map.
func NewMapxTk(eng engine.Engine) (*MapxTk, error) {
	mk, err := NewMapxRawKeyMk(eng, 3)
	if err != nil {
		return nil, err
	}
	return &MapxTk{mk: mk}, nil
}

// Get resolves (k1, k2, k3) to its value.
func (t *MapxTk) Get(k1, k2, k3 []byte) ([]byte, error) {
	return t.mk.Get([][]byte{k1, k2, k3})
}

// Insert writes val under the full key (k1, k2, k3).
func (t *MapxTk) Insert(k1, k2, k3, val []byte) ([]byte, error) {
	return t.mk.Insert([][]byte{k1, k2, k3}, val)
}

// Remove deletes the full key (k1, k2, k3).
func (t *MapxTk) Remove(k1, k2, k3 []byte) ([]byte, error) {
	return t.mk.Remove([][]byte{k1, k2, k3})
}

// RemovePartial destroys every (k1, k2, *) entry, returning nil.
func (t *MapxTk) RemovePartial(k1, k2 []byte) ([]byte, error) {
	return t.mk.Remove([][]byte{k1, k2})
}

// Len returns the number of full keys stored.
func (t *MapxTk) Len() (uint64, error) { return t.mk.Len() }
