// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mpt

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/vechain/mmdb/dagmap"
	"github.com/vechain/mmdb/trie"
)

// ErrShapeMismatch flags a malformed Decode input.
var ErrShapeMismatch = errors.New("mpt: shape mismatch")

// MptOnce is an owning, mutable trie handle: the current backend, the
// root it's opened at, and the trie view over them. Field order here
// matters in spirit the way it did in the teacher's self-referential
// layout (spec 4.E/9): backend must outlive tr, so tr is declared
// last and Go's GC (unlike a manually managed heap) makes the ordering
// a documentation concern rather than a safety one.
type MptOnce struct {
	store      *MptStore
	backendKey []byte
	backend    *TrieBackend
	root       []byte
	tr         *trie.Trie
}

func newMptOnce(store *MptStore, backendKey []byte, backend *TrieBackend, root []byte) (*MptOnce, error) {
	tr, err := trie.New(root, backend)
	if err != nil {
		return nil, err
	}
	return &MptOnce{
		store:      store,
		backendKey: append([]byte(nil), backendKey...),
		backend:    backend,
		root:       append([]byte(nil), root...),
		tr:         tr,
	}, nil
}

// Get resolves key against the current trie view.
func (m *MptOnce) Get(key []byte) ([]byte, error) { return m.tr.Get(key) }

// Contains reports whether key is present.
func (m *MptOnce) Contains(key []byte) (bool, error) { return m.tr.Contains(key) }

// Insert writes val under key in the working (uncommitted) trie.
func (m *MptOnce) Insert(key, val []byte) error { return m.tr.Insert(key, val) }

// Remove deletes key from the working trie.
func (m *MptOnce) Remove(key []byte) error { return m.tr.Delete(key) }

// Clear empties the working trie without touching committed history.
func (m *MptOnce) Clear() { m.tr.Clear() }

// IsEmpty reports whether the working trie holds no entries.
func (m *MptOnce) IsEmpty() bool { return m.tr.IsEmpty() }

// Root returns the root this handle is currently built on (the last
// committed root, or nil before any commit).
func (m *MptOnce) Root() []byte { return append([]byte(nil), m.root...) }

// Commit computes the new root, registers it in header_set, forks a
// fresh child backend parented under the current one, and rebuilds
// self on that child at the new root — so the backend that produced a
// root stays immutable history from then on.
func (m *MptOnce) Commit() ([]byte, error) {
	newRoot, err := m.tr.Commit()
	if err != nil {
		return nil, err
	}

	if v, err := m.store.headerSet.Get(newRoot); err != nil {
		return nil, err
	} else if v != nil {
		return nil, errors.Wrapf(ErrAlreadyExists, "root %x", newRoot)
	}
	if _, err := m.store.headerSet.Insert(newRoot, idBytes(m.backend.id)); err != nil {
		return nil, err
	}

	childRaw, err := dagmap.NewChild(m.backend.raw, fmt.Sprintf("%x", newRoot))
	if err != nil {
		return nil, err
	}
	childBackend, err := m.store.newBackend(childRaw)
	if err != nil {
		return nil, err
	}
	if _, err := m.store.meta.Insert(m.backendKey, idBytes(childBackend.id)); err != nil {
		return nil, err
	}

	restored, err := newMptOnce(m.store, m.backendKey, childBackend, newRoot)
	if err != nil {
		return nil, err
	}
	*m = *restored
	return newRoot, nil
}

// RoHandle returns a read-only view pinned to an arbitrary historical
// root still reachable through the current backend's read-through
// chain.
func (m *MptOnce) RoHandle(root []byte) (*MptRo, error) {
	ok, err := backendHasRoot(m.backend, root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "root %x not reachable from current backend", root)
	}
	tr, err := trie.New(root, m.backend)
	if err != nil {
		return nil, err
	}
	return &MptRo{tr: tr, root: append([]byte(nil), root...)}, nil
}

func lenPrefixed(b []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	return append(lenBuf[:], b...)
}

func readLenPrefixed(buf []byte) (val, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, nil, errors.Wrap(ErrShapeMismatch, "decode: truncated length prefix")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint64(len(buf)) < uint64(n) {
		return nil, nil, errors.Wrap(ErrShapeMismatch, "decode: truncated payload")
	}
	return buf[:n], buf[n:], nil
}

// Encode serializes (root, backend id, backend key) as a flat tuple.
// The backend and header_set themselves aren't re-serialized: Decode
// resolves the backend id against the MptStore that owns it.
func (m *MptOnce) Encode() []byte {
	buf := lenPrefixed(m.root)
	buf = append(buf, idBytes(m.backend.id)...)
	buf = append(buf, lenPrefixed(m.backendKey)...)
	return buf
}

// Decode reconstructs an MptOnce from Encode's output against store.
// Asserts the root, if non-empty, is at least hash-length — spec
// 4.E's "decode asserts root.len() >= hash_len".
func Decode(store *MptStore, buf []byte) (*MptOnce, error) {
	root, rest, err := readLenPrefixed(buf)
	if err != nil {
		return nil, err
	}
	if len(root) > 0 && len(root) < 32 {
		return nil, errors.Wrap(ErrShapeMismatch, "decode: root shorter than hash length")
	}
	if len(rest) < 8 {
		return nil, errors.Wrap(ErrShapeMismatch, "decode: truncated backend id")
	}
	id := idFromBytes(rest[:8])
	backendKey, _, err := readLenPrefixed(rest[8:])
	if err != nil {
		return nil, err
	}
	backend, ok := store.lookupBackend(id)
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "decode: backend id not registered")
	}
	return newMptOnce(store, backendKey, backend, root)
}
