// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package trie implements a Merkle-Patricia Trie over Keccak-256 under
// LayoutV1: the hex-prefix nibble encoding and {full,short}Node wire
// shapes used throughout the go-ethereum/vechain-thor stack. Nodes are
// resolved lazily from a Database and hashed bottom-up on Commit.
package trie

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/mmdb/log"
)

var logger = log.New("pkg", "trie")

// EmptyRootHash is the root hash of a trie with no entries: the
// Keccak-256 of the RLP encoding of the empty byte string.
var EmptyRootHash = crypto.Keccak256([]byte{0x80})

func isEmptyRootHash(h []byte) bool {
	return bytes.Equal(h, EmptyRootHash)
}

// Trie is a mutable, hash-referenced Merkle-Patricia trie.
type Trie struct {
	db   Database
	root node
}

// New opens a trie at rootHash, or an empty trie if rootHash is nil or
// the canonical empty-root hash.
func New(rootHash []byte, db Database) (*Trie, error) {
	t := &Trie{db: db}
	if len(rootHash) == 0 || isEmptyRootHash(rootHash) {
		return t, nil
	}
	root, err := t.resolveHash(rootHash)
	if err != nil {
		return nil, fmt.Errorf("trie: open %x: %w", rootHash, err)
	}
	t.root = root
	return t, nil
}

// IsEmpty reports whether the trie currently holds no entries.
func (t *Trie) IsEmpty() bool { return t.root == nil }

// Clear empties the working tree. It does not erase already-committed
// nodes from the backing Database: those remain reachable through
// whatever historical root still references them.
func (t *Trie) Clear() {
	t.root = nil
}

// Get resolves key to its stored value, or nil if absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	v, err := t.get(t.root, keybytesToHex(key))
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Contains reports whether key is present.
func (t *Trie) Contains(key []byte) (bool, error) {
	v, err := t.Get(key)
	return v != nil, err
}

func (t *Trie) get(n node, key []byte) ([]byte, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case valueNode:
		return []byte(n), nil
	case *shortNode:
		if len(key) < len(n.Key) || !bytes.Equal(n.Key, key[:len(n.Key)]) {
			return nil, nil
		}
		return t.get(n.Val, key[len(n.Key):])
	case *fullNode:
		return t.get(n.Children[key[0]], key[1:])
	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return nil, err
		}
		return t.get(rn, key)
	default:
		return nil, fmt.Errorf("trie: get: invalid node type %T", n)
	}
}

// Insert writes val under key. An empty val is rejected: use Delete.
func (t *Trie) Insert(key, val []byte) error {
	if len(val) == 0 {
		return fmt.Errorf("trie: insert with empty value; use Delete")
	}
	root, err := t.insert(t.root, keybytesToHex(key), valueNode(val))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Trie) insert(n node, key []byte, value node) (node, error) {
	if len(key) == 0 {
		return value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen == len(n.Key) {
			nn, err := t.insert(n.Val, key[matchlen:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: nn}, nil
		}
		branch := &fullNode{}
		var err error
		branch.Children[n.Key[matchlen]], err = t.insert(nil, n.Key[matchlen+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[key[matchlen]], err = t.insert(nil, key[matchlen+1:], value)
		if err != nil {
			return nil, err
		}
		if matchlen == 0 {
			return branch, nil
		}
		return &shortNode{Key: append([]byte(nil), key[:matchlen]...), Val: branch}, nil
	case *fullNode:
		nn, err := t.insert(n.Children[key[0]], key[1:], value)
		if err != nil {
			return nil, err
		}
		cp := n.copy()
		cp.Children[key[0]] = nn
		return cp, nil
	case nil:
		return &shortNode{Key: append([]byte(nil), key...), Val: value}, nil
	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return nil, err
		}
		return t.insert(rn, key, value)
	default:
		return nil, fmt.Errorf("trie: insert: invalid node type %T", n)
	}
}

// Delete removes key. Absence is not an error.
func (t *Trie) Delete(key []byte) error {
	root, err := t.delete(t.root, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Trie) resolve(n node) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return t.resolveHash(hn)
	}
	return n, nil
}

func (t *Trie) delete(n node, key []byte) (node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case valueNode:
		return nil, nil
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return n, nil // key not present in this subtree
		}
		if matchlen == len(key) {
			return nil, nil
		}
		child, err := t.delete(n.Val, key[len(n.Key):])
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, nil
		}
		if cs, ok := child.(*shortNode); ok {
			return &shortNode{Key: append(append([]byte(nil), n.Key...), cs.Key...), Val: cs.Val}, nil
		}
		return &shortNode{Key: n.Key, Val: child}, nil
	case *fullNode:
		cp := n.copy()
		nn, err := t.delete(cp.Children[key[0]], key[1:])
		if err != nil {
			return nil, err
		}
		cp.Children[key[0]] = nn

		pos, count := -1, 0
		for i, c := range cp.Children {
			if c != nil {
				count++
				pos = i
			}
		}
		if count == 0 {
			return nil, nil
		}
		if count == 1 {
			if pos == 16 {
				return &shortNode{Key: []byte{16}, Val: cp.Children[16]}, nil
			}
			resolved, err := t.resolve(cp.Children[pos])
			if err != nil {
				return nil, err
			}
			if cs, ok := resolved.(*shortNode); ok {
				return &shortNode{Key: append([]byte{byte(pos)}, cs.Key...), Val: cs.Val}, nil
			}
			return &shortNode{Key: []byte{byte(pos)}, Val: cp.Children[pos]}, nil
		}
		return cp, nil
	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return nil, err
		}
		return t.delete(rn, key)
	default:
		return nil, fmt.Errorf("trie: delete: invalid node type %T", n)
	}
}

func (t *Trie) resolveHash(hash []byte) (node, error) {
	buf, err := t.db.Get(hash)
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, fmt.Errorf("trie: dangling node reference %x", hash)
	}
	return decodeNode(buf)
}

// Hash computes the trie's root hash without persisting any node.
func (t *Trie) Hash() ([]byte, error) {
	if t.root == nil {
		return append([]byte(nil), EmptyRootHash...), nil
	}
	hn, err := hashRec(t.root, true)
	if err != nil {
		return nil, err
	}
	h, ok := hn.(hashNode)
	if !ok {
		return nil, fmt.Errorf("trie: hash: root did not hash (encoding too small)")
	}
	return []byte(h), nil
}

func hashRec(n node, force bool) (node, error) {
	switch n := n.(type) {
	case *shortNode:
		childHashed, err := hashRec(n.Val, false)
		if err != nil {
			return nil, err
		}
		return hashOrEmbed(&shortNode{Key: n.Key, Val: childHashed}, force)
	case *fullNode:
		collapsed := &fullNode{}
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			ch, err := hashRec(c, i == 16)
			if err != nil {
				return nil, err
			}
			collapsed.Children[i] = ch
		}
		return hashOrEmbed(collapsed, force)
	default:
		return n, nil
	}
}

func hashOrEmbed(n node, force bool) (node, error) {
	enc, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	if len(enc) < hashLen && !force {
		return n, nil
	}
	return hashNode(crypto.Keccak256(enc)), nil
}

// Commit hashes the trie bottom-up, persists every node that crosses
// the embedding threshold into db, and returns the new root hash.
func (t *Trie) Commit() ([]byte, error) {
	if t.root == nil {
		return append([]byte(nil), EmptyRootHash...), nil
	}
	newRoot, err := t.commit(t.root, true)
	if err != nil {
		return nil, err
	}
	t.root = newRoot
	h, ok := newRoot.(hashNode)
	if !ok {
		return nil, fmt.Errorf("trie: commit: root did not hash")
	}
	return []byte(h), nil
}

func (t *Trie) commit(n node, force bool) (node, error) {
	switch n := n.(type) {
	case *shortNode:
		childCommitted, err := t.commit(n.Val, false)
		if err != nil {
			return nil, err
		}
		return t.store(&shortNode{Key: n.Key, Val: childCommitted}, force)
	case *fullNode:
		collapsed := &fullNode{}
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			ch, err := t.commit(c, i == 16)
			if err != nil {
				return nil, err
			}
			collapsed.Children[i] = ch
		}
		return t.store(collapsed, force)
	default:
		return n, nil
	}
}

func (t *Trie) store(n node, force bool) (node, error) {
	enc, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	if len(enc) < hashLen && !force {
		return n, nil
	}
	hash := crypto.Keccak256(enc)
	if err := t.db.Put(hash, enc); err != nil {
		return nil, err
	}
	return hashNode(hash), nil
}
