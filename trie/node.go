// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

const hashLen = 32

// node is any of the four LayoutV1 node kinds: fullNode (17-way branch),
// shortNode (extension or leaf), hashNode (a reference to a node stored
// under its hash), and valueNode (a leaf payload).
type node interface {
	fstring(indent string) string
}

type (
	fullNode struct {
		Children [17]node // children[16] holds a value for a branch that is itself a leaf
	}
	shortNode struct {
		Key []byte // hex-encoded, possibly terminated
		Val node
	}
	hashNode  []byte
	valueNode []byte
)

func (n *fullNode) copy() *fullNode {
	c := *n
	return &c
}

func (n *fullNode) EncodeRLP() ([]byte, error) {
	var raws [17]rlp.RawValue
	for i, c := range n.Children {
		raws[i] = encodeChildRLP(c)
	}
	return rlp.EncodeToBytes(raws)
}

func (n *shortNode) EncodeRLP() ([]byte, error) {
	return rlp.EncodeToBytes([]rlp.RawValue{
		mustEncode(compactEncode(n.Key)),
		encodeChildRLP(n.Val),
	})
}

func encodeChildRLP(n node) rlp.RawValue {
	if n == nil {
		return mustEncode([]byte(nil))
	}
	switch n := n.(type) {
	case hashNode:
		return mustEncode([]byte(n))
	case valueNode:
		return mustEncode([]byte(n))
	default:
		b, err := encodeNode(n)
		if err != nil {
			panic(err)
		}
		return b
	}
}

func mustEncode(v interface{}) rlp.RawValue {
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(err)
	}
	return b
}

// encodeNode RLP-encodes a full or short node for hashing/storage.
func encodeNode(n node) ([]byte, error) {
	switch n := n.(type) {
	case *fullNode:
		return n.EncodeRLP()
	case *shortNode:
		return n.EncodeRLP()
	case hashNode:
		return rlp.EncodeToBytes([]byte(n))
	case valueNode:
		return rlp.EncodeToBytes([]byte(n))
	default:
		return nil, fmt.Errorf("trie: cannot encode node of type %T", n)
	}
}

// decodeNode parses an RLP-encoded node read from storage. buf must be
// a 2-item list (shortNode) or a 17-item list (fullNode).
func decodeNode(buf []byte) (node, error) {
	var raws []rlp.RawValue
	if err := rlp.DecodeBytes(buf, &raws); err != nil {
		return nil, fmt.Errorf("trie: decode node: %w", err)
	}
	switch len(raws) {
	case 2:
		var keyCompact []byte
		if err := rlp.DecodeBytes(raws[0], &keyCompact); err != nil {
			return nil, fmt.Errorf("trie: decode short node key: %w", err)
		}
		key := compactDecode(keyCompact)
		val, err := decodeChild(raws[1], hasTerm(key))
		if err != nil {
			return nil, err
		}
		return &shortNode{Key: key, Val: val}, nil
	case 17:
		fn := &fullNode{}
		for i := 0; i < 16; i++ {
			c, err := decodeChild(raws[i], false)
			if err != nil {
				return nil, err
			}
			fn.Children[i] = c
		}
		var v []byte
		if err := rlp.DecodeBytes(raws[16], &v); err != nil {
			return nil, fmt.Errorf("trie: decode full node value: %w", err)
		}
		if len(v) > 0 {
			fn.Children[16] = valueNode(v)
		}
		return fn, nil
	default:
		return nil, fmt.Errorf("trie: invalid node: %d items", len(raws))
	}
}

func decodeChild(raw rlp.RawValue, leaf bool) (node, error) {
	if kind, _, _, err := rlp.Split(raw); err == nil && kind == rlp.List {
		return decodeNode(raw)
	}
	var b []byte
	if err := rlp.DecodeBytes(raw, &b); err != nil {
		return nil, fmt.Errorf("trie: decode child: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	if leaf {
		return valueNode(b), nil
	}
	if len(b) == hashLen {
		return hashNode(b), nil
	}
	return valueNode(b), nil
}

func (n *fullNode) fstring(ind string) string {
	resp := "[\n" + ind + "  "
	for i, node := range &n.Children {
		if node == nil {
			resp += fmt.Sprintf("%s: <nil> ", indices[i])
		} else {
			resp += fmt.Sprintf("%s: %v", indices[i], node.fstring(ind+"  "))
		}
	}
	return resp + "\n" + ind + "]"
}
func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}
func (n hashNode) fstring(string) string  { return fmt.Sprintf("<%x> ", []byte(n)) }
func (n valueNode) fstring(string) string { return fmt.Sprintf("%x ", []byte(n)) }

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[17]"}
