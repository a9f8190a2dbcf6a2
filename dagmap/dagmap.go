// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dagmap implements the copy-on-write overlay DAG: a tree of
// Mapx-backed nodes with parent-chain read-through and a prune
// operation that collapses a mainline branch into its root while
// destroying every sibling subtree.
package dagmap

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/mmdb/engine"
	"github.com/vechain/mmdb/log"
	"github.com/vechain/mmdb/mapx"
)

var logger = log.New("pkg", "dagmap")

// ErrAlreadyExists is returned by NewChild when id collides with an
// existing child of the same parent.
var ErrAlreadyExists = errors.New("dagmap: child id already exists")

// ErrFatal flags a broken parent/child back-pointer invariant.
var ErrFatal = errors.New("dagmap: fatal invariant violation")

// DagMapRaw is one node of the overlay DAG: its own Mapx data, a
// nullable weak parent link, and a map of child-id to child node.
type DagMapRaw struct {
	eng  engine.Engine
	data *mapx.Mapx

	mu       sync.Mutex
	id       string
	parent   *DagMapRaw
	children map[string]*DagMapRaw
}

// NewRoot creates a parentless node: the genesis of a new DAG.
func NewRoot(eng engine.Engine) (*DagMapRaw, error) {
	d, err := mapx.New(eng)
	if err != nil {
		return nil, errors.Wrap(err, "dagmap: new root")
	}
	return &DagMapRaw{
		eng:      eng,
		data:     d,
		children: make(map[string]*DagMapRaw),
	}, nil
}

// NewChild creates a fresh node parented under parent and registered
// there under id. Fails if parent already has a child with that id.
func NewChild(parent *DagMapRaw, id string) (*DagMapRaw, error) {
	parent.mu.Lock()
	defer parent.mu.Unlock()

	if _, ok := parent.children[id]; ok {
		return nil, errors.Wrapf(ErrAlreadyExists, "child id %q", id)
	}
	d, err := mapx.New(parent.eng)
	if err != nil {
		return nil, errors.Wrap(err, "dagmap: new child")
	}
	child := &DagMapRaw{
		eng:      parent.eng,
		data:     d,
		id:       id,
		parent:   parent,
		children: make(map[string]*DagMapRaw),
	}
	parent.children[id] = child
	return child, nil
}

// ID returns the id this node was registered under in its parent
// (empty for a root node).
func (n *DagMapRaw) ID() string { return n.id }

// Parent returns the parent node, or nil at the root.
func (n *DagMapRaw) Parent() *DagMapRaw { return n.parent }

// Child returns the named child, if any.
func (n *DagMapRaw) Child(id string) (*DagMapRaw, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.children[id]
	return c, ok
}

// Get walks from n root-upward, returning the first non-tombstone hit.
// A key physically present locally (even with an empty value) shadows
// any ancestor and stops the search there.
func (n *DagMapRaw) Get(key []byte) ([]byte, error) {
	v, err := n.data.Get(key)
	if err != nil {
		return nil, err
	}
	if v != nil {
		if len(v) == 0 {
			return nil, nil // tombstone
		}
		return v, nil
	}
	if n.parent == nil {
		return nil, nil
	}
	return n.parent.Get(key)
}

// Insert writes val under key in this node's own data and returns the
// previous local value, if any (ancestors are not consulted: a local
// absence still shadows nothing until a write actually happens here).
func (n *DagMapRaw) Insert(key, val []byte) ([]byte, error) {
	return n.data.Insert(key, val)
}

// InsertDirect is Insert under another name, kept distinct because the
// cached variant's Insert means something different (stage into the
// write cache); callers that know they're operating on an uncached
// node, or that are implementing commit/flush, call this explicitly.
func (n *DagMapRaw) InsertDirect(key, val []byte) ([]byte, error) {
	return n.data.Insert(key, val)
}

// Remove tombstones key: a write of an empty value, not a physical
// delete, since an ancestor may still hold the key.
func (n *DagMapRaw) Remove(key []byte) ([]byte, error) {
	return n.data.Insert(key, []byte{})
}

// RemoveDirect is Remove under another name; see InsertDirect.
func (n *DagMapRaw) RemoveDirect(key []byte) ([]byte, error) {
	return n.Remove(key)
}

// Destroy detaches n from its parent, clears its data, then
// recursively destroys every child. The children map is cleared before
// recursing so the recursion is tail-safe even at depth.
func (n *DagMapRaw) Destroy() error {
	n.mu.Lock()
	children := n.children
	n.children = nil
	n.mu.Unlock()

	if n.parent != nil {
		n.parent.detachChild(n.id)
		n.parent = nil
	}
	if err := n.data.Clear(); err != nil {
		return errors.Wrap(err, "dagmap: destroy")
	}
	metricDestroyCount().Add(1)
	for _, c := range children {
		if err := c.Destroy(); err != nil {
			return err
		}
	}
	return nil
}

func (n *DagMapRaw) detachChild(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.children != nil {
		delete(n.children, id)
	}
}

// IsDead reports whether n carries no data, has no parent, and has no
// children — the spec's definition of a dead node.
func (n *DagMapRaw) IsDead() (bool, error) {
	if n.parent != nil {
		return false, nil
	}
	n.mu.Lock()
	hasChildren := len(n.children) > 0
	n.mu.Unlock()
	if hasChildren {
		return false, nil
	}
	entries, err := n.data.Iter()
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// pruneChildren destroys every child of n not named in keep. Exposed
// under two names (PruneChildrenExclude / PruneChildrenInclude) for
// call-site clarity: Prune's mainline collapse (which MptStore's
// TriePrune goes through) calls it with the re-parented ids to exclude
// from destruction; the Include name takes the same list as an
// allow-list to keep — the operation performed is identical either way.
func (n *DagMapRaw) pruneChildren(keep map[string]bool) error {
	n.mu.Lock()
	victims := make([]*DagMapRaw, 0, len(n.children))
	for id, c := range n.children {
		if !keep[id] {
			victims = append(victims, c)
		}
	}
	n.mu.Unlock()

	for _, c := range victims {
		if err := c.Destroy(); err != nil {
			return err
		}
	}
	return nil
}

// PruneChildrenExclude destroys every child whose id is not in keepIDs.
func (n *DagMapRaw) PruneChildrenExclude(keepIDs []string) error {
	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}
	return n.pruneChildren(keep)
}

// PruneChildrenInclude is PruneChildrenExclude under the name used by
// call sites that think in terms of an explicit allow-list rather than
// an exclusion set; the operation is identical.
func (n *DagMapRaw) PruneChildrenInclude(keepIDs []string) error {
	return n.PruneChildrenExclude(keepIDs)
}

// Prune collapses the mainline from n (the branch head) down to the
// root, folding every ancestor's data into the root ("genesis") in
// oldest-to-newest order so n's own writes win, re-parenting n's
// children onto genesis, and destroying every sibling subtree that
// prune leaves behind. Returns genesis, the new head.
func (n *DagMapRaw) Prune() (*DagMapRaw, error) {
	chain := []*DagMapRaw{n}
	for p := n.parent; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	genesis := chain[len(chain)-1]
	if genesis == n {
		return n, nil // already the root; nothing to fold
	}

	// chain = [n, ..., genesis]; fold everyone but genesis into it,
	// oldest (closest to genesis) first, n (newest) last.
	toApply := chain[:len(chain)-1]
	for i, j := 0, len(toApply)-1; i < j; i, j = i+1, j-1 {
		toApply[i], toApply[j] = toApply[j], toApply[i]
	}
	for _, anc := range toApply {
		entries, err := anc.data.Iter()
		if err != nil {
			return nil, errors.Wrap(err, "dagmap: prune: read ancestor")
		}
		for _, e := range entries {
			if _, err := genesis.data.Insert(e.Key, e.Value); err != nil {
				return nil, errors.Wrap(err, "dagmap: prune: fold into genesis")
			}
		}
	}

	n.mu.Lock()
	moved := n.children
	n.children = make(map[string]*DagMapRaw)
	n.mu.Unlock()

	genesis.mu.Lock()
	if genesis.children == nil {
		genesis.children = make(map[string]*DagMapRaw)
	}
	keepIDs := make([]string, 0, len(moved))
	for id, c := range moved {
		c.parent = genesis
		genesis.children[id] = c
		keepIDs = append(keepIDs, id)
	}
	genesis.mu.Unlock()

	if err := genesis.PruneChildrenExclude(keepIDs); err != nil {
		return nil, errors.Wrap(err, "dagmap: prune: destroy siblings")
	}

	genesis.parent = nil
	metricPruneCount().Add(1)
	return genesis, nil
}
