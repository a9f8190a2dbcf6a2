// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package engine is the byte-level backend abstraction the rest of the
// storage stack is built on: it virtualizes one physical kv.Store into
// an unbounded number of prefix-namespaced instances, allocates the ids
// that name them, and keeps a length counter per instance under a
// small array of area mutexes.
package engine

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/mmdb/kv"
	"github.com/vechain/mmdb/log"
)

var logger = log.New("pkg", "engine")

// PrefixSize is the width, in bytes, of an allocated Prefix.
const PrefixSize = 8

// AreaCount is the number of area shards the length-counter mutex array
// is split across; kept small per spec (<=254).
const AreaCount = 64

// Prefix namespaces one logical instance's keyspace inside the engine.
type Prefix [PrefixSize]byte

// NullPrefix is the reserved all-zero prefix meaning "no instance".
var NullPrefix Prefix

// Bytes returns the prefix's raw byte representation.
func (p Prefix) Bytes() []byte { return p[:] }

// IsNull reports whether p is the reserved null prefix.
func (p Prefix) IsNull() bool { return p == NullPrefix }

// PrefixFromBytes adopts an existing prefix from its raw bytes.
func PrefixFromBytes(b []byte) (Prefix, error) {
	var p Prefix
	if len(b) != PrefixSize {
		return p, errShapeMismatch("prefix must be %d bytes, got %d", PrefixSize, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// areaIdx deterministically routes a prefix to one of AreaCount areas.
func areaIdx(p Prefix) int {
	return int(p[0]) % AreaCount
}

// Error kinds, per the fixed set of kinds the substrate distinguishes
// programmatically (spec section 7): not-found, already-exists,
// shape-mismatch, dirty-cache, engine-io, fatal.
var (
	ErrNotFound      = errors.New("engine: not found")
	ErrAlreadyExists = errors.New("engine: already exists")
	ErrFatal         = errors.New("engine: fatal invariant violation")
)

func errShapeMismatch(format string, args ...interface{}) error {
	return errors.Errorf("engine: shape mismatch: "+format, args...)
}

// IsNotFound reports whether err (or one of its causes) is ErrNotFound.
func IsNotFound(err error) bool { return errors.Cause(err) == ErrNotFound }

// IsFatal reports whether err (or one of its causes) is ErrFatal.
func IsFatal(err error) bool { return errors.Cause(err) == ErrFatal }

// Engine is the byte-level backend contract every higher layer (Mapx,
// DagMap, the trie) is built against.
type Engine interface {
	AllocPrefix() (Prefix, error)
	AllocBranchID() (uint64, error)
	AllocVersionID() (uint64, error)

	AreaCount() int

	Flush() error

	Get(prefix Prefix, key []byte) ([]byte, error)
	// Insert returns the previous value, if any. It does not itself
	// update the instance length counter.
	Insert(prefix Prefix, key, val []byte) ([]byte, error)
	// Remove returns the removed value, if any. It does not itself
	// update the instance length counter.
	Remove(prefix Prefix, key []byte) ([]byte, error)

	// Iter returns a double-ended iterator over every (key, value) in
	// prefix's keyspace, in engine key order. Keys are yielded with the
	// prefix already stripped.
	Iter(prefix Prefix) kv.Iterator
	// Range is like Iter but bounded to [start, limit) within the
	// prefix's keyspace.
	Range(prefix Prefix, start, limit []byte) kv.Iterator

	GetInstanceLen(prefix Prefix) (uint64, error)
	SetInstanceLen(prefix Prefix, n uint64) error
	IncreaseInstanceLen(prefix Prefix) (uint64, error)
	DecreaseInstanceLen(prefix Prefix) (uint64, error)

	IsNotFound(err error) bool
}

const (
	counterNextPrefix = "cnt:prefix"
	counterNextBrID   = "cnt:br"
	counterNextVerID  = "cnt:ver"
	lenKeySuffix      = "\xff\xfflen"
)

// engine is the concrete, general Engine implementation over any
// kv.Store (leveldb for persistence, memdb for ephemeral/test use).
type engine struct {
	data kv.Store // user keys, namespaced "d"
	meta kv.Store // counters + length registry, namespaced "m"

	areaMu    [AreaCount]sync.Mutex
	counterMu sync.Mutex
}

// New wraps store as an Engine, splitting its keyspace into a data
// bucket and a meta bucket (counters, length registry).
func New(store kv.Store) Engine {
	return &engine{
		data: kv.Bucket("d").NewStore(store),
		meta: kv.Bucket("m").NewStore(store),
	}
}

func (e *engine) allocCounter(key string) (uint64, error) {
	e.counterMu.Lock()
	defer e.counterMu.Unlock()

	cur, err := e.readCounter(key)
	if err != nil {
		return 0, err
	}
	next := cur + 1
	if next == 0 {
		return 0, errors.Wrap(ErrFatal, "counter exhausted")
	}
	if err := e.writeCounter(key, next); err != nil {
		return 0, err
	}
	return cur, nil
}

func (e *engine) readCounter(key string) (uint64, error) {
	v, err := e.meta.Get([]byte(key))
	if err != nil {
		if e.meta.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "engine: read counter")
	}
	return binary.BigEndian.Uint64(v), nil
}

func (e *engine) writeCounter(key string, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	if err := e.meta.Put([]byte(key), buf); err != nil {
		return errors.Wrap(err, "engine: write counter")
	}
	return nil
}

func (e *engine) AllocPrefix() (Prefix, error) {
	n, err := e.allocCounter(counterNextPrefix)
	if err != nil {
		return Prefix{}, err
	}
	// reserve prefix 0 as NullPrefix; counters start at 0 so bump once.
	if n == 0 {
		n, err = e.allocCounter(counterNextPrefix)
		if err != nil {
			return Prefix{}, err
		}
	}
	var p Prefix
	binary.BigEndian.PutUint64(p[:], n)
	metricPrefixAllocCount().Add(1)
	return p, nil
}

func (e *engine) AllocBranchID() (uint64, error) { return e.allocCounter(counterNextBrID) }
func (e *engine) AllocVersionID() (uint64, error) { return e.allocCounter(counterNextVerID) }

func (e *engine) AreaCount() int { return AreaCount }

func (e *engine) Flush() error {
	start := time.Now()
	defer func() { metricFlushDuration().Observe(time.Since(start).Milliseconds()) }()

	type flusher interface{ Flush() error }
	for _, s := range []kv.Store{e.data, e.meta} {
		if f, ok := s.(flusher); ok {
			if err := f.Flush(); err != nil {
				return errors.Wrap(err, "engine: flush")
			}
		}
	}
	return nil
}

func storeKey(prefix Prefix, key []byte) []byte {
	buf := make([]byte, PrefixSize+len(key))
	copy(buf, prefix[:])
	copy(buf[PrefixSize:], key)
	return buf
}

func (e *engine) Get(prefix Prefix, key []byte) ([]byte, error) {
	v, err := e.data.Get(storeKey(prefix, key))
	if err != nil {
		if e.data.IsNotFound(err) {
			return nil, errors.WithStack(ErrNotFound)
		}
		return nil, errors.Wrap(err, "engine: get")
	}
	return v, nil
}

func (e *engine) Insert(prefix Prefix, key, val []byte) ([]byte, error) {
	prev, err := e.Get(prefix, key)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	if err := e.data.Put(storeKey(prefix, key), val); err != nil {
		return nil, errors.Wrap(err, "engine: insert")
	}
	if IsNotFound(err) {
		return nil, nil
	}
	return prev, nil
}

func (e *engine) Remove(prefix Prefix, key []byte) ([]byte, error) {
	prev, err := e.Get(prefix, key)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := e.data.Delete(storeKey(prefix, key)); err != nil {
		return nil, errors.Wrap(err, "engine: remove")
	}
	return prev, nil
}

func (e *engine) Iter(prefix Prefix) kv.Iterator {
	return e.Range(prefix, nil, nil)
}

func (e *engine) Range(prefix Prefix, start, limit []byte) kv.Iterator {
	lo := storeKey(prefix, start)
	var hi []byte
	if limit == nil {
		hi = prefixUpperBound(prefix)
	} else {
		hi = storeKey(prefix, limit)
	}
	return &strippingIterator{
		prefix: prefix,
		inner:  e.data.Iterate(kv.Range{Start: lo, Limit: hi}),
	}
}

// prefixUpperBound returns the smallest key strictly greater than every
// key sharing prefix, i.e. prefix incremented by one.
func prefixUpperBound(prefix Prefix) []byte {
	up := append([]byte(nil), prefix[:]...)
	for i := len(up) - 1; i >= 0; i-- {
		if up[i] < 0xff {
			up[i]++
			return up
		}
		up[i] = 0
	}
	return nil // prefix is all 0xff: unbounded
}

// strippingIterator adapts a kv.Iterator over storeKey-prefixed keys to
// one whose Key() is already prefix-stripped.
type strippingIterator struct {
	prefix Prefix
	inner  kv.Iterator
}

func (it *strippingIterator) First() bool { return it.inner.First() }
func (it *strippingIterator) Last() bool  { return it.inner.Last() }
func (it *strippingIterator) Next() bool  { return it.inner.Next() }
func (it *strippingIterator) Prev() bool  { return it.inner.Prev() }
func (it *strippingIterator) Value() []byte { return it.inner.Value() }
func (it *strippingIterator) Error() error  { return it.inner.Error() }
func (it *strippingIterator) Release()      { it.inner.Release() }
func (it *strippingIterator) Key() []byte {
	k := it.inner.Key()
	if len(k) < PrefixSize {
		return nil
	}
	return k[PrefixSize:]
}

func lenKey(prefix Prefix) []byte {
	return append(append([]byte(nil), prefix[:]...), lenKeySuffix...)
}

func (e *engine) GetInstanceLen(prefix Prefix) (uint64, error) {
	v, err := e.meta.Get(lenKey(prefix))
	if err != nil {
		if e.meta.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "engine: get instance len")
	}
	if len(v) != 8 {
		return 0, errors.Wrap(ErrFatal, "corrupted length counter")
	}
	return binary.BigEndian.Uint64(v), nil
}

func (e *engine) SetInstanceLen(prefix Prefix, n uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	if err := e.meta.Put(lenKey(prefix), buf); err != nil {
		return errors.Wrap(err, "engine: set instance len")
	}
	return nil
}

func (e *engine) IncreaseInstanceLen(prefix Prefix) (uint64, error) {
	mu := &e.areaMu[areaIdx(prefix)]
	mu.Lock()
	defer mu.Unlock()

	n, err := e.GetInstanceLen(prefix)
	if err != nil {
		return 0, err
	}
	n++
	if err := e.SetInstanceLen(prefix, n); err != nil {
		return 0, err
	}
	return n, nil
}

func (e *engine) DecreaseInstanceLen(prefix Prefix) (uint64, error) {
	mu := &e.areaMu[areaIdx(prefix)]
	mu.Lock()
	defer mu.Unlock()

	n, err := e.GetInstanceLen(prefix)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.Wrapf(ErrFatal, "instance length underflow")
	}
	n--
	if err := e.SetInstanceLen(prefix, n); err != nil {
		return 0, err
	}
	return n, nil
}

func (e *engine) IsNotFound(err error) bool { return IsNotFound(err) }

// ResolveBaseDir resolves the on-disk data directory: an explicit path
// wins, then $MMDB_DATA_DIR, then the platform default $HOME/.mmdb.
func ResolveBaseDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if v := os.Getenv("MMDB_DATA_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "engine: resolve base dir")
	}
	return filepath.Join(home, ".mmdb"), nil
}
