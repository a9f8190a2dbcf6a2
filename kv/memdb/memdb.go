// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package memdb implements an in-memory kv.Store: a map plus a sorted key
// slice, ordered bytewise like the persistent backend.
package memdb

import (
	"context"
	"sort"
	"sync"

	"github.com/vechain/mmdb/kv"
)

// MemDB is an in-memory, ordered kv.Store.
type MemDB struct {
	lock sync.RWMutex
	m    map[string][]byte
	keys []string // kept sorted
}

// New creates an empty in-memory store.
func New() *MemDB {
	return &MemDB{m: make(map[string][]byte)}
}

func (db *MemDB) search(key string) int {
	return sort.Search(len(db.keys), func(i int) bool { return db.keys[i] >= key })
}

// Get implements kv.Store.
func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	v, ok := db.m[string(key)]
	if !ok {
		return nil, errNotFound
	}
	cpy := make([]byte, len(v))
	copy(cpy, v)
	return cpy, nil
}

// Has implements kv.Store.
func (db *MemDB) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	_, ok := db.m[string(key)]
	return ok, nil
}

// Put implements kv.Store.
func (db *MemDB) Put(key, val []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.put(key, val)
	return nil
}

func (db *MemDB) put(key, val []byte) {
	k := string(key)
	if _, ok := db.m[k]; !ok {
		i := db.search(k)
		db.keys = append(db.keys, "")
		copy(db.keys[i+1:], db.keys[i:])
		db.keys[i] = k
	}
	cpy := make([]byte, len(val))
	copy(cpy, val)
	db.m[k] = cpy
}

// Delete implements kv.Store.
func (db *MemDB) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.del(key)
	return nil
}

func (db *MemDB) del(key []byte) {
	k := string(key)
	if _, ok := db.m[k]; !ok {
		return
	}
	delete(db.m, k)
	i := db.search(k)
	db.keys = append(db.keys[:i], db.keys[i+1:]...)
}

// IsNotFound implements kv.Store.
func (db *MemDB) IsNotFound(err error) bool {
	return err == errNotFound
}

// DeleteRange implements kv.Store.
func (db *MemDB) DeleteRange(_ context.Context, rng kv.Range) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	start := db.search(string(rng.Start))
	end := len(db.keys)
	if rng.Limit != nil {
		end = db.search(string(rng.Limit))
	}
	victims := append([]string(nil), db.keys[start:end]...)
	for _, k := range victims {
		delete(db.m, k)
	}
	db.keys = append(db.keys[:start], db.keys[end:]...)
	return nil
}

// Iterate implements kv.Store.
func (db *MemDB) Iterate(rng kv.Range) kv.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	start := db.search(string(rng.Start))
	end := len(db.keys)
	if rng.Limit != nil {
		end = db.search(string(rng.Limit))
	}
	keys := append([]string(nil), db.keys[start:end]...)
	return &iterator{db: db, keys: keys, pos: -1}
}

// Bulk implements kv.Store.
func (db *MemDB) Bulk() kv.Bulk {
	return &bulk{db: db}
}

// Snapshot implements kv.Store.
func (db *MemDB) Snapshot() kv.Snapshot {
	db.lock.RLock()
	defer db.lock.RUnlock()
	cpy := make(map[string][]byte, len(db.m))
	for k, v := range db.m {
		cpy[k] = append([]byte(nil), v...)
	}
	return &snapshot{m: cpy}
}

type iterator struct {
	db   *MemDB
	keys []string
	pos  int
}

func (it *iterator) First() bool {
	if len(it.keys) == 0 {
		return false
	}
	it.pos = 0
	return true
}

func (it *iterator) Last() bool {
	if len(it.keys) == 0 {
		return false
	}
	it.pos = len(it.keys) - 1
	return true
}

func (it *iterator) Next() bool {
	if it.pos+1 >= len(it.keys) {
		it.pos = len(it.keys)
		return false
	}
	it.pos++
	return true
}

func (it *iterator) Prev() bool {
	if it.pos <= 0 {
		it.pos = -1
		return false
	}
	it.pos--
	return true
}

func (it *iterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	return []byte(it.keys[it.pos])
}

func (it *iterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	it.db.lock.RLock()
	defer it.db.lock.RUnlock()
	return it.db.m[it.keys[it.pos]]
}

func (it *iterator) Error() error { return nil }
func (it *iterator) Release()     {}

type bulk struct {
	db      *MemDB
	puts    [][2][]byte
	deletes [][]byte
	auto    bool
}

func (b *bulk) Put(key, val []byte) error {
	b.puts = append(b.puts, [2][]byte{append([]byte(nil), key...), append([]byte(nil), val...)})
	if b.auto && len(b.puts)+len(b.deletes) >= 256 {
		return b.Write()
	}
	return nil
}

func (b *bulk) Delete(key []byte) error {
	b.deletes = append(b.deletes, append([]byte(nil), key...))
	if b.auto && len(b.puts)+len(b.deletes) >= 256 {
		return b.Write()
	}
	return nil
}

func (b *bulk) EnableAutoFlush() { b.auto = true }

func (b *bulk) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()
	for _, kv := range b.puts {
		b.db.put(kv[0], kv[1])
	}
	for _, k := range b.deletes {
		b.db.del(k)
	}
	b.puts = b.puts[:0]
	b.deletes = b.deletes[:0]
	return nil
}

type snapshot struct {
	m map[string][]byte
}

func (s *snapshot) Get(key []byte) ([]byte, error) {
	v, ok := s.m[string(key)]
	if !ok {
		return nil, errNotFound
	}
	return v, nil
}

func (s *snapshot) Has(key []byte) (bool, error) {
	_, ok := s.m[string(key)]
	return ok, nil
}

func (s *snapshot) IsNotFound(err error) bool { return err == errNotFound }
func (s *snapshot) Release()                  {}

var errNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "memdb: not found" }
