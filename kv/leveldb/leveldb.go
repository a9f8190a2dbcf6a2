// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package leveldb implements a persistent, log-structured kv.Store on top
// of goleveldb. It is the production Engine backend (spec: "a log-structured
// store, RocksDB-family").
package leveldb

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/mmdb/kv"
)

// Options configures a LevelDB instance.
type Options struct {
	// CacheMB sizes leveldb's block cache, which is given half this
	// many MB.
	CacheMB int
	// WriteBufferMB sizes leveldb's write buffer, which is given half
	// this many MB.
	WriteBufferMB int
	// OpenFilesCacheCapacity bounds the number of open file descriptors.
	OpenFilesCacheCapacity int
}

// LevelDB is a persistent kv.Store backed by goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates a LevelDB instance at path.
func New(path string, opts Options) (*LevelDB, error) {
	cache := opts.CacheMB
	if cache <= 0 {
		cache = 8
	}
	wb := opts.WriteBufferMB
	if wb <= 0 {
		wb = 8
	}
	ofc := opts.OpenFilesCacheCapacity
	if ofc <= 0 {
		ofc = 16
	}

	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: ofc,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            wb / 2 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*storage.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &LevelDB{db}, nil
}

// NewMem opens an ephemeral LevelDB instance backed by goleveldb's
// in-memory storage layer. Useful for tests that want the real codec/iterator
// semantics without touching disk.
func NewMem() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db}, nil
}

// Close closes the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Stats forwards to the underlying goleveldb stats API.
func (l *LevelDB) Stats(s *leveldb.DBStats) error {
	return l.db.Stats(s)
}

// Get implements kv.Store.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	return l.db.Get(key, nil)
}

// Has implements kv.Store.
func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

// Put implements kv.Store.
func (l *LevelDB) Put(key, val []byte) error {
	return l.db.Put(key, val, nil)
}

// Delete implements kv.Store.
func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

// IsNotFound implements kv.Store.
func (l *LevelDB) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

// DeleteRange implements kv.Store.
func (l *LevelDB) DeleteRange(ctx context.Context, rng kv.Range) error {
	it := l.db.NewIterator(&util.Range{Start: rng.Start, Limit: rng.Limit}, nil)
	defer it.Release()

	batch := new(leveldb.Batch)
	const flushEvery = 4096
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
		if batch.Len() >= flushEvery {
			if err := l.db.Write(batch, nil); err != nil {
				return err
			}
			batch.Reset()
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	if batch.Len() > 0 {
		return l.db.Write(batch, nil)
	}
	return nil
}

// Iterate implements kv.Store.
func (l *LevelDB) Iterate(rng kv.Range) kv.Iterator {
	return l.db.NewIterator(&util.Range{Start: rng.Start, Limit: rng.Limit}, nil)
}

// Bulk implements kv.Store.
func (l *LevelDB) Bulk() kv.Bulk {
	return &bulk{db: l.db, batch: new(leveldb.Batch)}
}

// Snapshot implements kv.Store.
func (l *LevelDB) Snapshot() kv.Snapshot {
	snap, err := l.db.GetSnapshot()
	if err != nil {
		return &errSnapshot{err}
	}
	return &snapshot{snap}
}

type bulk struct {
	db    *leveldb.DB
	batch *leveldb.Batch
	auto  bool
}

func (b *bulk) Put(key, val []byte) error {
	b.batch.Put(key, val)
	if b.auto && b.batch.Len() >= 4096 {
		return b.Write()
	}
	return nil
}

func (b *bulk) Delete(key []byte) error {
	b.batch.Delete(key)
	if b.auto && b.batch.Len() >= 4096 {
		return b.Write()
	}
	return nil
}

func (b *bulk) EnableAutoFlush() { b.auto = true }

func (b *bulk) Write() error {
	if b.batch.Len() == 0 {
		return nil
	}
	err := b.db.Write(b.batch, nil)
	b.batch.Reset()
	return err
}

type snapshot struct {
	snap *leveldb.Snapshot
}

func (s *snapshot) Get(key []byte) ([]byte, error) {
	return s.snap.Get(key, nil)
}

func (s *snapshot) Has(key []byte) (bool, error) {
	return s.snap.Has(key, nil)
}

func (s *snapshot) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (s *snapshot) Release() {
	s.snap.Release()
}

// errSnapshot is returned when taking a snapshot fails (e.g. db closed);
// every call surfaces the original error instead of panicking.
type errSnapshot struct {
	err error
}

func (s *errSnapshot) Get([]byte) ([]byte, error) { return nil, s.err }
func (s *errSnapshot) Has([]byte) (bool, error)   { return false, s.err }
func (s *errSnapshot) IsNotFound(err error) bool  { return err == leveldb.ErrNotFound }
func (s *errSnapshot) Release()                   {}
