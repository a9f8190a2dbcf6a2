// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "context"

// Bucket namespaces keys in an underlying store under a fixed byte prefix.
// It's used to share one physical Store among several logical key-spaces
// that never collide by construction.
type Bucket string

func (b Bucket) key(key []byte) []byte {
	if len(b) == 0 {
		return key
	}
	buf := make([]byte, 0, len(b)+len(key))
	buf = append(buf, b...)
	buf = append(buf, key...)
	return buf
}

// NewGetter wraps a Getter so all reads are relative to the bucket.
func (b Bucket) NewGetter(g Getter) Getter {
	return &bucketGetter{b, g}
}

// NewPutter wraps a Putter so all writes are relative to the bucket.
func (b Bucket) NewPutter(p Putter) Putter {
	return &bucketPutter{b, p}
}

// NewStore wraps a Store so the whole surface (including iteration and
// range deletion) is relative to the bucket.
func (b Bucket) NewStore(s Store) Store {
	return &bucketStore{b, s}
}

type bucketGetter struct {
	bucket Bucket
	Getter
}

func (bg *bucketGetter) Get(key []byte) ([]byte, error) {
	return bg.Getter.Get(bg.bucket.key(key))
}

func (bg *bucketGetter) Has(key []byte) (bool, error) {
	return bg.Getter.Has(bg.bucket.key(key))
}

type bucketPutter struct {
	bucket Bucket
	Putter
}

func (bp *bucketPutter) Put(key, val []byte) error {
	return bp.Putter.Put(bp.bucket.key(key), val)
}

func (bp *bucketPutter) Delete(key []byte) error {
	return bp.Putter.Delete(bp.bucket.key(key))
}

type bucketStore struct {
	bucket Bucket
	Store
}

func (bs *bucketStore) Get(key []byte) ([]byte, error) {
	return bs.Store.Get(bs.bucket.key(key))
}

func (bs *bucketStore) Has(key []byte) (bool, error) {
	return bs.Store.Has(bs.bucket.key(key))
}

func (bs *bucketStore) Put(key, val []byte) error {
	return bs.Store.Put(bs.bucket.key(key), val)
}

func (bs *bucketStore) Delete(key []byte) error {
	return bs.Store.Delete(bs.bucket.key(key))
}

func (bs *bucketStore) Iterate(rng Range) Iterator {
	it := bs.Store.Iterate(Range{Start: bs.bucket.key(rng.Start), Limit: bs.boundedLimit(rng.Limit)})
	return &bucketIterator{it, len(bs.bucket)}
}

// bucketIterator strips the bucket prefix from every key it yields.
type bucketIterator struct {
	Iterator
	n int
}

func (bi *bucketIterator) Key() []byte {
	k := bi.Iterator.Key()
	if len(k) < bi.n {
		return nil
	}
	return k[bi.n:]
}

func (bs *bucketStore) DeleteRange(ctx context.Context, rng Range) error {
	return bs.Store.DeleteRange(ctx, Range{Start: bs.bucket.key(rng.Start), Limit: bs.boundedLimit(rng.Limit)})
}

// boundedLimit computes the effective upper bound for an iteration or
// deletion confined to this bucket: an explicit limit is namespaced as
// usual, while a nil (unbounded) limit is replaced by the bucket's own
// upper bound so the scan never spills into the next bucket.
func (bs *bucketStore) boundedLimit(limit []byte) []byte {
	if limit != nil {
		return bs.bucket.key(limit)
	}
	return bucketUpperBound(bs.bucket)
}

// bucketUpperBound returns the smallest key strictly greater than every
// key within b, i.e. b's prefix incremented by one. Returns nil (truly
// unbounded) only when every byte of the prefix is already 0xff.
func bucketUpperBound(b Bucket) []byte {
	up := []byte(b)
	out := make([]byte, len(up))
	copy(out, up)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

func (bs *bucketStore) Bulk() Bulk {
	return &bucketBulk{bs.bucket, bs.Store.Bulk()}
}

func (bs *bucketStore) Snapshot() Snapshot {
	return &bucketSnapshot{bs.bucket, bs.Store.Snapshot()}
}

type bucketSnapshot struct {
	bucket Bucket
	Snapshot
}

func (bsn *bucketSnapshot) Get(key []byte) ([]byte, error) {
	return bsn.Snapshot.Get(bsn.bucket.key(key))
}

func (bsn *bucketSnapshot) Has(key []byte) (bool, error) {
	return bsn.Snapshot.Has(bsn.bucket.key(key))
}

type bucketBulk struct {
	bucket Bucket
	Bulk
}

func (bb *bucketBulk) Put(key, val []byte) error {
	return bb.Bulk.Put(bb.bucket.key(key), val)
}

func (bb *bucketBulk) Delete(key []byte) error {
	return bb.Bulk.Delete(bb.bucket.key(key))
}
