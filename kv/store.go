// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the byte-level key-value contract that every Engine
// backend must satisfy, independent of the on-disk format actually used.
package kv

import "context"

// Getter defines methods to read from a key-value store.
type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// IsNotFound returns whether the given error means key not found.
	IsNotFound(err error) bool
}

// Putter defines methods to write to a key-value store.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// GetPutter combines Getter and Putter.
type GetPutter interface {
	Getter
	Putter
}

// Range describes a half-open byte-key range [Start, Limit).
// A nil Limit means unbounded above.
type Range struct {
	Start []byte
	Limit []byte
}

// Iterator iterates over a key range in key order and can run both ways.
type Iterator interface {
	First() bool
	Last() bool
	Next() bool
	Prev() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

// Bulk batches a set of mutations for efficient one-shot application.
type Bulk interface {
	Putter
	// EnableAutoFlush makes the bulk writer flush itself once it accumulates
	// enough pending mutations, instead of buffering them all until Write.
	EnableAutoFlush()
	Write() error
}

// Snapshot is a point-in-time, read-only view of a Store.
type Snapshot interface {
	Getter
	Release()
}

// Store is the full byte-level interface an Engine backend exposes.
type Store interface {
	GetPutter
	Iterate(rng Range) Iterator
	DeleteRange(ctx context.Context, rng Range) error
	Bulk() Bulk
	Snapshot() Snapshot
}
