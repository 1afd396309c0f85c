// Package kv implements the byte-keyed ordered store every higher-level
// table in this indexer is built on: exact lookup, batch writes, and the
// "fuzzy" prefix-truncated range lookup (GetLeq) that every checkpointed
// read ("the latest value at or before checkpoint c") is expressed with.
//
// Grounded on kvq/src/traits.rs (the KVQStoreAdapter/KVQBinaryStore
// interface contract) and kvq/src/memory/simple.rs (the exact zero-suffix
// range-scan algorithm for GetLeq), backed by cockroachdb/pebble instead of
// the reduction's redb since Go has no redb binding in this corpus; pebble
// supplies the same ordered-byte-key store, snapshot reads, and batched
// atomic writes, plus on-disk checkpoints used for savepoints (see
// internal/indexer).
package kv

import (
	"bytes"
	"errors"
)

// ErrNotFound is returned by GetExact when the key is absent.
var ErrNotFound = errors.New("kv: key not found")

// ErrBadFuzzy is returned when the fuzzy byte count exceeds the key length.
var ErrBadFuzzy = errors.New("kv: fuzzy byte count exceeds key length")

// Pair is a key/value pair, used for batch writes and GetLeqKV results.
type Pair struct {
	Key   []byte
	Value []byte
}

// Reader is the read-only surface of the store, available from both a
// read-only transaction and an in-flight write batch (read-your-writes).
type Reader interface {
	// GetExact returns the value at key, or ErrNotFound if absent.
	GetExact(key []byte) ([]byte, error)

	// GetManyExact resolves each key in order; an absent key yields
	// ErrNotFound for that position without failing the whole batch.
	GetManyExact(keys [][]byte) ([][]byte, []error)

	// GetLeq zeroes the last fuzzy bytes of key to form a lower bound and
	// returns the value of the greatest key in [lowerBound, key). Returns
	// ok=false if no such key exists. Fails with ErrBadFuzzy if
	// fuzzy > len(key).
	GetLeq(key []byte, fuzzy int) (value []byte, ok bool, err error)

	// GetLeqKV is GetLeq but also returns the matched key.
	GetLeqKV(key []byte, fuzzy int) (pair Pair, ok bool, err error)

	// GetManyLeq applies GetLeq to each key, preserving order.
	GetManyLeq(keys [][]byte, fuzzy int) (values []Pair, oks []bool, err error)

	// Scan returns every pair in [lower, upperExclusive) in ascending key
	// order, the ordered-range primitive every multi-row table listing
	// (balances by address, all token infos, transferable assets by
	// address/ticker) is built on; mirrors redb's ReadableTable::range.
	Scan(lower, upperExclusive []byte) ([]Pair, error)
}

// Writer is the write surface of an open write batch.
type Writer interface {
	// Set inserts or overwrites key with value.
	Set(key, value []byte) error

	// SetMany applies all pairs as one atomic write-batch operation.
	SetMany(pairs []Pair) error

	// Delete removes key, reporting whether it was present.
	Delete(key []byte) (existed bool, err error)

	// DeleteMany applies Delete to each key in order.
	DeleteMany(keys [][]byte) (existed []bool, err error)
}

// ReadTxn is a read-only, consistent snapshot view of the store.
type ReadTxn interface {
	Reader
	Close() error
}

// WriteBatch is a buffered, atomically-committed read/write view.
type WriteBatch interface {
	Reader
	Writer
	// Commit durably applies the batch. The store always syncs on commit
	// ("immediate" durability) per the external-interfaces contract.
	Commit() error
	// Close discards the batch without committing.
	Close() error
}

// Store is the top-level handle to one ordered key-value database.
type Store interface {
	BeginRead() (ReadTxn, error)
	BeginWrite() (WriteBatch, error)
	// Checkpoint writes a consistent point-in-time copy of the database to
	// dir, the savepoint mechanism used by internal/indexer.
	Checkpoint(dir string) error
	Close() error
}

// leqLowerBound zeroes the last fuzzy bytes of key, returning the inclusive
// lower bound of the GetLeq scan range. key is not mutated.
func leqLowerBound(key []byte, fuzzy int) ([]byte, error) {
	if fuzzy > len(key) {
		return nil, ErrBadFuzzy
	}
	base := make([]byte, len(key))
	copy(base, key)
	for i := 0; i < fuzzy; i++ {
		base[len(base)-1-i] = 0
	}
	return base, nil
}

// withinRange reports whether candidate lies in [lower, upperExclusive).
func withinRange(candidate, lower, upperExclusive []byte) bool {
	return bytes.Compare(candidate, lower) >= 0 && bytes.Compare(candidate, upperExclusive) < 0
}
