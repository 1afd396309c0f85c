package kv

import (
	"github.com/cockroachdb/pebble/v2"
)

// PebbleStore adapts a *pebble.DB to the Store interface.
type PebbleStore struct {
	db *pebble.DB
}

// Open opens (creating if absent) a pebble database at dir.
func Open(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) BeginRead() (ReadTxn, error) {
	return &pebbleReadTxn{snap: s.db.NewSnapshot()}, nil
}

func (s *PebbleStore) BeginWrite() (WriteBatch, error) {
	return &pebbleWriteBatch{db: s.db, batch: s.db.NewIndexedBatch()}, nil
}

func (s *PebbleStore) Checkpoint(dir string) error {
	return s.db.Checkpoint(dir)
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// --- read txn ---

type pebbleReadTxn struct {
	snap *pebble.Snapshot
}

func (t *pebbleReadTxn) GetExact(key []byte) ([]byte, error) {
	return getExact(t.snap, key)
}

func (t *pebbleReadTxn) GetManyExact(keys [][]byte) ([][]byte, []error) {
	return getManyExact(t.snap, keys)
}

func (t *pebbleReadTxn) GetLeq(key []byte, fuzzy int) ([]byte, bool, error) {
	return getLeq(t.snap, key, fuzzy)
}

func (t *pebbleReadTxn) GetLeqKV(key []byte, fuzzy int) (Pair, bool, error) {
	return getLeqKV(t.snap, key, fuzzy)
}

func (t *pebbleReadTxn) GetManyLeq(keys [][]byte, fuzzy int) ([]Pair, []bool, error) {
	return getManyLeq(t.snap, keys, fuzzy)
}

func (t *pebbleReadTxn) Scan(lower, upperExclusive []byte) ([]Pair, error) {
	return scan(t.snap, lower, upperExclusive)
}

func (t *pebbleReadTxn) Close() error {
	return t.snap.Close()
}

// --- write batch ---

type pebbleWriteBatch struct {
	db    *pebble.DB
	batch *pebble.Batch
}

func (b *pebbleWriteBatch) GetExact(key []byte) ([]byte, error) {
	return getExact(b.batch, key)
}

func (b *pebbleWriteBatch) GetManyExact(keys [][]byte) ([][]byte, []error) {
	return getManyExact(b.batch, keys)
}

func (b *pebbleWriteBatch) GetLeq(key []byte, fuzzy int) ([]byte, bool, error) {
	return getLeq(b.batch, key, fuzzy)
}

func (b *pebbleWriteBatch) GetLeqKV(key []byte, fuzzy int) (Pair, bool, error) {
	return getLeqKV(b.batch, key, fuzzy)
}

func (b *pebbleWriteBatch) GetManyLeq(keys [][]byte, fuzzy int) ([]Pair, []bool, error) {
	return getManyLeq(b.batch, keys, fuzzy)
}

func (b *pebbleWriteBatch) Scan(lower, upperExclusive []byte) ([]Pair, error) {
	return scan(b.batch, lower, upperExclusive)
}

func (b *pebbleWriteBatch) Set(key, value []byte) error {
	return b.batch.Set(key, value, nil)
}

func (b *pebbleWriteBatch) SetMany(pairs []Pair) error {
	for _, p := range pairs {
		if err := b.batch.Set(p.Key, p.Value, nil); err != nil {
			return err
		}
	}
	return nil
}

func (b *pebbleWriteBatch) Delete(key []byte) (bool, error) {
	_, existed, err := getExactOk(b.batch, key)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}
	return true, b.batch.Delete(key, nil)
}

func (b *pebbleWriteBatch) DeleteMany(keys [][]byte) ([]bool, error) {
	out := make([]bool, len(keys))
	for i, k := range keys {
		existed, err := b.Delete(k)
		if err != nil {
			return nil, err
		}
		out[i] = existed
	}
	return out, nil
}

func (b *pebbleWriteBatch) Commit() error {
	return b.batch.Commit(pebble.Sync)
}

func (b *pebbleWriteBatch) Close() error {
	return b.batch.Close()
}
