package kv

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *PebbleStore {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "pebble")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustSet(t *testing.T, s *PebbleStore, pairs ...Pair) {
	t.Helper()
	wb, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	defer wb.Close()
	if err := wb.SetMany(pairs); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	if err := wb.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestGetExactNotFound(t *testing.T) {
	s := openTestStore(t)
	txn, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	_, err = txn.GetExact([]byte("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetExactRoundTrip(t *testing.T) {
	s := openTestStore(t)
	mustSet(t, s, Pair{Key: []byte("k1"), Value: []byte("v1")})

	txn, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	v, err := txn.GetExact([]byte("k1"))
	if err != nil {
		t.Fatalf("GetExact: %v", err)
	}
	if !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("got %q, want v1", v)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	s := openTestStore(t)
	mustSet(t, s, Pair{Key: []byte("k1"), Value: []byte("v1")})

	wb, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	defer wb.Close()

	existed, err := wb.Delete([]byte("k1"))
	if err != nil || !existed {
		t.Fatalf("Delete k1: existed=%v err=%v", existed, err)
	}
	existed, err = wb.Delete([]byte("nope"))
	if err != nil || existed {
		t.Fatalf("Delete nope: existed=%v err=%v", existed, err)
	}
}

// TestGetLeqFuzzyTruncation exercises the checkpoint-suffix lookup: a key
// ending in checkpoint id 7 must be found by a query for checkpoint id 9
// when the last 8 bytes (a uint64 checkpoint suffix) are fuzzy.
func TestGetLeqFuzzyTruncation(t *testing.T) {
	s := openTestStore(t)

	keyAt := func(prefix byte, checkpoint uint64) []byte {
		k := make([]byte, 9)
		k[0] = prefix
		for i := 0; i < 8; i++ {
			k[8-i] = byte(checkpoint >> (8 * i))
		}
		return k
	}

	mustSet(t, s,
		Pair{Key: keyAt(0x01, 3), Value: []byte("at-3")},
		Pair{Key: keyAt(0x01, 7), Value: []byte("at-7")},
		Pair{Key: keyAt(0x01, 20), Value: []byte("at-20")},
	)

	txn, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	v, ok, err := txn.GetLeq(keyAt(0x01, 9), 8)
	if err != nil {
		t.Fatalf("GetLeq: %v", err)
	}
	if !ok || !bytes.Equal(v, []byte("at-7")) {
		t.Fatalf("GetLeq(9): ok=%v v=%q, want at-7", ok, v)
	}

	v, ok, err = txn.GetLeq(keyAt(0x01, 2), 8)
	if err != nil {
		t.Fatalf("GetLeq: %v", err)
	}
	if ok {
		t.Fatalf("GetLeq(2): expected no match, got %q", v)
	}

	v, ok, err = txn.GetLeq(keyAt(0x01, 7), 8)
	if err != nil {
		t.Fatalf("GetLeq: %v", err)
	}
	if !ok || !bytes.Equal(v, []byte("at-3")) {
		t.Fatalf("GetLeq(7) exclusive upper bound: ok=%v v=%q, want at-3", ok, v)
	}
}

func TestGetLeqBadFuzzy(t *testing.T) {
	s := openTestStore(t)
	txn, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	_, _, err = txn.GetLeq([]byte("ab"), 5)
	if !errors.Is(err, ErrBadFuzzy) {
		t.Fatalf("expected ErrBadFuzzy, got %v", err)
	}
}

func TestWriteBatchReadsOwnWrites(t *testing.T) {
	s := openTestStore(t)

	wb, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	defer wb.Close()

	if err := wb.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := wb.GetExact([]byte("k"))
	if err != nil {
		t.Fatalf("GetExact within batch: %v", err)
	}
	if !bytes.Equal(v, []byte("v")) {
		t.Fatalf("got %q, want v", v)
	}
}

func TestSnapshotIsolatedFromLaterWrites(t *testing.T) {
	s := openTestStore(t)
	mustSet(t, s, Pair{Key: []byte("k"), Value: []byte("v1")})

	txn, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	mustSet(t, s, Pair{Key: []byte("k"), Value: []byte("v2")})

	v, err := txn.GetExact([]byte("k"))
	if err != nil {
		t.Fatalf("GetExact: %v", err)
	}
	if !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("snapshot leaked later write: got %q, want v1", v)
	}
}
