package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rawblock/l2ordinals-indexer/internal/kv"
)

func TestSavepointManagerTakeAndRotate(t *testing.T) {
	base := t.TempDir()
	store, err := kv.Open(filepath.Join(base, "store"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	spDir := filepath.Join(base, "savepoints")
	m := NewSavepointManager(spDir)

	if err := m.Take(store, 10); err != nil {
		t.Fatalf("take 10: %v", err)
	}
	if err := m.Take(store, 20); err != nil {
		t.Fatalf("take 20: %v", err)
	}

	if err := m.DeleteOldest(); err != nil {
		t.Fatalf("delete oldest: %v", err)
	}
	if err := m.Take(store, 30); err != nil {
		t.Fatalf("take 30: %v", err)
	}

	if _, err := os.Stat(filepath.Join(spDir, "sp-10")); !os.IsNotExist(err) {
		t.Fatalf("expected sp-10 to be removed, stat err = %v", err)
	}
	for _, h := range []uint32{20, 30} {
		if _, err := os.Stat(m.dirFor(h)); err != nil {
			t.Fatalf("expected %s to exist: %v", m.dirFor(h), err)
		}
	}

	dir, height, ok := m.RewindTo(25)
	if !ok || height != 20 || dir != m.dirFor(20) {
		t.Fatalf("RewindTo(25) = (%q, %d, %v), want (%q, 20, true)", dir, height, ok, m.dirFor(20))
	}

	if _, _, ok := m.RewindTo(5); ok {
		t.Fatal("RewindTo(5) should find no savepoint below the earliest kept")
	}
}

func TestNewSavepointManagerDiscoversExisting(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"sp-5", "sp-15", "not-a-savepoint"} {
		if err := os.MkdirAll(filepath.Join(base, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}

	m := NewSavepointManager(base)
	if len(m.taken) != 2 {
		t.Fatalf("discovered %d savepoints, want 2 (got %v)", len(m.taken), m.taken)
	}
	if m.taken[0] != 5 || m.taken[1] != 15 {
		t.Fatalf("taken = %v, want [5 15]", m.taken)
	}
}
