package merkle

import (
	"path/filepath"
	"testing"

	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
)

func openTestStore(t *testing.T) kv.Store {
	t.Helper()
	s, err := kv.Open(filepath.Join(t.TempDir(), "pebble"))
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func leafKey(index uint64, height uint8) NodeKey {
	return NodeKey{TableType: 1, TreeID: 1, Level: height, Index: index, CheckpointID: 1}
}

func TestEmptyTreeRootIsZeroHash(t *testing.T) {
	store := openTestStore(t)
	tr := Tree{Height: 4, Hasher: hashfam.For(hashfam.SHA256)}

	txn, err := store.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	root, err := tr.Root(txn, NodeKey{TableType: 1, TreeID: 1, CheckpointID: 1})
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root != tr.Hasher.ZeroHash(4) {
		t.Fatalf("empty tree root = %x, want ZeroHash(height)", root)
	}
}

func TestSetLeafUpdatesRootAndVerifies(t *testing.T) {
	store := openTestStore(t)
	tr := Tree{Height: 3, Hasher: hashfam.For(hashfam.SHA256)}

	wb, err := store.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	defer wb.Close()

	leaf := hashfam.Hash256{0xAA}
	delta, err := tr.SetLeaf(wb, leafKey(5, 3), leaf)
	if err != nil {
		t.Fatalf("SetLeaf: %v", err)
	}
	if err := wb.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if !delta.Verify(tr.Hasher) {
		t.Fatalf("delta proof failed to verify")
	}
	if delta.OldRoot != tr.Hasher.ZeroHash(3) {
		t.Fatalf("delta.OldRoot = %x, want empty-tree zero hash", delta.OldRoot)
	}

	txn, err := store.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	root, err := tr.Root(txn, leafKey(5, 3).Root())
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root != delta.NewRoot {
		t.Fatalf("stored root = %x, want delta.NewRoot = %x", root, delta.NewRoot)
	}

	proof, err := tr.GetLeaf(txn, leafKey(5, 3))
	if err != nil {
		t.Fatalf("GetLeaf: %v", err)
	}
	if proof.Value != leaf {
		t.Fatalf("GetLeaf returned value %x, want %x", proof.Value, leaf)
	}
	if !proof.Verify(tr.Hasher) {
		t.Fatalf("GetLeaf proof failed to verify")
	}
}

func TestSetLeafAtLaterCheckpointDoesNotShadowEarlierReads(t *testing.T) {
	store := openTestStore(t)
	tr := Tree{Height: 2, Hasher: hashfam.For(hashfam.SHA256)}

	key1 := NodeKey{TableType: 1, TreeID: 1, Level: 2, Index: 0, CheckpointID: 1}
	wb, err := store.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	if _, err := tr.SetLeaf(wb, key1, hashfam.Hash256{0x01}); err != nil {
		t.Fatalf("SetLeaf@1: %v", err)
	}
	if err := wb.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	key5 := key1
	key5.CheckpointID = 5
	wb, err = store.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	if _, err := tr.SetLeaf(wb, key5, hashfam.Hash256{0x02}); err != nil {
		t.Fatalf("SetLeaf@5: %v", err)
	}
	if err := wb.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	txn, err := store.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer txn.Close()

	keyAt3 := key1
	keyAt3.CheckpointID = 3
	v, err := tr.GetNode(txn, keyAt3)
	if err != nil {
		t.Fatalf("GetNode@3: %v", err)
	}
	if v != (hashfam.Hash256{0x01}) {
		t.Fatalf("GetNode@3 = %x, want the checkpoint-1 write (0x01...)", v)
	}

	keyAt10 := key1
	keyAt10.CheckpointID = 10
	v, err = tr.GetNode(txn, keyAt10)
	if err != nil {
		t.Fatalf("GetNode@10: %v", err)
	}
	if v != (hashfam.Hash256{0x02}) {
		t.Fatalf("GetNode@10 = %x, want the checkpoint-5 write (0x02...)", v)
	}
}

func TestMarkedLeavesUseDomainSeparatedCombine(t *testing.T) {
	store := openTestStore(t)
	tr := Tree{Height: 2, MarkLeaves: true, Hasher: hashfam.For(hashfam.SHA256)}

	wb, err := store.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	defer wb.Close()

	delta, err := tr.SetLeaf(wb, leafKey(1, 2), hashfam.Hash256{0x07})
	if err != nil {
		t.Fatalf("SetLeaf: %v", err)
	}
	if !delta.VerifyMarked(tr.Hasher) {
		t.Fatalf("marked delta proof failed to verify")
	}
	if delta.Verify(tr.Hasher) {
		t.Fatalf("unmarked verification unexpectedly succeeded on a marked-leaf tree")
	}
}
