package reorg

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type fakeLookup struct {
	stored map[uint32]chainhash.Hash
	node   map[uint32]chainhash.Hash
}

func (f *fakeLookup) StoredHash(_ context.Context, h uint32) (chainhash.Hash, bool, error) {
	v, ok := f.stored[h]
	return v, ok, nil
}

func (f *fakeLookup) NodeHash(_ context.Context, h uint32) (chainhash.Hash, error) {
	return f.node[h], nil
}

func hashOf(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestDetectNoReorgWhenHashesAgree(t *testing.T) {
	lookup := &fakeLookup{stored: map[uint32]chainhash.Hash{9: hashOf(1)}}
	if err := Detect(context.Background(), lookup, 10, hashOf(1)); err != nil {
		t.Fatalf("Detect: %v", err)
	}
}

func TestDetectNoReorgWhenNoStoredValue(t *testing.T) {
	lookup := &fakeLookup{stored: map[uint32]chainhash.Hash{}}
	if err := Detect(context.Background(), lookup, 10, hashOf(1)); err != nil {
		t.Fatalf("Detect: %v", err)
	}
}

func TestDetectRecoverableReorg(t *testing.T) {
	lookup := &fakeLookup{
		stored: map[uint32]chainhash.Hash{9: hashOf(9), 8: hashOf(8)},
		node:   map[uint32]chainhash.Hash{9: hashOf(9)},
	}
	err := Detect(context.Background(), lookup, 10, hashOf(99))
	reorgErr, ok := err.(*Error)
	if !ok || reorgErr.Kind != Recoverable {
		t.Fatalf("Detect = %v, want Recoverable", err)
	}
	if reorgErr.Depth != 1 {
		t.Fatalf("depth = %d, want 1", reorgErr.Depth)
	}
}

// TestDetectRecoverableAtMaxDepthBoundary pins the exact invariant: a reorg
// of depth SavepointInterval*(MaxSavepoints-1) is still recoverable. h%10==1
// makes maxSteps == (MaxSavepoints-1)*SavepointInterval+1 == 11, so depths
// 1..10 are checked (Go's exclusive depth < maxSteps, matching rtx.rs's
// 1..max_recoverable_reorg_depth).
func TestDetectRecoverableAtMaxDepthBoundary(t *testing.T) {
	const h = 1001
	maxDepth := uint32(SavepointInterval * (MaxSavepoints - 1))

	stored := map[uint32]chainhash.Hash{}
	node := map[uint32]chainhash.Hash{}
	for depth := uint32(1); depth <= maxDepth; depth++ {
		height := h - depth
		stored[height] = hashOf(byte(depth))
		node[height] = hashOf(byte(depth + 100)) // mismatch at every depth but the last
	}
	node[h-maxDepth] = stored[h-maxDepth] // common ancestor at the deepest checked depth

	err := Detect(context.Background(), &fakeLookup{stored: stored, node: node}, h, hashOf(99))
	reorgErr, ok := err.(*Error)
	if !ok || reorgErr.Kind != Recoverable {
		t.Fatalf("Detect = %v, want Recoverable", err)
	}
	if reorgErr.Depth != maxDepth {
		t.Fatalf("depth = %d, want %d", reorgErr.Depth, maxDepth)
	}
}

// TestDetectUnrecoverableOneDeeperThanMaxBoundary is the other half of the
// same invariant: a common ancestor one block past maxDepth must never be
// found, even though it exists in the lookup.
func TestDetectUnrecoverableOneDeeperThanMaxBoundary(t *testing.T) {
	const h = 1001
	maxDepth := uint32(SavepointInterval * (MaxSavepoints - 1))
	trueDepth := maxDepth + 1

	stored := map[uint32]chainhash.Hash{}
	node := map[uint32]chainhash.Hash{}
	for depth := uint32(1); depth <= trueDepth; depth++ {
		height := h - depth
		stored[height] = hashOf(byte(depth))
		node[height] = hashOf(byte(depth + 100))
	}
	node[h-trueDepth] = stored[h-trueDepth] // common ancestor, never reached by the walk

	err := Detect(context.Background(), &fakeLookup{stored: stored, node: node}, h, hashOf(99))
	reorgErr, ok := err.(*Error)
	if !ok || reorgErr.Kind != Unrecoverable {
		t.Fatalf("Detect = %v, want Unrecoverable", err)
	}
}

func TestDetectUnrecoverableReorg(t *testing.T) {
	lookup := &fakeLookup{
		stored: map[uint32]chainhash.Hash{9: hashOf(9)},
		node:   map[uint32]chainhash.Hash{},
	}
	err := Detect(context.Background(), lookup, 10, hashOf(99))
	reorgErr, ok := err.(*Error)
	if !ok || reorgErr.Kind != Unrecoverable {
		t.Fatalf("Detect = %v, want Unrecoverable", err)
	}
}

func TestSavepointHeightFor(t *testing.T) {
	if got := SavepointHeightFor(47); got != 40 {
		t.Fatalf("SavepointHeightFor(47) = %d, want 40", got)
	}
	if got := SavepointHeightFor(40); got != 40 {
		t.Fatalf("SavepointHeightFor(40) = %d, want 40", got)
	}
}
