// Package reorg detects and classifies Bitcoin chain reorganizations
// encountered while indexing, grounded on l2o_ord_store/src/reorg.rs.
package reorg

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Savepoint/reorg-walk tuning, carried over from reorg.rs's constants.
const (
	MaxSavepoints     = 2
	SavepointInterval = 10

	// ChainTipDistance is carried over with the other reorg.rs constants;
	// nothing in this module reads it.
	ChainTipDistance = 21
)

// Kind distinguishes a recoverable reorg (rewind and re-index) from an
// unrecoverable one (deeper than this indexer can walk back).
type Kind int

const (
	Recoverable Kind = iota
	Unrecoverable
)

// Error reports a detected reorg. For Recoverable, Height is the height at
// which indexing was about to proceed and Depth is how many blocks back
// the common ancestor was found.
type Error struct {
	Kind   Kind
	Height uint32
	Depth  uint32
}

func (e *Error) Error() string {
	if e.Kind == Unrecoverable {
		return "unrecoverable reorg detected"
	}
	return fmt.Sprintf("%d block deep reorg detected at height %d", e.Depth, e.Height)
}

// ErrNoStoredHash reports that the store has no recorded hash for a height
// the walk needs, which HashAt implementations should never return in
// practice once height 0 is reached; callers of Detect use it only as a
// sentinel for "stop walking".
var ErrNoStoredHash = errors.New("reorg: no stored hash at height")

// HashLookup resolves the stored block hash this indexer previously
// recorded at height, and the hash the Bitcoin node currently reports at
// that height (which may differ during a reorg).
type HashLookup interface {
	StoredHash(ctx context.Context, height uint32) (chainhash.Hash, bool, error)
	NodeHash(ctx context.Context, height uint32) (chainhash.Hash, error)
}

// Detect compares the stored parent hash at h-1 against prevBlockHash, the
// incoming block's declared previous-block hash. If they agree (or there is
// no stored value to compare against, e.g. at the chain's indexing start),
// no reorg occurred. Otherwise it walks backwards comparing stored vs.
// node-reported hashes to find the common ancestor, checking depths
// 1..(MaxSavepoints-1)*SavepointInterval+h%SavepointInterval, exclusive of
// the upper bound (matching Rust's 1..max_recoverable_reorg_depth range).
func Detect(ctx context.Context, lookup HashLookup, h uint32, prevBlockHash chainhash.Hash) error {
	if h == 0 {
		return nil
	}
	stored, ok, err := lookup.StoredHash(ctx, h-1)
	if err != nil {
		return fmt.Errorf("reorg: stored hash at %d: %w", h-1, err)
	}
	if !ok || stored == prevBlockHash {
		return nil
	}

	maxSteps := (MaxSavepoints-1)*SavepointInterval + h%SavepointInterval
	var depth uint32
	for depth = 1; depth < maxSteps; depth++ {
		height := h - depth
		storedAt, ok, err := lookup.StoredHash(ctx, height)
		if err != nil {
			return fmt.Errorf("reorg: stored hash at %d: %w", height, err)
		}
		if !ok {
			break
		}
		nodeAt, err := lookup.NodeHash(ctx, height)
		if err != nil {
			return fmt.Errorf("reorg: node hash at %d: %w", height, err)
		}
		if storedAt == nodeAt {
			return &Error{Kind: Recoverable, Height: h, Depth: depth}
		}
	}
	return &Error{Kind: Unrecoverable}
}

// SavepointHeightFor returns the most recent savepoint height at or below
// target, the height the driver should rewind to and re-index from after a
// Recoverable reorg.
func SavepointHeightFor(target uint32) uint32 {
	return target - (target % SavepointInterval)
}
