package merkle

import (
	"errors"

	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
)

var errKeySize = errors.New("merkle: key must be exactly 32 bytes")

// Proof is an inclusion proof for one leaf against a tree root.
//
// Verification deliberately departs from core.rs's verify_merkle_proof_core:
// the reduction combines every level as two_to_one(sibling, current)
// regardless of which side current sits on, which only produces the right
// root when the index bit happens to be 0 at every level. This port always
// orients the combine by the index bit (bit 0 ⇒ current is the left child),
// matching the positional hash(left, right) the state-root invariants are
// stated in terms of.
type Proof struct {
	Root     hashfam.Hash256
	Value    hashfam.Hash256
	Index    uint64
	Siblings []hashfam.Hash256
}

// Verify checks the proof against h, combining each level unmarked.
func (p Proof) Verify(h hashfam.Hasher) bool {
	return p.verify(h, false)
}

// VerifyMarked checks the proof where the leaf-level combine uses the
// marked-leaf domain separator (the tree's level-0 node was written with
// TwoToOneMarkedLeaf).
func (p Proof) VerifyMarked(h hashfam.Hasher) bool {
	return p.verify(h, true)
}

func (p Proof) verify(h hashfam.Hasher, marked bool) bool {
	current := p.Value
	for i, sibling := range p.Siblings {
		combine := h.TwoToOne
		if marked && i == 0 {
			combine = h.TwoToOneMarkedLeaf
		}
		if p.Index&(1<<uint(i)) == 0 {
			current = combine(current, sibling)
		} else {
			current = combine(sibling, current)
		}
	}
	return current == p.Root
}

// DeltaProof is a combined inclusion proof for a leaf's value before and
// after a single write, sharing one sibling path (the siblings do not
// change across a single leaf update).
type DeltaProof struct {
	OldRoot  hashfam.Hash256
	OldValue hashfam.Hash256
	NewRoot  hashfam.Hash256
	NewValue hashfam.Hash256
	Index    uint64
	Siblings []hashfam.Hash256
}

// Verify checks both the old and new inclusion proofs, unmarked.
func (p DeltaProof) Verify(h hashfam.Hasher) bool {
	return p.verify(h, false)
}

// VerifyMarked is Verify, but the leaf-level combine on both sides uses the
// marked-leaf domain separator.
func (p DeltaProof) VerifyMarked(h hashfam.Hasher) bool {
	return p.verify(h, true)
}

func (p DeltaProof) verify(h hashfam.Hasher, marked bool) bool {
	old := Proof{Root: p.OldRoot, Value: p.OldValue, Index: p.Index, Siblings: p.Siblings}
	neu := Proof{Root: p.NewRoot, Value: p.NewValue, Index: p.Index, Siblings: p.Siblings}
	if marked {
		return old.VerifyMarked(h) && neu.VerifyMarked(h)
	}
	return old.Verify(h) && neu.Verify(h)
}
