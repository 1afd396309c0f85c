package engine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
)

// withdrawalProofWire is the JSON shape L2WithdrawWire's opaque Proof field
// carries: a Merkle inclusion proof's index and sibling path. Not grounded
// in any upstream source (l2withdraw is a todo!() stub there); this is a
// fresh encoding of the same (index, siblings) shape internal/merkle.Proof
// already uses elsewhere on the wire.
type withdrawalProofWire struct {
	Index    uint64   `json:"index"`
	Siblings []string `json:"siblings"`
}

// parsedWithdrawalProof is a withdrawal proof with its siblings decoded,
// still missing the leaf value (computed per-candidate-rollup since each
// may use a different hash family).
type parsedWithdrawalProof struct {
	Index    uint64
	Siblings []hashfam.Hash256
}

func parseWithdrawalProof(raw json.RawMessage) (parsedWithdrawalProof, error) {
	var w withdrawalProofWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return parsedWithdrawalProof{}, fmt.Errorf("withdrawal proof: %w", err)
	}
	siblings := make([]hashfam.Hash256, len(w.Siblings))
	for i, s := range w.Siblings {
		b, err := hex.DecodeString(s)
		if err != nil || len(b) != 32 {
			return parsedWithdrawalProof{}, fmt.Errorf("withdrawal proof: sibling %d is not a 32-byte hex string", i)
		}
		copy(siblings[i][:], b)
	}
	return parsedWithdrawalProof{Index: w.Index, Siblings: siblings}, nil
}

// withdrawalLeafHash encodes (to, tick, amount) the same way for every hash
// family, then digests it under family — the withdrawal tree's leaf must be
// computed with the same hasher as the rollup that committed the root being
// checked against.
func withdrawalLeafHash(family hashfam.Family, to, tick string, amount *big.Int) hashfam.Hash256 {
	payload := withdrawalLeafPayload(to, tick, amount)
	return hashfam.For(family).BlockHash(payload)
}

func withdrawalLeafPayload(to, tick string, amount *big.Int) []byte {
	buf := make([]byte, 0, len(to)+1+len(tick)+1+len(amount.Bytes())+1)
	buf = append(buf, []byte(to)...)
	buf = append(buf, 0)
	buf = append(buf, []byte(tick)...)
	buf = append(buf, 0)
	buf = append(buf, amount.Bytes()...)
	return buf
}
