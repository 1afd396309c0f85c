// Package hashfam implements the four interchangeable hash families a
// rollup's state-root trees can be keyed on: SHA-256, BLAKE3, Keccak-256 and
// Poseidon-over-the-Goldilocks-field. Every family exposes the same
// TwoToOne/TwoToOneMarkedLeaf/zero-hash surface so internal/merkle can be
// written once and parameterized by Family.
//
// Grounded on l2o_crypto/src/hash/hash_functions/{sha256,blake3,keccack256,
// poseidon_goldilocks}.rs (the two_to_one / two_to_one_marked_leaf
// definitions) and l2o_crypto/src/hash/merkle/traits.rs (the zero-hash cache
// recursion: zero_hash[0] = zero value, zero_hash[n] =
// two_to_one(zero_hash[n-1], zero_hash[n-1]), cache depth 128).
package hashfam

import (
	"crypto/sha256"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// Hash256 is the on-disk digest type shared by every family; Poseidon's
// native HashOut<GoldilocksField> is packed into/out of this shape at the
// boundary (see goldilocks.go).
type Hash256 [32]byte

var Zero Hash256

// Family identifies which hash function a given rollup's state tree uses.
type Family uint8

const (
	SHA256 Family = iota
	BLAKE3
	Keccak256
	PoseidonGoldilocks
)

func (f Family) String() string {
	switch f {
	case SHA256:
		return "sha256"
	case BLAKE3:
		return "blake3"
	case Keccak256:
		return "keccak256"
	case PoseidonGoldilocks:
		return "poseidon_goldilocks"
	default:
		return "unknown"
	}
}

// ParseFamily maps the wire "hash_function" string from an L2O-A deploy
// inscription to a Family.
func ParseFamily(s string) (Family, bool) {
	switch s {
	case "sha256":
		return SHA256, true
	case "blake3":
		return BLAKE3, true
	case "keccak256":
		return Keccak256, true
	case "poseidon_goldilocks", "plonky2_poseidon_goldilocks":
		return PoseidonGoldilocks, true
	default:
		return 0, false
	}
}

// Hasher is the per-family combine/zero-hash/block-hash surface.
type Hasher interface {
	Family() Family
	TwoToOne(left, right Hash256) Hash256
	TwoToOneMarkedLeaf(left, right Hash256) Hash256
	// ZeroHash returns the zero hash at reverseLevel (0 = the zero leaf
	// value, n = two_to_one of the pair of zero hashes at n-1).
	ZeroHash(reverseLevel int) Hash256
	// ZeroHashMarked is ZeroHash but for a tree whose leaves are combined
	// with TwoToOneMarkedLeaf at level 0.
	ZeroHashMarked(reverseLevel int) Hash256
	// BlockHash digests an L2O-A block's canonical payload bytes (see
	// blockhash.go) into this family's state-root space.
	BlockHash(payload []byte) Hash256
}

// For returns the Hasher for a family, panicking on an unknown value since
// Family is only ever produced by ParseFamily or the constants above.
func For(f Family) Hasher {
	switch f {
	case SHA256:
		return sha256Hasher{}
	case BLAKE3:
		return blake3Hasher{}
	case Keccak256:
		return keccak256Hasher{}
	case PoseidonGoldilocks:
		return poseidonHasher{}
	default:
		panic("hashfam: unknown family")
	}
}

// --- SHA-256 ---

type sha256Hasher struct{}

func (sha256Hasher) Family() Family { return SHA256 }

func (sha256Hasher) TwoToOne(left, right Hash256) Hash256 {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}

func (sha256Hasher) TwoToOneMarkedLeaf(left, right Hash256) Hash256 {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	h.Write([]byte{1})
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}

func (h sha256Hasher) ZeroHash(level int) Hash256       { return cachedZeroHash(h, level) }
func (h sha256Hasher) ZeroHashMarked(level int) Hash256 { return cachedZeroHashMarked(h, level) }

func (sha256Hasher) BlockHash(payload []byte) Hash256 {
	var out Hash256
	sum := sha256.Sum256(payload)
	copy(out[:], sum[:])
	return out
}

// --- BLAKE3 ---

type blake3Hasher struct{}

func (blake3Hasher) Family() Family { return BLAKE3 }

func (blake3Hasher) TwoToOne(left, right Hash256) Hash256 {
	var data [64]byte
	copy(data[:32], left[:])
	copy(data[32:], right[:])
	return Hash256(blake3.Sum256(data[:]))
}

func (blake3Hasher) TwoToOneMarkedLeaf(left, right Hash256) Hash256 {
	var data [65]byte
	copy(data[:32], left[:])
	copy(data[32:64], right[:])
	data[64] = 1
	return Hash256(blake3.Sum256(data[:]))
}

func (h blake3Hasher) ZeroHash(level int) Hash256       { return cachedZeroHash(h, level) }
func (h blake3Hasher) ZeroHashMarked(level int) Hash256 { return cachedZeroHashMarked(h, level) }

func (blake3Hasher) BlockHash(payload []byte) Hash256 {
	return Hash256(blake3.Sum256(payload))
}

// --- Keccak-256 ---

type keccak256Hasher struct{}

func (keccak256Hasher) Family() Family { return Keccak256 }

func (keccak256Hasher) TwoToOne(left, right Hash256) Hash256 {
	h := sha3.NewLegacyKeccak256()
	h.Write(left[:])
	h.Write(right[:])
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}

func (keccak256Hasher) TwoToOneMarkedLeaf(left, right Hash256) Hash256 {
	h := sha3.NewLegacyKeccak256()
	h.Write(left[:])
	h.Write(right[:])
	h.Write([]byte{1})
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}

func (h keccak256Hasher) ZeroHash(level int) Hash256       { return cachedZeroHash(h, level) }
func (h keccak256Hasher) ZeroHashMarked(level int) Hash256 { return cachedZeroHashMarked(h, level) }

func (keccak256Hasher) BlockHash(payload []byte) Hash256 {
	h := sha3.NewLegacyKeccak256()
	h.Write(payload)
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}
