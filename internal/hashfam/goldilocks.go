package hashfam

import "math/bits"

// goldilocksPrime is the Goldilocks field modulus 2^64 - 2^32 + 1, the field
// plonky2's PoseidonHash and this family's HashOut<GoldilocksField> operate
// over (l2o_crypto/src/hash/hash_functions/poseidon_goldilocks.rs).
const goldilocksPrime uint64 = 0xFFFFFFFF00000001

// gfElem is a Goldilocks field element kept in the range [0, p). Values
// arriving from outside the field (e.g. raw 32-bit hash limbs) are reduced
// with fromNonCanonicalU64, matching GoldilocksField::from_noncanonical_u64.
type gfElem uint64

func fromNonCanonicalU64(v uint64) gfElem {
	if v >= goldilocksPrime {
		return gfElem(v - goldilocksPrime)
	}
	return gfElem(v)
}

func (a gfElem) toCanonicalU64() uint64 { return uint64(a) }

func (a gfElem) add(b gfElem) gfElem {
	s := uint64(a) + uint64(b)
	if s < uint64(a) || s >= goldilocksPrime {
		s -= goldilocksPrime
	}
	return gfElem(s)
}

func (a gfElem) sub(b gfElem) gfElem {
	if uint64(a) >= uint64(b) {
		return gfElem(uint64(a) - uint64(b))
	}
	return gfElem(goldilocksPrime - uint64(b) + uint64(a))
}

// mul multiplies two elements reduced into [0, p) via 128-bit intermediate
// product and Goldilocks' cheap reduction (p = 2^64 - 2^32 + 1).
func (a gfElem) mul(b gfElem) gfElem {
	hi, lo := mul64(uint64(a), uint64(b))
	return reduce128(hi, lo)
}

func mul64(a, b uint64) (hi, lo uint64) {
	return bits.Mul64(a, b)
}

// epsilon is 2^64 mod p = 2^32 - 1, the constant the Goldilocks reduction
// trick is built on (2^64 ≡ epsilon (mod p)).
const epsilon uint64 = 0xFFFFFFFF

// reduce128 reduces hi*2^64 + lo modulo p, following plonky2's field
// util::reduce128: split hi into its high/low 32-bit halves, fold the high
// half into lo (via subtraction, since hi_hi*2^96 ≡ -hi_hi (mod p) once the
// 2^32 factor from hi_lo is accounted separately), then add back
// hi_lo*epsilon, normalizing for overflow at each step.
func reduce128(hi, lo uint64) gfElem {
	hiHi := hi >> 32
	hiLo := hi & epsilon

	t0 := lo - hiHi
	if lo < hiHi {
		t0 -= epsilon
	}

	t1 := hiLo * epsilon

	t2 := t0 + t1
	if t2 < t0 {
		t2 += epsilon
	}
	if t2 >= goldilocksPrime {
		t2 -= goldilocksPrime
	}
	return gfElem(t2)
}

func (a gfElem) exp7() gfElem {
	a2 := a.mul(a)
	a4 := a2.mul(a2)
	a6 := a4.mul(a2)
	return a6.mul(a)
}

// HashOut is the 4-element Goldilocks digest (plonky2's HashOut<GoldilocksField>).
type HashOut [4]gfElem

// ToHash256 packs a HashOut into the shared 32-byte digest space. Matches
// L2OHash::to_hash_256 for HashOut<GoldilocksField>: elements[3..0] each
// contribute 8 big-endian bytes, most-significant element first.
func (h HashOut) ToHash256() Hash256 {
	var out Hash256
	putU64BE(out[0:8], h[3].toCanonicalU64())
	putU64BE(out[8:16], h[2].toCanonicalU64())
	putU64BE(out[16:24], h[1].toCanonicalU64())
	putU64BE(out[24:32], h[0].toCanonicalU64())
	return out
}

// HashOutFromHash256 is the inverse of ToHash256, matching
// L2OHash::from_hash_256 for HashOut<GoldilocksField>.
func HashOutFromHash256(in Hash256) HashOut {
	a := fromNonCanonicalU64(getU64BE(in[0:8]))
	b := fromNonCanonicalU64(getU64BE(in[8:16]))
	c := fromNonCanonicalU64(getU64BE(in[16:24]))
	d := fromNonCanonicalU64(getU64BE(in[24:32]))
	return HashOut{d, c, b, a}
}

func putU64BE(dst []byte, v uint64) {
	dst[0] = byte(v >> 56)
	dst[1] = byte(v >> 48)
	dst[2] = byte(v >> 40)
	dst[3] = byte(v >> 32)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}

func getU64BE(src []byte) uint64 {
	return uint64(src[0])<<56 | uint64(src[1])<<48 | uint64(src[2])<<40 | uint64(src[3])<<32 |
		uint64(src[4])<<24 | uint64(src[5])<<16 | uint64(src[6])<<8 | uint64(src[7])
}

// hash256ToGoldilocksU32 mirrors fields::goldilocks::hash::hash256_to_goldilocks_u32:
// splits a 32-byte digest into eight 32-bit limbs, each reduced into the
// field as its own element (used by the block-payload Poseidon hashing
// path, where every input word is already < 2^32 and so trivially
// canonical).
func hash256ToGoldilocksU32(in Hash256) [8]gfElem {
	var out [8]gfElem
	for i := 0; i < 8; i++ {
		v := uint32(in[i*4])<<24 | uint32(in[i*4+1])<<16 | uint32(in[i*4+2])<<8 | uint32(in[i*4+3])
		out[i] = gfElem(v)
	}
	return out
}
