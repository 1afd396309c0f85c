package hashfam

import "testing"

func TestParseFamily(t *testing.T) {
	cases := []struct {
		in      string
		want    Family
		wantOK  bool
	}{
		{"sha256", SHA256, true},
		{"blake3", BLAKE3, true},
		{"keccak256", Keccak256, true},
		{"poseidon_goldilocks", PoseidonGoldilocks, true},
		{"bogus", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseFamily(c.in)
		if ok != c.wantOK || (ok && got != c.want) {
			t.Errorf("ParseFamily(%q) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestTwoToOneDeterministicPerFamily(t *testing.T) {
	for _, f := range []Family{SHA256, BLAKE3, Keccak256, PoseidonGoldilocks} {
		h := For(f)
		a := Hash256{1}
		b := Hash256{2}
		x := h.TwoToOne(a, b)
		y := h.TwoToOne(a, b)
		if x != y {
			t.Errorf("%s: TwoToOne not deterministic", f)
		}
		if x == a || x == b {
			t.Errorf("%s: TwoToOne(a,b) collided with an input", f)
		}
	}
}

func TestTwoToOneMarkedLeafDiffersFromPlain(t *testing.T) {
	for _, f := range []Family{SHA256, BLAKE3, Keccak256, PoseidonGoldilocks} {
		h := For(f)
		a := Hash256{1}
		b := Hash256{2}
		plain := h.TwoToOne(a, b)
		marked := h.TwoToOneMarkedLeaf(a, b)
		if plain == marked {
			t.Errorf("%s: marked-leaf combine must differ from plain combine", f)
		}
	}
}

func TestZeroHashChain(t *testing.T) {
	for _, f := range []Family{SHA256, BLAKE3, Keccak256, PoseidonGoldilocks} {
		h := For(f)
		z0 := h.ZeroHash(0)
		if z0 != Zero {
			t.Errorf("%s: ZeroHash(0) = %x, want all-zero", f, z0)
		}
		z1 := h.ZeroHash(1)
		want := h.TwoToOne(z0, z0)
		if z1 != want {
			t.Errorf("%s: ZeroHash(1) = %x, want two_to_one(zero,zero) = %x", f, z1, want)
		}
	}
}

func TestZeroHashMarkedFirstLevelUsesMarkedCombine(t *testing.T) {
	for _, f := range []Family{SHA256, BLAKE3, Keccak256, PoseidonGoldilocks} {
		h := For(f)
		z0 := h.ZeroHashMarked(0)
		z1 := h.ZeroHashMarked(1)
		want := h.TwoToOneMarkedLeaf(z0, z0)
		if z1 != want {
			t.Errorf("%s: ZeroHashMarked(1) = %x, want two_to_one_marked_leaf(zero,zero) = %x", f, z1, want)
		}
	}
}

func TestZeroHashBeyondCacheDepthContinuesChain(t *testing.T) {
	h := For(SHA256)
	at127 := h.ZeroHash(127)
	at128 := h.ZeroHash(128)
	want := h.TwoToOne(at127, at127)
	if at128 != want {
		t.Errorf("ZeroHash(128) = %x, want two_to_one(ZeroHash(127), ZeroHash(127)) = %x", at128, want)
	}
}

func TestHashOutRoundTrip(t *testing.T) {
	var in Hash256
	for i := range in {
		in[i] = byte(i)
	}
	// Only the low 32 bits of each 8-byte limb are guaranteed to survive
	// round-trip through the field's canonical range for arbitrary bytes,
	// so instead verify idempotence of the conversion itself.
	h1 := HashOutFromHash256(in)
	out := h1.ToHash256()
	h2 := HashOutFromHash256(out)
	if h1 != h2 {
		t.Errorf("HashOut conversion not idempotent: %v vs %v", h1, h2)
	}
}

func TestGoldilocksFieldArithmetic(t *testing.T) {
	a := fromNonCanonicalU64(goldilocksPrime - 1)
	b := fromNonCanonicalU64(2)
	sum := a.add(b)
	if uint64(sum) != 1 {
		t.Errorf("(p-1) + 2 mod p = %d, want 1", sum)
	}

	one := gfElem(1)
	x := fromNonCanonicalU64(12345)
	inv := x.inverse()
	if x.mul(inv) != one {
		t.Errorf("x * x^-1 != 1: got %d", x.mul(inv))
	}
}

func TestBlockHashDeterministicAcrossFamilies(t *testing.T) {
	p := BlockPayload{L2ID: 7, L2BlockNumber: 42}
	for _, f := range []Family{SHA256, BLAKE3, Keccak256, PoseidonGoldilocks} {
		h1 := BlockHash(f, p)
		h2 := BlockHash(f, p)
		if h1 != h2 {
			t.Errorf("%s: BlockHash not deterministic", f)
		}
	}
}
