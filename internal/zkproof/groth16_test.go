package zkproof

import "testing"

func TestG1FromProjectiveRejectsBadCoordinate(t *testing.T) {
	_, err := g1FromProjective([3]string{"not-a-number", "0", "1"})
	if err == nil {
		t.Fatal("expected error for non-numeric coordinate")
	}
}

func TestG1FromProjectiveRejectsPointAtInfinity(t *testing.T) {
	_, err := g1FromProjective([3]string{"1", "1", "0"})
	if err != ErrPointAtInfinity {
		t.Fatalf("got %v, want ErrPointAtInfinity", err)
	}
}

func TestVerifyRejectsMalformedProof(t *testing.T) {
	proof := ProofJSON{
		PiA: [3]string{"x", "0", "1"},
		PiB: [3][2]string{{"0", "0"}, {"0", "0"}, {"1", "0"}},
		PiC: [3]string{"0", "0", "1"},
	}
	vk := VerifierDataJSON{}
	if _, err := Verify(proof, vk); err == nil {
		t.Fatal("expected error for malformed proof coordinate")
	}
}
