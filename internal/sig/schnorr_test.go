package sig

import "testing"

func TestVerifyRejectsMalformedKey(t *testing.T) {
	var badKey, msg [32]byte
	var s [64]byte
	_, err := Verify(badKey, msg, s)
	if err == nil {
		t.Fatal("expected error for all-zero public key")
	}
}
