// Package sig verifies the BIP-340 Schnorr signatures L2O-A block
// inscriptions carry, against the public key set by the rollup's deploy. Grounded on the only Schnorr implementation
// anywhere in this corpus, btcsuite/btcd/btcec/v2/schnorr — the teacher
// already depends on the parent btcec/v2 module for its own key handling.
//
// L2OCompactPublicKey (32-byte x-only pubkey) and L2OSignature512 (64-byte
// signature, "512" naming its bit width not its byte length) are both
// hex-encoded on the wire; see internal/opschema for their JSON shapes.
package sig

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// ErrInvalidPublicKey reports a malformed 32-byte x-only public key.
var ErrInvalidPublicKey = errors.New("sig: invalid x-only public key")

// ErrInvalidSignature reports a malformed 64-byte Schnorr signature.
var ErrInvalidSignature = errors.New("sig: invalid signature encoding")

// Verify checks a BIP-340 Schnorr signature over msg against pubKey,
// returning false (not an error) for a well-formed but non-matching
// signature.
func Verify(pubKey [32]byte, msg [32]byte, signature [64]byte) (bool, error) {
	key, err := schnorr.ParsePubKey(pubKey[:])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	parsed, err := schnorr.ParseSignature(signature[:])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return parsed.Verify(msg[:], key), nil
}
