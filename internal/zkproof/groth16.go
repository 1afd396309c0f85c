// Package zkproof verifies the Groth16-over-BN254 succinct proofs attached
// to L2O-A block inscriptions. The wire encoding — projective (x,y,z)
// decimal-string coordinates for every curve point — is carried over
// unchanged from l2o_crypto/src/proof/groth16/bn128/{proof_data,
// verifier_data}.rs (Groth16ProofSerializable / Groth16VerifierDataSerializable),
// so a deploying rollup's verifier_data JSON and a block's proof JSON need
// no reshaping to cross from the original implementation into this one.
//
// Verification itself uses gnark-crypto's curve-native BN254 Groth16
// package rather than the full gnark circuit-compiler frontend: this
// indexer only ever checks proofs produced elsewhere, it never proves, so
// the lower-level verifier (pairing check against a VerifyingKey) is the
// right-sized tool — the same reasoning certenIO-certen-validator/go.mod's
// consensys/gnark dependency is grounded on, narrowed to the piece this
// indexer actually exercises.
package zkproof

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	bn254groth16 "github.com/consensys/gnark-crypto/ecc/bn254/groth16"
)

// ErrInvalidCoordinate reports a curve coordinate that isn't a valid
// base-10 field element string.
var ErrInvalidCoordinate = errors.New("zkproof: invalid field element string")

// ErrPointAtInfinity reports a projective point whose z coordinate is zero,
// which a well-formed Groth16 proof or verifying key never carries.
var ErrPointAtInfinity = errors.New("zkproof: point at infinity")

// ProofJSON is the wire shape of an L2O-A block's "proof" field when its
// proof_type tags it as groth16_bn254.
type ProofJSON struct {
	PiA          [3]string    `json:"pi_a"`
	PiB          [3][2]string `json:"pi_b"`
	PiC          [3]string    `json:"pi_c"`
	PublicInputs []string     `json:"public_inputs"`
}

// VerifierDataJSON is the wire shape of an L2O-A deploy inscription's
// "verifier_data" field when tagged groth16_bn254.
type VerifierDataJSON struct {
	VkAlpha1 [3]string    `json:"vk_alpha_1"`
	VkBeta2  [3][2]string `json:"vk_beta_2"`
	VkGamma2 [3][2]string `json:"vk_gamma_2"`
	VkDelta2 [3][2]string `json:"vk_delta_2"`
	IC       [][3]string  `json:"ic"`
}

func parseFq(s string) (fp.Element, error) {
	var e fp.Element
	if _, ok := e.SetString(s); !ok {
		return fp.Element{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	return e, nil
}

// g1FromProjective converts ark-bn254's (x, y, z) G1 projective coordinates
// into gnark-crypto's affine G1Affine.
func g1FromProjective(coords [3]string) (bn254.G1Affine, error) {
	x, err := parseFq(coords[0])
	if err != nil {
		return bn254.G1Affine{}, err
	}
	y, err := parseFq(coords[1])
	if err != nil {
		return bn254.G1Affine{}, err
	}
	z, err := parseFq(coords[2])
	if err != nil {
		return bn254.G1Affine{}, err
	}
	if z.IsZero() {
		return bn254.G1Affine{}, ErrPointAtInfinity
	}
	zInv := new(fp.Element).Inverse(&z)
	var ax, ay fp.Element
	ax.Mul(&x, zInv)
	ay.Mul(&y, zInv)
	return bn254.G1Affine{X: ax, Y: ay}, nil
}

// g2FromProjective converts ark-bn254's Fq2-valued (x, y, z) G2 projective
// coordinates (each a [c0, c1] pair) into gnark-crypto's affine G2Affine.
func g2FromProjective(coords [3][2]string) (bn254.G2Affine, error) {
	parseE2 := func(pair [2]string) (bn254.E2, error) {
		c0, err := parseFq(pair[0])
		if err != nil {
			return bn254.E2{}, err
		}
		c1, err := parseFq(pair[1])
		if err != nil {
			return bn254.E2{}, err
		}
		return bn254.E2{A0: c0, A1: c1}, nil
	}
	x, err := parseE2(coords[0])
	if err != nil {
		return bn254.G2Affine{}, err
	}
	y, err := parseE2(coords[1])
	if err != nil {
		return bn254.G2Affine{}, err
	}
	z, err := parseE2(coords[2])
	if err != nil {
		return bn254.G2Affine{}, err
	}
	if z.IsZero() {
		return bn254.G2Affine{}, ErrPointAtInfinity
	}
	var zInv, ax, ay bn254.E2
	zInv.Inverse(&z)
	ax.Mul(&x, &zInv)
	ay.Mul(&y, &zInv)
	return bn254.G2Affine{X: ax, Y: ay}, nil
}

// ToProof converts the wire JSON shape into a gnark-crypto Groth16 proof.
func (p ProofJSON) ToProof() (*bn254groth16.Proof, error) {
	a, err := g1FromProjective(p.PiA)
	if err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	b, err := g2FromProjective(p.PiB)
	if err != nil {
		return nil, fmt.Errorf("pi_b: %w", err)
	}
	c, err := g1FromProjective(p.PiC)
	if err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}
	return &bn254groth16.Proof{Ar: a, Bs: b, Krs: c}, nil
}

// ToVerifyingKey converts the wire JSON shape into a gnark-crypto
// VerifyingKey.
func (v VerifierDataJSON) ToVerifyingKey() (*bn254groth16.VerifyingKey, error) {
	alpha, err := g1FromProjective(v.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("vk_alpha_1: %w", err)
	}
	beta, err := g2FromProjective(v.VkBeta2)
	if err != nil {
		return nil, fmt.Errorf("vk_beta_2: %w", err)
	}
	gamma, err := g2FromProjective(v.VkGamma2)
	if err != nil {
		return nil, fmt.Errorf("vk_gamma_2: %w", err)
	}
	delta, err := g2FromProjective(v.VkDelta2)
	if err != nil {
		return nil, fmt.Errorf("vk_delta_2: %w", err)
	}

	vk := &bn254groth16.VerifyingKey{}
	vk.G1.Alpha = alpha
	vk.G2.Beta = beta
	vk.G2.Gamma = gamma
	vk.G2.Delta = delta

	ic := make([]bn254.G1Affine, len(v.IC))
	for i, coords := range v.IC {
		p, err := g1FromProjective(coords)
		if err != nil {
			return nil, fmt.Errorf("ic[%d]: %w", i, err)
		}
		ic[i] = p
	}
	vk.G1.K = ic

	if err := vk.Precompute(); err != nil {
		return nil, fmt.Errorf("precompute verifying key: %w", err)
	}
	return vk, nil
}

// parsePublicInputs parses the decimal-string public inputs into scalar
// field elements, the witness Verify checks the proof against.
func parsePublicInputs(inputs []string) ([]fr.Element, error) {
	out := make([]fr.Element, len(inputs))
	for i, s := range inputs {
		if _, ok := out[i].SetString(s); !ok {
			return nil, fmt.Errorf("public_inputs[%d]: %w: %q", i, ErrInvalidCoordinate, s)
		}
	}
	return out, nil
}

// Verify checks proof against vk and its declared public inputs, returning
// (false, nil) for a well-formed but invalid proof and a non-nil error only
// for malformed input data.
func Verify(proof ProofJSON, vk VerifierDataJSON) (bool, error) {
	gProof, err := proof.ToProof()
	if err != nil {
		return false, err
	}
	gVK, err := vk.ToVerifyingKey()
	if err != nil {
		return false, err
	}
	witness, err := parsePublicInputs(proof.PublicInputs)
	if err != nil {
		return false, err
	}
	if err := bn254groth16.Verify(gProof, gVK, witness); err != nil {
		return false, nil
	}
	return true, nil
}
