package opschema

import (
	"encoding/json"
	"fmt"
)

// SelfIssuanceTickLength is the tick byte length at which deploy requires
// an explicit self_mint flag (the "self-issuance" tick class).
const SelfIssuanceTickLength = 5

// DeployWire is the brc-20/brc-21 "deploy" operation body.
type DeployWire struct {
	Tick       string  `json:"tick"`
	MaxSupply  string  `json:"max"`
	MintLimit  *string `json:"lim,omitempty"`
	Decimals   *string `json:"dec,omitempty"`
	SelfMint   *bool   `json:"-"`
}

// UnmarshalJSON enforces the tick-length-5 self_mint requirement: a 5-byte
// tick must carry a literal "true"/"false" self_mint string; for any other
// tick length a self_mint field is ignored and SelfMint stays nil.
func (d *DeployWire) UnmarshalJSON(data []byte) error {
	var fields struct {
		Tick      string          `json:"tick"`
		MaxSupply string          `json:"max"`
		MintLimit *string         `json:"lim"`
		Decimals  *string         `json:"dec"`
		SelfMint  json.RawMessage `json:"self_mint"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	d.Tick = fields.Tick
	d.MaxSupply = fields.MaxSupply
	d.MintLimit = fields.MintLimit
	d.Decimals = fields.Decimals
	d.SelfMint = nil

	if len(fields.Tick) != SelfIssuanceTickLength {
		return nil
	}
	if fields.SelfMint == nil {
		return fmt.Errorf("opschema: missing field `self_mint`")
	}
	var raw string
	if err := json.Unmarshal(fields.SelfMint, &raw); err != nil {
		return fmt.Errorf("opschema: self_mint must be a string: %w", err)
	}
	switch raw {
	case "true":
		v := true
		d.SelfMint = &v
	case "false":
		v := false
		d.SelfMint = &v
	default:
		return fmt.Errorf("opschema: self_mint must be \"true\" or \"false\", got %q", raw)
	}
	return nil
}

// MintWire is the "mint" operation body, shared by brc-20 and brc-21.
type MintWire struct {
	Tick   string `json:"tick"`
	Amount string `json:"amt"`
}

// TransferWire is the "transfer" operation body (both the inscribe step and
// the subsequent move step share this shape), shared by brc-20 and brc-21.
type TransferWire struct {
	Tick   string `json:"tick"`
	Amount string `json:"amt"`
}

// L2DepositWire is the brc-21 "l2deposit" operation body.
type L2DepositWire struct {
	Tick   string `json:"tick"`
	To     string `json:"to"`
	Amount string `json:"amt"`
}

// L2WithdrawWire is the brc-21 "l2withdraw" operation body. Proof is kept
// opaque at the schema layer; internal/engine interprets it as a Merkle
// inclusion proof once the tick's withdrawal root is known.
type L2WithdrawWire struct {
	Tick   string          `json:"tick"`
	To     string          `json:"to"`
	Amount string          `json:"amt"`
	Proof  json.RawMessage `json:"proof"`
}

// L2OADeployWire is the l2o-a "deploy" operation body. Verifier-data fields
// are flattened onto the JSON object alongside l2id/public_key/
// start_state_root/hash_function and are tagged by proof_type; they are
// captured raw here and parsed by internal/zkproof once proof_type is known.
type L2OADeployWire struct {
	L2ID           uint64
	PublicKey      string
	StartStateRoot string
	HashFunction   string
	ProofType      string
	VerifierData   json.RawMessage
}

func (d *L2OADeployWire) UnmarshalJSON(data []byte) error {
	var known struct {
		L2ID           uint64 `json:"l2id"`
		PublicKey      string `json:"public_key"`
		StartStateRoot string `json:"start_state_root"`
		HashFunction   string `json:"hash_function"`
		ProofType      string `json:"proof_type"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	d.L2ID = known.L2ID
	d.PublicKey = known.PublicKey
	d.StartStateRoot = known.StartStateRoot
	d.HashFunction = known.HashFunction
	d.ProofType = known.ProofType
	d.VerifierData = data
	return nil
}

// L2OABlockWire is the l2o-a "block" operation body. Proof fields are
// flattened onto the JSON object and tagged by proof_type, captured raw for
// the same reason as L2OADeployWire.VerifierData.
type L2OABlockWire struct {
	L2ID                     uint64
	L2BlockNumber            uint64
	BitcoinBlockNumber       uint64
	BitcoinBlockHash         string
	PublicKey                string
	StartStateRoot           string
	EndStateRoot             string
	DepositStateRoot         string
	StartWithdrawalStateRoot string
	EndWithdrawalStateRoot   string
	ProofType                string
	ProofData                json.RawMessage
	SuperchainRoot           string
	Signature                string
}

func (b *L2OABlockWire) UnmarshalJSON(data []byte) error {
	var known struct {
		L2ID                     uint64 `json:"l2id"`
		L2BlockNumber            uint64 `json:"l2_block_number"`
		BitcoinBlockNumber       uint64 `json:"bitcoin_block_number"`
		BitcoinBlockHash         string `json:"bitcoin_block_hash"`
		PublicKey                string `json:"public_key"`
		StartStateRoot           string `json:"start_state_root"`
		EndStateRoot             string `json:"end_state_root"`
		DepositStateRoot         string `json:"deposit_state_root"`
		StartWithdrawalStateRoot string `json:"start_withdrawal_state_root"`
		EndWithdrawalStateRoot   string `json:"end_withdrawal_state_root"`
		ProofType                string `json:"proof_type"`
		SuperchainRoot           string `json:"superchain_root"`
		Signature                string `json:"signature"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	b.L2ID = known.L2ID
	b.L2BlockNumber = known.L2BlockNumber
	b.BitcoinBlockNumber = known.BitcoinBlockNumber
	b.BitcoinBlockHash = known.BitcoinBlockHash
	b.PublicKey = known.PublicKey
	b.StartStateRoot = known.StartStateRoot
	b.EndStateRoot = known.EndStateRoot
	b.DepositStateRoot = known.DepositStateRoot
	b.StartWithdrawalStateRoot = known.StartWithdrawalStateRoot
	b.EndWithdrawalStateRoot = known.EndWithdrawalStateRoot
	b.ProofType = known.ProofType
	b.SuperchainRoot = known.SuperchainRoot
	b.Signature = known.Signature
	b.ProofData = data
	return nil
}
