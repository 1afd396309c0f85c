package engine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/sig"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
	"github.com/rawblock/l2ordinals-indexer/internal/zkproof"
)

// groth16BN254ProofType is the only proof_type tag with a working verifier;
// any other proof_type is rejected with a NotImplemented protocol error.
const groth16BN254ProofType = "groth16_bn254"

func decodeHash256(s string) (hashfam.Hash256, error) {
	var out hashfam.Hash256
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("not a 32-byte hex string: %q", s)
	}
	copy(out[:], b)
	return out, nil
}

func decode32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("not a 32-byte hex string: %q", s)
	}
	copy(out[:], b)
	return out, nil
}

func decode64(s string) ([64]byte, error) {
	var out [64]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 64 {
		return out, fmt.Errorf("not a 64-byte hex string: %q", s)
	}
	copy(out[:], b)
	return out, nil
}

// processL2OADeploy registers a new rollup and seeds its zero-state latest
// block. Not reduced to an executable rule upstream (l2o_a/deploy.rs is a
// todo!() stub); designed directly from SPEC_FULL.md 4.H.
func (e *Engine) processL2OADeploy(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	wire := msg.Operation.L2OADeploy

	if existing, err := state.GetDeployRecord(rw, wire.L2ID); err != nil {
		return nil, errkind.NewLedger("get deploy record", err)
	} else if existing != nil {
		return nil, errkind.NewProtocol(errkind.KindL2IDAlreadyDeployed, "l2id %d", wire.L2ID)
	}

	family, ok := hashfam.ParseFamily(wire.HashFunction)
	if !ok {
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "unknown hash_function %q", wire.HashFunction)
	}

	if wire.ProofType != groth16BN254ProofType {
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "proof_type %q", wire.ProofType)
	}
	var vk zkproof.VerifierDataJSON
	if err := json.Unmarshal(wire.VerifierData, &vk); err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "verifier_data: %v", err)
	}
	if _, err := vk.ToVerifyingKey(); err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "verifier_data: %v", err)
	}

	publicKey, err := decode32(wire.PublicKey)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "public_key: %v", err)
	}
	startRoot, err := decodeHash256(wire.StartStateRoot)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "start_state_root: %v", err)
	}

	record := state.DeployRecord{
		L2ID:           wire.L2ID,
		PublicKey:      publicKey,
		StartStateRoot: startRoot,
		HashFunction:   family,
		ProofType:      wire.ProofType,
		VerifyingKey:   []byte(wire.VerifierData),
	}
	if err := state.PutDeployRecord(rw, record); err != nil {
		return nil, errkind.NewLedger("put deploy record", err)
	}

	latest := state.BlockRecord{
		L2ID:                   wire.L2ID,
		L2BlockNumber:          0,
		BitcoinBlockNumber:     0,
		EndStateRoot:           startRoot,
		EndWithdrawalStateRoot: hashfam.For(family).ZeroHashMarked(0),
	}
	if err := state.PutLatestBlock(rw, latest); err != nil {
		return nil, errkind.NewLedger("put latest block", err)
	}

	return &state.Event{Kind: state.EventL2OADeploy, L2ID: int64(wire.L2ID)}, nil
}

// processL2OABlock verifies and commits a rollup's next block. Not reduced
// to an executable rule upstream; designed directly from SPEC_FULL.md 4.H.
func (e *Engine) processL2OABlock(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	wire := msg.Operation.L2OABlock

	deploy, err := state.GetDeployRecord(rw, wire.L2ID)
	if err != nil {
		return nil, errkind.NewLedger("get deploy record", err)
	}
	if deploy == nil {
		return nil, errkind.NewProtocol(errkind.KindL2IDNotDeployed, "l2id %d", wire.L2ID)
	}
	prev, err := state.GetLatestBlock(rw, wire.L2ID)
	if err != nil {
		return nil, errkind.NewLedger("get latest block", err)
	}
	if prev == nil {
		return nil, errkind.NewProtocol(errkind.KindL2IDNotDeployed, "l2id %d has no latest block", wire.L2ID)
	}

	if wire.L2BlockNumber != prev.L2BlockNumber+1 {
		return nil, errkind.NewProtocol(errkind.KindInvalidBlockSequence, "l2_block_number %d != prev %d + 1", wire.L2BlockNumber, prev.L2BlockNumber)
	}
	if wire.BitcoinBlockNumber <= prev.BitcoinBlockNumber {
		return nil, errkind.NewProtocol(errkind.KindInvalidBlockSequence, "bitcoin_block_number %d <= prev %d", wire.BitcoinBlockNumber, prev.BitcoinBlockNumber)
	}

	startState, err := decodeHash256(wire.StartStateRoot)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "start_state_root: %v", err)
	}
	if startState != prev.EndStateRoot {
		return nil, errkind.NewProtocol(errkind.KindInvalidStateRootLink, "start_state_root does not match prior end_state_root")
	}
	startWithdrawal, err := decodeHash256(wire.StartWithdrawalStateRoot)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "start_withdrawal_state_root: %v", err)
	}
	if startWithdrawal != prev.EndWithdrawalStateRoot {
		return nil, errkind.NewProtocol(errkind.KindInvalidStateRootLink, "start_withdrawal_state_root does not match prior end_withdrawal_state_root")
	}

	endState, err := decodeHash256(wire.EndStateRoot)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "end_state_root: %v", err)
	}
	depositRoot, err := decodeHash256(wire.DepositStateRoot)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "deposit_state_root: %v", err)
	}
	endWithdrawal, err := decodeHash256(wire.EndWithdrawalStateRoot)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "end_withdrawal_state_root: %v", err)
	}
	superchainRoot, err := decodeHash256(wire.SuperchainRoot)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "superchain_root: %v", err)
	}
	bitcoinBlockHash, err := decode32(wire.BitcoinBlockHash)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "bitcoin_block_hash: %v", err)
	}

	payload := hashfam.BlockPayload{
		L2ID:                     wire.L2ID,
		L2BlockNumber:            wire.L2BlockNumber,
		BitcoinBlockNumber:       wire.BitcoinBlockNumber,
		BitcoinBlockHash:         bitcoinBlockHash,
		PublicKey:                deploy.PublicKey,
		StartStateRoot:           startState,
		EndStateRoot:             endState,
		DepositStateRoot:         depositRoot,
		StartWithdrawalStateRoot: startWithdrawal,
		EndWithdrawalStateRoot:   endWithdrawal,
		SuperchainRoot:           superchainRoot,
	}
	blockHash := hashfam.BlockHash(deploy.HashFunction, payload)

	signature, err := decode64(wire.Signature)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "signature: %v", err)
	}
	signatureOK, err := sig.Verify(deploy.PublicKey, blockHash, signature)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindSignatureInvalid, "%v", err)
	}
	if !signatureOK {
		return nil, errkind.NewProtocol(errkind.KindSignatureInvalid, "block %d of l2id %d", wire.L2BlockNumber, wire.L2ID)
	}

	if deploy.ProofType != groth16BN254ProofType {
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "proof_type %q", deploy.ProofType)
	}
	var vk zkproof.VerifierDataJSON
	if err := json.Unmarshal(deploy.VerifyingKey, &vk); err != nil {
		return nil, errkind.NewLedger("parse stored verifying key", err)
	}
	var proof zkproof.ProofJSON
	if err := json.Unmarshal(wire.ProofData, &proof); err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "proof: %v", err)
	}
	proof.PublicInputs = []string{blockHashFieldElement(blockHash)}
	proofOK, err := zkproof.Verify(proof, vk)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "%v", err)
	}
	if !proofOK {
		return nil, errkind.NewProtocol(errkind.KindProofInvalid, "block %d of l2id %d", wire.L2BlockNumber, wire.L2ID)
	}

	var bitcoinHash chainhash.Hash
	copy(bitcoinHash[:], bitcoinBlockHash[:])

	latest := state.BlockRecord{
		L2ID:                     wire.L2ID,
		L2BlockNumber:            wire.L2BlockNumber,
		BitcoinBlockNumber:       wire.BitcoinBlockNumber,
		BitcoinBlockHash:         bitcoinHash,
		StartStateRoot:           startState,
		EndStateRoot:             endState,
		DepositStateRoot:         depositRoot,
		StartWithdrawalStateRoot: startWithdrawal,
		EndWithdrawalStateRoot:   endWithdrawal,
		SuperchainRoot:           superchainRoot,
		Signature:                signature,
	}
	if err := state.PutLatestBlock(rw, latest); err != nil {
		return nil, errkind.NewLedger("put latest block", err)
	}

	for _, family := range []hashfam.Family{hashfam.SHA256, hashfam.BLAKE3, hashfam.Keccak256, hashfam.PoseidonGoldilocks} {
		if _, err := state.InsertStateRoot(rw, family, wire.L2ID, wire.BitcoinBlockNumber, endState); err != nil {
			return nil, errkind.NewLedger("insert state root", err)
		}
	}
	if _, err := state.InsertSuperchainRoot(rw, wire.BitcoinBlockNumber, superchainRoot); err != nil {
		return nil, errkind.NewLedger("insert superchain root", err)
	}

	return &state.Event{Kind: state.EventL2OABlock, L2ID: int64(wire.L2ID)}, nil
}

// blockHashFieldElement renders a 32-byte digest as the decimal string the
// Groth16 public-input slot expects; gnark-crypto's fr.Element.SetString
// reduces values larger than the BN254 scalar field modulo it, so no manual
// reduction is needed here.
func blockHashFieldElement(h hashfam.Hash256) string {
	return new(big.Int).SetBytes(h[:]).String()
}
