// Package state implements the physical key-value tables the execution
// engine reads and writes: balances, token metadata, receipts,
// transferable-asset locations, inscription entries, L2 deploy/latest-block
// records, and the four parallel state-root Merkle trees plus the
// superchain tree. Grounded on l2o_ord_store/src/{balance,token_info,entry,
// event,script_key,tick,table}.rs, adapted from redb tables to the
// internal/kv ordered byte-key store.
package state

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
)

// Protocol distinguishes the fungible-token table family a tick belongs to.
type Protocol uint8

const (
	ProtocolBRC20 Protocol = iota
	ProtocolBRC21
)

// Balance is one address's holding of one tick: overall balance and the
// portion currently locked into an outstanding inscribe-transfer.
// Invariant: 0 <= Transferable <= Overall.
type Balance struct {
	Tick         string   `json:"tick"`
	Overall      *big.Int `json:"overall"`
	Transferable *big.Int `json:"transferable"`
}

// TokenInfo is a deployed tick's metadata, grounded on token_info.rs.
type TokenInfo struct {
	Tick               string     `json:"tick"`
	InscriptionID      string     `json:"inscription_id"`
	InscriptionNumber  int32      `json:"inscription_number"`
	Supply             *big.Int   `json:"supply"`
	BurnedSupply       *big.Int   `json:"burned_supply"`
	Minted             *big.Int   `json:"minted"`
	LimitPerMint       *big.Int   `json:"limit_per_mint"`
	Decimals           uint8      `json:"decimal"`
	DeployBy           AddressKey `json:"deploy_by"`
	IsSelfMint         bool       `json:"is_self_mint"`
	DeployedHeight     uint32     `json:"deployed_height"`
	DeployedTimestamp  uint32     `json:"deployed_timestamp"`
	LatestMintHeight   uint32     `json:"latest_mint_height"`
}

// TransferableLog records an outstanding inscribe-transfer awaiting
// completion or cancellation by the corresponding transfer.
type TransferableLog struct {
	InscriptionID     string     `json:"inscription_id"`
	InscriptionNumber int32      `json:"inscription_number"`
	Amount            *big.Int   `json:"amount"`
	Tick              string     `json:"tick"`
	Owner             AddressKey `json:"owner"`
}

// EventKind tags the variant populated in an Event, mirroring event.rs's
// Event enum the way internal/heuristics/investigation.go tags a
// TimelineEvent by EventType rather than emulating a Go sum type.
type EventKind string

const (
	EventDeploy           EventKind = "deploy"
	EventMint             EventKind = "mint"
	EventInscribeTransfer EventKind = "inscribe_transfer"
	EventTransfer         EventKind = "transfer"
	EventL2Deposit        EventKind = "l2_deposit"
	EventL2Withdraw       EventKind = "l2_withdraw"
	EventL2OADeploy       EventKind = "l2o_a_deploy"
	EventL2OABlock        EventKind = "l2o_a_block"
)

// Event is the successful outcome of one executed operation.
type Event struct {
	Kind EventKind `json:"kind"`

	DeploySupply       *big.Int `json:"deploy_supply,omitempty"`
	DeployLimitPerMint *big.Int `json:"deploy_limit_per_mint,omitempty"`
	DeployDecimals     uint8    `json:"deploy_decimals,omitempty"`
	DeployTick         string   `json:"deploy_tick,omitempty"`
	DeploySelfMint     bool     `json:"deploy_self_mint,omitempty"`

	Tick    string   `json:"tick,omitempty"`
	Amount  *big.Int `json:"amount,omitempty"`
	Message string   `json:"message,omitempty"`

	L2ID int64  `json:"l2id,omitempty"`
	To   string `json:"to,omitempty"`
}

// Receipt is the per-inscription execution outcome recorded against a txid,
// grounded on event.rs's Receipt struct.
type Receipt struct {
	InscriptionID     string     `json:"inscription_id"`
	InscriptionNumber int32      `json:"inscription_number"`
	OldSatpoint       string     `json:"old_satpoint"`
	NewSatpoint       string     `json:"new_satpoint"`
	Op                string     `json:"op"`
	From              AddressKey `json:"from"`
	To                AddressKey `json:"to"`
	Event             *Event     `json:"event,omitempty"`
	ErrorKind         string     `json:"error_kind,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// Charm is a bitmask of flags recorded against an inscription entry.
type Charm uint16

const (
	CharmCursed Charm = 1 << iota
	CharmVindicated
	CharmUnbound
	CharmReinscription
	CharmLost
)

// InscriptionEntry is the per-inscription metadata row keyed by sequence
// number, with InscriptionID -> sequence number as a separate index.
type InscriptionEntry struct {
	InscriptionID   string `json:"inscription_id"`
	SequenceNumber  uint64 `json:"sequence_number"`
	Height          uint32 `json:"height"`
	Number          int32  `json:"number"`
	ParentSequence  int64  `json:"parent_sequence,omitempty"`
	HasParent       bool   `json:"has_parent"`
	Charms          Charm  `json:"charms"`
	Fee             uint64 `json:"fee"`
	Satpoint        string `json:"satpoint"`
	Timestamp       uint32 `json:"timestamp"`
}

// DepositEntry audits one L2 Deposit operation: a confirmed L1 balance
// debited on behalf of an L2-attributed recipient, recorded per bitcoin
// height as an audit log. No block-execution step reads it back; an L2O-A
// Block's deposit_state_root is not checked against it.
type DepositEntry struct {
	To            string   `json:"to"`
	Tick          string   `json:"tick"`
	Amount        *big.Int `json:"amount"`
	InscriptionID string   `json:"inscription_id"`
}

// DeployRecord is a deployed rollup's genesis record, grounded on
// l2o_a/deploy.rs's L2OADeployInscription.
type DeployRecord struct {
	L2ID           uint64         `json:"l2id"`
	PublicKey      [32]byte       `json:"public_key"`
	StartStateRoot hashfam.Hash256 `json:"start_state_root"`
	HashFunction   hashfam.Family `json:"hash_function"`
	ProofType      string         `json:"proof_type"`
	VerifyingKey   []byte         `json:"verifying_key"`
}

// BlockRecord is a rollup's latest accepted block, grounded on
// l2o_a/block.rs's L2OABlockInscription; it also seeds as the zero-state
// placeholder immediately after a Deploy.
type BlockRecord struct {
	L2ID                     uint64          `json:"l2id"`
	L2BlockNumber            uint64          `json:"l2_block_number"`
	BitcoinBlockNumber       uint64          `json:"bitcoin_block_number"`
	BitcoinBlockHash         chainhash.Hash  `json:"bitcoin_block_hash"`
	StartStateRoot           hashfam.Hash256 `json:"start_state_root"`
	EndStateRoot             hashfam.Hash256 `json:"end_state_root"`
	DepositStateRoot         hashfam.Hash256 `json:"deposit_state_root"`
	StartWithdrawalStateRoot hashfam.Hash256 `json:"start_withdrawal_state_root"`
	EndWithdrawalStateRoot   hashfam.Hash256 `json:"end_withdrawal_state_root"`
	SuperchainRoot           hashfam.Hash256 `json:"superchain_root"`
	Signature                [64]byte        `json:"signature"`
}
