// Package errkind classifies errors the way the indexer's error-handling
// design distinguishes them: protocol-level rejections that are recorded in
// a receipt and never abort a block, parse failures that cause an
// inscription to be silently ignored, ledger (storage) failures that abort
// the current block and propagate to the driver, and fatal failures that
// terminate the process.
package errkind

import "fmt"

// Protocol is a BRC-20/BRC-21/L2O-A rule violation. It is recorded in a
// Receipt as Err(kind) and does not abort the containing block.
type Protocol struct {
	Kind    string
	Message string
}

func (e *Protocol) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewProtocol builds a Protocol error of the given kind.
func NewProtocol(kind string, format string, args ...any) *Protocol {
	return &Protocol{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Well-known protocol error kinds, matching the receipt ErrorKind space.
const (
	KindInvalidTickLength         = "InvalidTickLength"
	KindDuplicateTick             = "DuplicateTick"
	KindTickNotFound              = "TickNotFound"
	KindDecimalsTooLarge          = "DecimalsTooLarge"
	KindSupplyOutOfRange          = "SupplyOutOfRange"
	KindMintLimitOutOfRange       = "MintLimitOutOfRange"
	KindZeroAmount                = "ZeroAmount"
	KindAmountOverflow            = "AmountOverflow"
	KindInsufficientBalance       = "InsufficientBalance"
	KindTransferableNotFound      = "TransferableNotFound"
	KindTransferableOwnerMismatch = "TransferableOwnerMismatch"
	KindSelfMintPermissionDenied  = "SelfMintPermissionDenied"
	KindInscribeToCoinbase        = "InscribeToCoinbase"
	KindSelfIssuanceNotActivated  = "SelfIssuanceNotActivated"
	KindTickMinted                = "TickMinted"
	KindWithdrawalProofInvalid    = "WithdrawalProofInvalid"
	KindL2IDAlreadyDeployed       = "L2IDAlreadyDeployed"
	KindL2IDNotDeployed           = "L2IDNotDeployed"
	KindInvalidBlockSequence      = "InvalidBlockSequence"
	KindInvalidStateRootLink      = "InvalidStateRootLink"
	KindSignatureInvalid          = "SignatureInvalid"
	KindProofInvalid              = "ProofInvalid"
	KindNotImplemented            = "NotImplemented"
)

// Parse marks an error that should cause the triggering inscription to be
// ignored silently rather than recorded anywhere.
type Parse struct {
	Reason string
}

func (e *Parse) Error() string { return "parse: " + e.Reason }

// NewParse builds a Parse error.
func NewParse(format string, args ...any) *Parse {
	return &Parse{Reason: fmt.Sprintf(format, args...)}
}

// Ledger marks a storage I/O failure. It aborts the current block and
// propagates to the driver, which logs and retries after backoff.
type Ledger struct {
	Op  string
	Err error
}

func (e *Ledger) Error() string { return fmt.Sprintf("ledger %s: %v", e.Op, e.Err) }
func (e *Ledger) Unwrap() error { return e.Err }

// NewLedger wraps a storage error.
func NewLedger(op string, err error) *Ledger {
	return &Ledger{Op: op, Err: err}
}

// Fatal marks an unrecoverable condition (corrupt schema, unrecoverable
// reorg) that must terminate the process.
type Fatal struct {
	Reason string
}

func (e *Fatal) Error() string { return "fatal: " + e.Reason }

// NewFatal builds a Fatal error.
func NewFatal(format string, args ...any) *Fatal {
	return &Fatal{Reason: fmt.Sprintf(format, args...)}
}
