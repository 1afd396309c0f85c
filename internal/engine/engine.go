// Package engine executes one parsed operation at a time against the state
// tables, producing a Receipt per attempt. Grounded on
// l2o_ord_store/src/executor.rs for Deploy/Mint/InscribeTransfer/Transfer
// (reduced there to concrete rules); L2Deposit, L2Withdraw, L2O-A Deploy and
// L2O-A Block are todo!() stubs upstream and are designed here directly
// from the block-execution rules they imply.
package engine

import (
	"math/big"

	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/opschema"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

// Config holds the engine's tunable parameters.
type Config struct {
	// SelfIssuanceActivationHeight is the height at which 5-byte
	// (self-issuance) tick deploys become legal. Defaults to 111111,
	// matching the observed source constant.
	SelfIssuanceActivationHeight uint32
}

// DefaultConfig returns the engine's defaults.
func DefaultConfig() Config {
	return Config{SelfIssuanceActivationHeight: 111111}
}

// Engine executes operations against one write batch at a time. It carries
// no mutable state of its own; all state lives in the write batch.
type Engine struct {
	Config Config
}

// New builds an Engine with cfg.
func New(cfg Config) *Engine {
	return &Engine{Config: cfg}
}

// Message is one operation ready for execution: the typed operation body
// plus the transaction/inscription context the executor rules need
// (sender, receiver, satpoints, coinbase-ness, block height/timestamp).
type Message struct {
	Operation opschema.Operation

	TxID              [32]byte
	InscriptionID     string
	InscriptionNumber int32
	From              state.AddressKey
	To                state.AddressKey
	OldSatpoint       string
	NewSatpoint       string
	Height            uint32
	Timestamp         uint32
	ToIsCoinbase      bool
}

// protocolFromWire maps opschema's protocol literal to the state package's
// table-family tag. l2o-a operations never address the balance/token
// tables directly and so have no state.Protocol of their own.
func protocolFromWire(p string) (state.Protocol, bool) {
	switch p {
	case opschema.ProtocolBRC20:
		return state.ProtocolBRC20, true
	case opschema.ProtocolBRC21:
		return state.ProtocolBRC21, true
	default:
		return 0, false
	}
}

// Execute applies msg against rw, appending exactly one Receipt to msg.TxID's
// receipt list. A Protocol-kind error is captured into the receipt and
// returned as nil (the block continues); any other error aborts and
// propagates as a Ledger error.
func (e *Engine) Execute(rw kv.WriteBatch, msg Message) (*state.Receipt, error) {
	receipt := &state.Receipt{
		InscriptionID:     msg.InscriptionID,
		InscriptionNumber: msg.InscriptionNumber,
		OldSatpoint:       msg.OldSatpoint,
		NewSatpoint:       msg.NewSatpoint,
		Op:                string(msg.Operation.Kind),
		From:              msg.From,
		To:                msg.To,
	}

	event, err := e.dispatch(rw, msg)
	if err != nil {
		var perr *errkind.Protocol
		if asProtocol(err, &perr) {
			receipt.ErrorKind = perr.Kind
			receipt.ErrorMessage = perr.Message
			if err := state.AppendReceipt(rw, protocolOrZero(msg.Operation.Protocol), msg.TxID, *receipt); err != nil {
				return nil, errkind.NewLedger("append receipt", err)
			}
			return receipt, nil
		}
		return nil, err
	}

	receipt.Event = event
	proto := protocolOrZero(msg.Operation.Protocol)
	if err := state.AppendReceipt(rw, proto, msg.TxID, *receipt); err != nil {
		return nil, errkind.NewLedger("append receipt", err)
	}
	return receipt, nil
}

// protocolOrZero maps an opschema protocol literal to a state.Protocol,
// defaulting to ProtocolBRC20's table family for l2o-a operations (which
// never touch the balance/token tables and so never read this value back).
func protocolOrZero(p string) state.Protocol {
	proto, ok := protocolFromWire(p)
	if !ok {
		return state.ProtocolBRC20
	}
	return proto
}

// asProtocol is a small errors.As wrapper kept local so callers read as
// plain boolean tests rather than importing "errors" at every call site.
func asProtocol(err error, target **errkind.Protocol) bool {
	for err != nil {
		if p, ok := err.(*errkind.Protocol); ok {
			*target = p
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

func (e *Engine) dispatch(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	switch msg.Operation.Kind {
	case opschema.KindDeploy:
		return e.processDeploy(rw, msg)
	case opschema.KindMint:
		return e.processMint(rw, msg)
	case opschema.KindInscribeTransfer:
		return e.processInscribeTransfer(rw, msg)
	case opschema.KindTransfer:
		return e.processTransfer(rw, msg)
	case opschema.KindL2Deposit:
		return e.processL2Deposit(rw, msg)
	case opschema.KindL2Withdraw:
		return e.processL2Withdraw(rw, msg)
	case opschema.KindL2OADeploy:
		return e.processL2OADeploy(rw, msg)
	case opschema.KindL2OABlock:
		return e.processL2OABlock(rw, msg)
	default:
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "unhandled operation kind %q", msg.Operation.Kind)
	}
}

// maxUint64AsBigInt is 2^64 - 1, the ceiling both supply and the "max=0"
// self-issuance substitution are stated against.
var maxUint64AsBigInt = new(big.Int).SetUint64(^uint64(0))
