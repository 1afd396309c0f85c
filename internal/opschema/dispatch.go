// Package opschema parses an inscription envelope's JSON body into one of
// the protocol's typed operations and applies the New/Transfer action
// dispatch rules: which (protocol, op) combinations are legal from a fresh
// inscription versus from a transfer of an existing one.
//
// Grounded on l2o_ord/src/action.rs (content validation and the dispatch
// table) and l2o_ord/src/operation/{brc20,brc21,l2o_a}/*.rs (per-op wire
// field names).
package opschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MinBodyLength is the minimum UTF-8 byte length an envelope body must have
// before it is considered for protocol parsing at all.
const MinBodyLength = 40

// Protocol literals recognized in the JSON body's "p" field.
const (
	ProtocolBRC20 = "brc-20"
	ProtocolBRC21 = "brc-21"
	ProtocolL2OA  = "l2o-a"
)

// ErrNotRecognized reports a body that is syntactically fine JSON but not
// one of this protocol's recognized (p, op) combinations, or one rejected
// for the given action.
var ErrNotRecognized = errors.New("opschema: not a recognized protocol operation")

// ErrInvalidContentType reports an envelope content type outside the
// protocol's whitelist.
var ErrInvalidContentType = errors.New("opschema: invalid content type")

// ErrBodyTooShort reports a body shorter than MinBodyLength.
var ErrBodyTooShort = errors.New("opschema: body shorter than minimum length")

// ActionKind distinguishes a fresh inscription from a transfer of an
// existing one, mirroring the two Action variants the indexer's charm
// tracking produces per inscription.
type ActionKind int

const (
	ActionNew ActionKind = iota
	ActionTransfer
)

// Action is the inscription-marking context deserialize_operation needs:
// for ActionNew, whether the inscription is cursed/unbound/vindicated and
// its parent (consumed only by Mint, for self-issuance authorization).
type Action struct {
	Kind       ActionKind
	Cursed     bool
	Unbound    bool
	Vindicated bool
	Parent     *InscriptionID
}

// OperationKind enumerates every typed operation this schema can produce.
type OperationKind string

const (
	KindDeploy           OperationKind = "deploy"
	KindMint             OperationKind = "mint"
	KindInscribeTransfer OperationKind = "inscribeTransfer"
	KindTransfer         OperationKind = "transfer"
	KindL2Deposit        OperationKind = "l2deposit"
	KindL2Withdraw       OperationKind = "l2withdraw"
	KindL2OADeploy       OperationKind = "l2oaDeploy"
	KindL2OABlock        OperationKind = "l2oaBlock"
)

// Operation is the parsed, typed result of Deserialize. Exactly the field
// matching Kind is populated; MintParent is set only for KindMint.
type Operation struct {
	Kind     OperationKind
	Protocol string

	Deploy     *DeployWire
	Mint       *MintWire
	MintParent *InscriptionID
	Transfer   *TransferWire
	L2Deposit  *L2DepositWire
	L2Withdraw *L2WithdrawWire
	L2OADeploy *L2OADeployWire
	L2OABlock  *L2OABlockWire
}

// validContentType applies the content-type whitelist from
// l2o_ord::action::deserialize_operation verbatim.
func validContentType(ct string) bool {
	switch ct {
	case "text/plain", "text/plain;charset=utf-8", "text/plain;charset=UTF-8", "application/json":
		return true
	}
	return strings.HasPrefix(ct, "text/plain;")
}

type envelope struct {
	Protocol string `json:"p"`
	Op       string `json:"op"`
}

// Deserialize parses an envelope body into a typed Operation, applying the
// content-type whitelist, minimum body length, JSON protocol/op dispatch,
// and the New-vs-Transfer legality rules.
func Deserialize(body []byte, contentType string, action Action) (Operation, error) {
	if len(body) < MinBodyLength {
		return Operation{}, ErrBodyTooShort
	}
	if !validContentType(contentType) {
		return Operation{}, ErrInvalidContentType
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Operation{}, fmt.Errorf("%w: %v", ErrNotRecognized, err)
	}

	switch env.Protocol {
	case ProtocolBRC20:
		return dispatchBRC20(body, env.Op, action)
	case ProtocolBRC21:
		return dispatchBRC21(body, env.Op, action)
	case ProtocolL2OA:
		return dispatchL2OA(body, env.Op, action)
	default:
		return Operation{}, ErrNotRecognized
	}
}

func dispatchBRC20(body []byte, op string, action Action) (Operation, error) {
	switch action.Kind {
	case ActionNew:
		switch op {
		case "deploy":
			var w DeployWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindDeploy, Protocol: ProtocolBRC20, Deploy: &w}, nil
		case "mint":
			var w MintWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindMint, Protocol: ProtocolBRC20, Mint: &w, MintParent: action.Parent}, nil
		case "transfer":
			var w TransferWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindInscribeTransfer, Protocol: ProtocolBRC20, Transfer: &w}, nil
		}
	case ActionTransfer:
		if op == "transfer" {
			var w TransferWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindTransfer, Protocol: ProtocolBRC20, Transfer: &w}, nil
		}
	}
	return Operation{}, ErrNotRecognized
}

func dispatchBRC21(body []byte, op string, action Action) (Operation, error) {
	switch action.Kind {
	case ActionNew:
		switch op {
		case "deploy":
			var w DeployWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindDeploy, Protocol: ProtocolBRC21, Deploy: &w}, nil
		case "mint":
			var w MintWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindMint, Protocol: ProtocolBRC21, Mint: &w, MintParent: action.Parent}, nil
		case "transfer":
			var w TransferWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindInscribeTransfer, Protocol: ProtocolBRC21, Transfer: &w}, nil
		case "l2deposit":
			var w L2DepositWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindL2Deposit, Protocol: ProtocolBRC21, L2Deposit: &w}, nil
		case "l2withdraw":
			var w L2WithdrawWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindL2Withdraw, Protocol: ProtocolBRC21, L2Withdraw: &w}, nil
		}
	case ActionTransfer:
		if op == "transfer" {
			var w TransferWire
			if err := json.Unmarshal(body, &w); err != nil {
				return Operation{}, err
			}
			return Operation{Kind: KindTransfer, Protocol: ProtocolBRC21, Transfer: &w}, nil
		}
	}
	return Operation{}, ErrNotRecognized
}

func dispatchL2OA(body []byte, op string, action Action) (Operation, error) {
	if action.Kind != ActionNew {
		return Operation{}, ErrNotRecognized
	}
	switch op {
	case "deploy":
		var w L2OADeployWire
		if err := json.Unmarshal(body, &w); err != nil {
			return Operation{}, err
		}
		return Operation{Kind: KindL2OADeploy, Protocol: ProtocolL2OA, L2OADeploy: &w}, nil
	case "block":
		var w L2OABlockWire
		if err := json.Unmarshal(body, &w); err != nil {
			return Operation{}, err
		}
		return Operation{Kind: KindL2OABlock, Protocol: ProtocolL2OA, L2OABlock: &w}, nil
	}
	return Operation{}, ErrNotRecognized
}
