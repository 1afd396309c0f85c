package rpcserver

import (
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

// protoMethodFunc is a BRC-20/BRC-21-parameterized handler; brc20/brc21
// close over the protocol tag so the same implementation backs both halves
// of the method table, mirroring how the reduction's rxn.brc20_* /
// rxn.brc21_* pairs are themselves thin wrappers over one generic table.
type protoMethodFunc func(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error)

func brc20(fn protoMethodFunc) methodFunc {
	return func(r kv.Reader, params json.RawMessage) (any, error) { return fn(r, state.ProtocolBRC20, params) }
}

func brc21(fn protoMethodFunc) methodFunc {
	return func(r kv.Reader, params json.RawMessage) (any, error) { return fn(r, state.ProtocolBRC21, params) }
}

func handleGetTickInfo(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error) {
	var args [1]string
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	tick, err := state.ParseTick(args[0])
	if err != nil {
		return nil, badParams(err.Error())
	}
	return state.GetTokenInfo(r, proto, tick)
}

func handleGetAllTickInfo(r kv.Reader, proto state.Protocol, _ json.RawMessage) (any, error) {
	return state.ListTokenInfos(r, proto)
}

func handleGetBalanceByAddress(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error) {
	var args [2]string
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	tick, err := state.ParseTick(args[1])
	if err != nil {
		return nil, badParams(err.Error())
	}
	return state.GetBalance(r, proto, state.FromAddress(args[0]), tick)
}

func handleGetAllBalanceByAddress(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error) {
	var args [1]string
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	return state.ListBalances(r, proto, state.FromAddress(args[0]))
}

func handleTransactionReceipt(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error) {
	var args [1]string
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	txid, err := chainhash.NewHashFromStr(args[0])
	if err != nil {
		return nil, badParams(err.Error())
	}
	return state.GetReceipts(r, proto, *txid)
}

func handleGetTickTransferableByAddress(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error) {
	var args [2]string
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	tick, err := state.ParseTick(args[1])
	if err != nil {
		return nil, badParams(err.Error())
	}
	return state.ListTransferableByAddressTick(r, proto, state.FromAddress(args[0]), tick)
}

func handleGetAllTransferableByAddress(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error) {
	var args [1]string
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	return state.ListTransferableByAddress(r, proto, state.FromAddress(args[0]))
}

// handleTransferableAssetsOnOutput returns the transferable asset log
// located at outpoint, if any. Sat tracking is output-granular (see
// internal/indexer), so an outpoint admits at most one outstanding
// transferable log rather than ord's full per-satoshi listing.
func handleTransferableAssetsOnOutput(r kv.Reader, proto state.Protocol, params json.RawMessage) (any, error) {
	var args [1]string
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	log, err := state.GetTransferable(r, proto, args[0]+":0")
	if err != nil {
		return nil, err
	}
	if log == nil {
		return []state.TransferableLog{}, nil
	}
	return []state.TransferableLog{*log}, nil
}
