package engine

import (
	"fmt"
	"math/big"

	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

// processMint credits overall balance, grounded on executor.rs's Mint arm.
func (e *Engine) processMint(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	if msg.ToIsCoinbase {
		return nil, errkind.NewProtocol(errkind.KindInscribeToCoinbase, "mint")
	}
	proto, ok := protocolFromWire(msg.Operation.Protocol)
	if !ok {
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "mint: protocol %q", msg.Operation.Protocol)
	}
	wire := msg.Operation.Mint

	tick, err := state.ParseTick(wire.Tick)
	if err != nil {
		return nil, err
	}
	info, err := state.GetTokenInfo(rw, proto, tick)
	if err != nil {
		return nil, errkind.NewLedger("get token info", err)
	}
	if info == nil {
		return nil, errkind.NewProtocol(errkind.KindTickNotFound, "tick %q", tick.String())
	}

	if info.IsSelfMint {
		if msg.Operation.MintParent == nil || msg.Operation.MintParent.String() != info.InscriptionID {
			return nil, errkind.NewProtocol(errkind.KindSelfMintPermissionDenied, "tick %q requires parent %s", tick.String(), info.InscriptionID)
		}
	}

	amount, err := normalizeAmount(wire.Amount, info.Decimals)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(info.LimitPerMint) > 0 {
		return nil, errkind.NewProtocol(errkind.KindMintLimitOutOfRange, "amt %s exceeds per-mint limit %s", amount.String(), info.LimitPerMint.String())
	}

	if info.Minted.Cmp(info.Supply) >= 0 {
		return nil, errkind.NewProtocol(errkind.KindTickMinted, "tick %q fully minted", tick.String())
	}

	message := ""
	remaining := new(big.Int).Sub(info.Supply, info.Minted)
	credited := amount
	if remaining.Cmp(amount) < 0 {
		credited = remaining
		message = fmt.Sprintf("mint cut off to %s (only %s remained of supply %s)", credited.String(), remaining.String(), info.Supply.String())
	}

	info.Minted.Add(info.Minted, credited)
	info.LatestMintHeight = msg.Height
	if err := state.PutTokenInfo(rw, proto, tick, *info); err != nil {
		return nil, errkind.NewLedger("put token info", err)
	}

	balance, err := state.GetBalance(rw, proto, msg.To, tick)
	if err != nil {
		return nil, errkind.NewLedger("get balance", err)
	}
	balance.Overall.Add(balance.Overall, credited)
	if err := state.PutBalance(rw, proto, msg.To, tick, balance); err != nil {
		return nil, errkind.NewLedger("put balance", err)
	}

	return &state.Event{
		Kind:    state.EventMint,
		Tick:    tick.String(),
		Amount:  credited,
		Message: message,
	}, nil
}
