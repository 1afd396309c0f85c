package engine

import (
	"math/big"

	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

// processInscribeTransfer locks amount into a transferable-asset log at
// msg.NewSatpoint, grounded on executor.rs's InscribeTransfer arm.
func (e *Engine) processInscribeTransfer(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	if msg.ToIsCoinbase {
		return nil, errkind.NewProtocol(errkind.KindInscribeToCoinbase, "inscribe-transfer")
	}
	proto, ok := protocolFromWire(msg.Operation.Protocol)
	if !ok {
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "inscribe-transfer: protocol %q", msg.Operation.Protocol)
	}
	wire := msg.Operation.Transfer

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

	amount, err := normalizeAmount(wire.Amount, info.Decimals)
	if err != nil {
		return nil, err
	}

	balance, err := state.GetBalance(rw, proto, msg.From, tick)
	if err != nil {
		return nil, errkind.NewLedger("get balance", err)
	}
	available := new(big.Int).Sub(balance.Overall, balance.Transferable)
	if available.Cmp(amount) < 0 {
		return nil, errkind.NewProtocol(errkind.KindInsufficientBalance, "tick %q available %s < amt %s", tick.String(), available.String(), amount.String())
	}

	balance.Transferable.Add(balance.Transferable, amount)
	if err := state.PutBalance(rw, proto, msg.From, tick, balance); err != nil {
		return nil, errkind.NewLedger("put balance", err)
	}

	log := state.TransferableLog{
		InscriptionID:     msg.InscriptionID,
		InscriptionNumber: msg.InscriptionNumber,
		Amount:            amount,
		Tick:              tick.String(),
		Owner:             msg.From,
	}
	if err := state.PutTransferable(rw, proto, tick, msg.NewSatpoint, log); err != nil {
		return nil, errkind.NewLedger("put transferable", err)
	}

	return &state.Event{Kind: state.EventInscribeTransfer, Tick: tick.String(), Amount: amount}, nil
}

// processTransfer spends the transferable asset at msg.OldSatpoint into its
// new holder, grounded on executor.rs's Transfer arm.
func (e *Engine) processTransfer(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	proto, ok := protocolFromWire(msg.Operation.Protocol)
	if !ok {
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "transfer: protocol %q", msg.Operation.Protocol)
	}
	wire := msg.Operation.Transfer
	tick, err := state.ParseTick(wire.Tick)
	if err != nil {
		return nil, err
	}

	log, err := state.GetTransferable(rw, proto, msg.OldSatpoint)
	if err != nil {
		return nil, errkind.NewLedger("get transferable", err)
	}
	if log == nil {
		return nil, errkind.NewProtocol(errkind.KindTransferableNotFound, "satpoint %s", msg.OldSatpoint)
	}
	if !log.Owner.Equal(msg.From) {
		return nil, errkind.NewProtocol(errkind.KindTransferableOwnerMismatch, "satpoint %s owned by %s, spent by %s", msg.OldSatpoint, log.Owner.String(), msg.From.String())
	}

	senderBalance, err := state.GetBalance(rw, proto, msg.From, tick)
	if err != nil {
		return nil, errkind.NewLedger("get sender balance", err)
	}
	senderBalance.Overall.Sub(senderBalance.Overall, log.Amount)
	senderBalance.Transferable.Sub(senderBalance.Transferable, log.Amount)
	if err := state.PutBalance(rw, proto, msg.From, tick, senderBalance); err != nil {
		return nil, errkind.NewLedger("put sender balance", err)
	}

	message := ""
	receiver := msg.To
	if msg.ToIsCoinbase {
		receiver = msg.From
		message = "transfer redirected to sender: recipient output is coinbase"
	}

	receiverBalance, err := state.GetBalance(rw, proto, receiver, tick)
	if err != nil {
		return nil, errkind.NewLedger("get receiver balance", err)
	}
	receiverBalance.Overall.Add(receiverBalance.Overall, log.Amount)
	if err := state.PutBalance(rw, proto, receiver, tick, receiverBalance); err != nil {
		return nil, errkind.NewLedger("put receiver balance", err)
	}

	if msg.To.IsBurn() {
		info, err := state.GetTokenInfo(rw, proto, tick)
		if err != nil {
			return nil, errkind.NewLedger("get token info", err)
		}
		if info != nil {
			info.BurnedSupply.Add(info.BurnedSupply, log.Amount)
			if err := state.PutTokenInfo(rw, proto, tick, *info); err != nil {
				return nil, errkind.NewLedger("put token info", err)
			}
		}
		if message == "" {
			message = "transfer burned: recipient script is OP_RETURN"
		}
	}

	if err := state.DeleteTransferable(rw, proto, tick, log.Owner, msg.OldSatpoint); err != nil {
		return nil, errkind.NewLedger("delete transferable", err)
	}

	return &state.Event{Kind: state.EventTransfer, Tick: tick.String(), Amount: log.Amount, Message: message}, nil
}
