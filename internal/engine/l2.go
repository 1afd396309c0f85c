package engine

import (
	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/merkle"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

// processL2Deposit moves a confirmed brc-21 balance out of the L1 ledger on
// behalf of an L2-attributed recipient. Not reduced to an executable rule
// upstream; designed directly from SPEC_FULL.md 4.H following the shape of
// Inscribe-Transfer/Transfer, since a deposit is a one-sided value movement
// out of the sender's confirmed balance.
func (e *Engine) processL2Deposit(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	if msg.ToIsCoinbase {
		return nil, errkind.NewProtocol(errkind.KindInscribeToCoinbase, "l2deposit")
	}
	wire := msg.Operation.L2Deposit

	tick, err := state.ParseTick(wire.Tick)
	if err != nil {
		return nil, err
	}
	info, err := state.GetTokenInfo(rw, state.ProtocolBRC21, tick)
	if err != nil {
		return nil, errkind.NewLedger("get token info", err)
	}
	if info == nil {
		return nil, errkind.NewProtocol(errkind.KindTickNotFound, "tick %q is not a brc-21 token", tick.String())
	}

	amount, err := normalizeAmount(wire.Amount, info.Decimals)
	if err != nil {
		return nil, err
	}

	balance, err := state.GetBalance(rw, state.ProtocolBRC21, msg.From, tick)
	if err != nil {
		return nil, errkind.NewLedger("get balance", err)
	}
	if balance.Overall.Cmp(amount) < 0 {
		return nil, errkind.NewProtocol(errkind.KindInsufficientBalance, "tick %q overall %s < amt %s", tick.String(), balance.Overall.String(), amount.String())
	}
	balance.Overall.Sub(balance.Overall, amount)
	if err := state.PutBalance(rw, state.ProtocolBRC21, msg.From, tick, balance); err != nil {
		return nil, errkind.NewLedger("put balance", err)
	}

	deposit := state.DepositEntry{
		To:            wire.To,
		Tick:          tick.String(),
		Amount:        amount,
		InscriptionID: msg.InscriptionID,
	}
	if err := state.PutDepositEntry(rw, msg.Height, deposit); err != nil {
		return nil, errkind.NewLedger("put deposit entry", err)
	}

	return &state.Event{Kind: state.EventL2Deposit, Tick: tick.String(), Amount: amount, To: wire.To}, nil
}

// processL2Withdraw credits the L1 side of a brc-21 balance once the engine
// confirms amount is a committed leaf of some deployed rollup's current
// withdrawal root. Designed directly from SPEC_FULL.md 4.H; the wire body
// carries no l2id, so every deployed rollup's latest block is tried in
// turn.
func (e *Engine) processL2Withdraw(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	if msg.ToIsCoinbase {
		return nil, errkind.NewProtocol(errkind.KindInscribeToCoinbase, "l2withdraw")
	}
	wire := msg.Operation.L2Withdraw

	tick, err := state.ParseTick(wire.Tick)
	if err != nil {
		return nil, err
	}
	info, err := state.GetTokenInfo(rw, state.ProtocolBRC21, tick)
	if err != nil {
		return nil, errkind.NewLedger("get token info", err)
	}
	if info == nil {
		return nil, errkind.NewProtocol(errkind.KindTickNotFound, "tick %q is not a brc-21 token", tick.String())
	}

	amount, err := normalizeAmount(wire.Amount, info.Decimals)
	if err != nil {
		return nil, err
	}

	proof, err := parseWithdrawalProof(wire.Proof)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindWithdrawalProofInvalid, "%v", err)
	}

	deployments, err := state.ListDeployRecords(rw)
	if err != nil {
		return nil, errkind.NewLedger("list deploy records", err)
	}

	verified := false
	for _, rec := range deployments {
		latest, err := state.GetLatestBlock(rw, rec.L2ID)
		if err != nil {
			return nil, errkind.NewLedger("get latest block", err)
		}
		if latest == nil {
			continue
		}
		candidate := merkle.Proof{
			Root:     latest.EndWithdrawalStateRoot,
			Value:    withdrawalLeafHash(rec.HashFunction, wire.To, tick.String(), amount),
			Index:    proof.Index,
			Siblings: proof.Siblings,
		}
		if candidate.VerifyMarked(hashfam.For(rec.HashFunction)) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, errkind.NewProtocol(errkind.KindWithdrawalProofInvalid, "no deployed rollup's withdrawal root admits this leaf")
	}

	balance, err := state.GetBalance(rw, state.ProtocolBRC21, msg.To, tick)
	if err != nil {
		return nil, errkind.NewLedger("get balance", err)
	}
	balance.Overall.Add(balance.Overall, amount)
	if err := state.PutBalance(rw, state.ProtocolBRC21, msg.To, tick, balance); err != nil {
		return nil, errkind.NewLedger("put balance", err)
	}

	return &state.Event{Kind: state.EventL2Withdraw, Tick: tick.String(), Amount: amount, To: wire.To}, nil
}
