package indexer

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/rawblock/l2ordinals-indexer/internal/engine"
	"github.com/rawblock/l2ordinals-indexer/internal/envelope"
	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/opschema"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

// applyTransaction parses envelopes, carries forward any inscription whose
// sat this transaction's inputs move, and executes every resulting
// operation against wb. Sat location is tracked at output granularity (one
// unit per output, not per individual satoshi) — a deliberate
// simplification of ord's sat-range algorithm adequate for the overwhelming
// majority of reveal/transfer transactions, which carry one envelope at
// input 0 offset 0. A sat whose computed offset does not land in any output
// (spent to fees) is carried into this block's coinbase transaction,
// matching SPEC_FULL.md 5's witness-order-then-coinbase-last rule.
func (d *Driver) applyTransaction(wb kv.WriteBatch, tx *wire.MsgTx, height, timestamp uint32, prevouts map[wire.OutPoint]wire.TxOut, coinbaseHash chainhash.Hash, isCoinbase bool) error {
	txHash := tx.TxHash()

	if isCoinbase {
		for _, env := range envelope.FromTransaction(tx) {
			op, ok := decodeOperation(env, opschema.Action{Kind: opschema.ActionNew})
			if !ok {
				continue
			}
			msg := engine.Message{
				Operation:     op,
				TxID:          txHash,
				InscriptionID: opschemaInscriptionID(txHash, uint32(env.Offset)).String(),
				Height:        height,
				Timestamp:     timestamp,
				ToIsCoinbase:  true,
			}
			if _, err := d.Engine.Execute(wb, msg); err != nil {
				return errkind.NewLedger("execute coinbase inscription", err)
			}
		}
		return nil
	}

	inputValues := make([]int64, len(tx.TxIn))
	for i, in := range tx.TxIn {
		out, found := prevouts[in.PreviousOutPoint]
		if !found {
			return errkind.NewLedger("resolve prevout", fmt.Errorf("missing prevout for %s", in.PreviousOutPoint))
		}
		inputValues[i] = out.Value
	}
	cumInStart := cumulativeStarts(inputValues)

	outputValues := make([]int64, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outputValues[i] = out.Value
	}
	cumOutStart := cumulativeStarts(outputValues)
	cumOutEnd := make([]int64, len(outputValues))
	for i, v := range outputValues {
		cumOutEnd[i] = cumOutStart[i] + v
	}

	for i, in := range tx.TxIn {
		oldSatpoint := satpointString(in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index, 0)
		seq, found, err := state.GetSequenceBySatpoint(wb, oldSatpoint)
		if err != nil {
			return errkind.NewLedger("get sequence by satpoint", err)
		}
		if !found {
			continue
		}

		newSatpoint, toAddr, toCoinbase := d.destinationFor(tx, cumInStart[i], cumOutStart, cumOutEnd, coinbaseHash, txHash)
		if err := d.carrySatpoint(wb, seq, oldSatpoint, newSatpoint, toAddr, toCoinbase, txHash, height, timestamp); err != nil {
			return err
		}
	}

	var fromAddr state.AddressKey
	if len(tx.TxIn) > 0 {
		if out, found := prevouts[tx.TxIn[0].PreviousOutPoint]; found {
			fromAddr = state.FromScript(out.PkScript, d.Config.ChainParams)
		}
	}

	for _, env := range envelope.FromTransaction(tx) {
		action := opschema.Action{Kind: opschema.ActionNew}
		if len(env.Payload.Parent) == 36 {
			if parent, err := opschema.ParentFromTag(env.Payload.Parent); err == nil {
				action.Parent = &parent
			}
		}
		op, ok := decodeOperation(env, action)
		if !ok {
			continue
		}

		newSatpoint, toAddr, toCoinbase := d.destinationFor(tx, cumInStart[env.Input], cumOutStart, cumOutEnd, coinbaseHash, txHash)

		seq, err := state.AllocateInscriptionSequence(wb)
		if err != nil {
			return errkind.NewLedger("allocate inscription sequence", err)
		}
		inscriptionID := opschemaInscriptionID(txHash, uint32(env.Offset))

		var parentSeq int64
		var hasParent bool
		if action.Parent != nil {
			if ps, found, err := state.GetSequenceByInscriptionID(wb, action.Parent.String()); err == nil && found {
				parentSeq, hasParent = int64(ps), true
			}
		}

		entry := state.InscriptionEntry{
			InscriptionID:  inscriptionID.String(),
			SequenceNumber: seq,
			Height:         height,
			Number:         int32(seq),
			ParentSequence: parentSeq,
			HasParent:      hasParent,
			Satpoint:       newSatpoint,
			Timestamp:      timestamp,
		}
		if err := state.PutInscriptionEntry(wb, entry); err != nil {
			return errkind.NewLedger("put inscription entry", err)
		}

		msg := engine.Message{
			Operation:         op,
			TxID:              txHash,
			InscriptionID:     inscriptionID.String(),
			InscriptionNumber: int32(seq),
			From:              fromAddr,
			To:                toAddr,
			NewSatpoint:       newSatpoint,
			Height:            height,
			Timestamp:         timestamp,
			ToIsCoinbase:      toCoinbase,
		}
		if _, err := d.Engine.Execute(wb, msg); err != nil {
			return errkind.NewLedger("execute operation", err)
		}
	}

	return nil
}

// destinationFor maps an absolute sat offset within tx's input-value space
// to the output it lands in, or to this block's coinbase transaction if the
// offset falls beyond the last output (spent to fees).
func (d *Driver) destinationFor(tx *wire.MsgTx, offset int64, cumOutStart, cumOutEnd []int64, coinbaseHash, txHash chainhash.Hash) (newSatpoint string, to state.AddressKey, toCoinbase bool) {
	if j, landed := outputIndexForOffset(offset, cumOutStart, cumOutEnd); landed {
		return satpointString(txHash, uint32(j), 0), state.FromScript(tx.TxOut[j].PkScript, d.Config.ChainParams), false
	}
	return satpointString(coinbaseHash, 0, 0), state.AddressKey{}, true
}

// carrySatpoint relocates the inscription entry at seq to newSatpoint and,
// if a transferable-asset log is outstanding at oldSatpoint under either
// protocol, realizes the BRC-20/21 transfer through the execution engine.
func (d *Driver) carrySatpoint(wb kv.WriteBatch, seq uint64, oldSatpoint, newSatpoint string, toAddr state.AddressKey, toCoinbase bool, txHash chainhash.Hash, height, timestamp uint32) error {
	for _, proto := range []struct {
		tag     state.Protocol
		literal string
	}{
		{state.ProtocolBRC20, opschema.ProtocolBRC20},
		{state.ProtocolBRC21, opschema.ProtocolBRC21},
	} {
		log, err := state.GetTransferable(wb, proto.tag, oldSatpoint)
		if err != nil {
			return errkind.NewLedger("get transferable", err)
		}
		if log == nil {
			continue
		}
		msg := engine.Message{
			Operation: opschema.Operation{
				Kind:     opschema.KindTransfer,
				Protocol: proto.literal,
				Transfer: &opschema.TransferWire{Tick: log.Tick},
			},
			TxID:          txHash,
			InscriptionID: log.InscriptionID,
			From:          log.Owner,
			To:            toAddr,
			OldSatpoint:   oldSatpoint,
			NewSatpoint:   newSatpoint,
			Height:        height,
			Timestamp:     timestamp,
			ToIsCoinbase:  toCoinbase,
		}
		if _, err := d.Engine.Execute(wb, msg); err != nil {
			return errkind.NewLedger("execute transfer", err)
		}
	}
	return state.MoveInscriptionSatpoint(wb, seq, newSatpoint)
}

// decodeOperation parses an envelope's body into a typed operation,
// treating every failure (bad content type, short body, unrecognized
// protocol/op) as a Parse error to be ignored silently, per SPEC_FULL.md 7.
func decodeOperation(env envelope.Envelope, action opschema.Action) (opschema.Operation, bool) {
	op, err := opschema.Deserialize(env.Payload.Body, string(env.Payload.ContentType), action)
	if err != nil {
		return opschema.Operation{}, false
	}
	return op, true
}

func cumulativeStarts(values []int64) []int64 {
	starts := make([]int64, len(values))
	var running int64
	for i, v := range values {
		starts[i] = running
		running += v
	}
	return starts
}

func outputIndexForOffset(offset int64, cumStart, cumEnd []int64) (int, bool) {
	for j := range cumStart {
		if offset >= cumStart[j] && offset < cumEnd[j] {
			return j, true
		}
	}
	return 0, false
}
