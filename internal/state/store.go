package state

import (
	"encoding/binary"
	"encoding/json"

	"github.com/btcsuite/btcd/wire"

	"github.com/rawblock/l2ordinals-indexer/internal/kv"
)

func getJSON[T any](r kv.Reader, key []byte) (T, bool, error) {
	var zero T
	v, err := r.GetExact(key)
	if err == kv.ErrNotFound {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func putJSON(w kv.Writer, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.Set(key, b)
}

func scanJSON[T any](r kv.Reader, lower, upper []byte) ([]T, error) {
	pairs, err := r.Scan(lower, upper)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(pairs))
	for _, p := range pairs {
		var v T
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetBalance returns an address's holding of tick, or a zero balance if
// none has ever been recorded (table.rs's get_balance returning None is
// treated by callers as "zero", following process_mint/process_transfer's
// own Balance::new fallback).
func GetBalance(r kv.Reader, proto Protocol, addr AddressKey, tick Tick) (Balance, error) {
	b, ok, err := getJSON[Balance](r, balanceKey(proto, addr, tick.HexKey()))
	if err != nil {
		return Balance{}, err
	}
	if !ok {
		return zeroBalance(tick), nil
	}
	return b, nil
}

func zeroBalance(tick Tick) Balance {
	return Balance{Tick: tick.String(), Overall: bigZero(), Transferable: bigZero()}
}

// PutBalance writes addr's balance row for balance.Tick.
func PutBalance(w kv.Writer, proto Protocol, addr AddressKey, tick Tick, balance Balance) error {
	return putJSON(w, balanceKey(proto, addr, tick.HexKey()), balance)
}

// ListBalances returns every tick balance recorded for addr.
func ListBalances(r kv.Reader, proto Protocol, addr AddressKey) ([]Balance, error) {
	lower, upper := balanceScanBounds(proto, addr)
	return scanJSON[Balance](r, lower, upper)
}

// GetTokenInfo returns tick's deploy metadata, if registered.
func GetTokenInfo(r kv.Reader, proto Protocol, tick Tick) (*TokenInfo, error) {
	info, ok, err := getJSON[TokenInfo](r, tokenKey(proto, tick.HexKey()))
	if err != nil || !ok {
		return nil, err
	}
	return &info, nil
}

// PutTokenInfo registers or updates tick's deploy metadata.
func PutTokenInfo(w kv.Writer, proto Protocol, tick Tick, info TokenInfo) error {
	return putJSON(w, tokenKey(proto, tick.HexKey()), info)
}

// ListTokenInfos returns every registered tick's metadata for proto.
func ListTokenInfos(r kv.Reader, proto Protocol) ([]TokenInfo, error) {
	lower, upper := tokenScanBounds(proto)
	return scanJSON[TokenInfo](r, lower, upper)
}

// GetReceipts returns every receipt recorded against txid.
func GetReceipts(r kv.Reader, proto Protocol, txid [32]byte) ([]Receipt, error) {
	receipts, ok, err := getJSON[[]Receipt](r, receiptsKey(proto, txid))
	if err != nil || !ok {
		return nil, err
	}
	return receipts, nil
}

// AppendReceipt appends receipt to txid's receipt list.
func AppendReceipt(rw kv.WriteBatch, proto Protocol, txid [32]byte, receipt Receipt) error {
	existing, err := GetReceipts(rw, proto, txid)
	if err != nil {
		return err
	}
	existing = append(existing, receipt)
	return putJSON(rw, receiptsKey(proto, txid), existing)
}

// GetTransferable returns the outstanding transferable-asset log at
// satpoint, if any.
func GetTransferable(r kv.Reader, proto Protocol, satpoint string) (*TransferableLog, error) {
	log, ok, err := getJSON[TransferableLog](r, transferableKey(proto, satpoint))
	if err != nil || !ok {
		return nil, err
	}
	return &log, nil
}

// PutTransferable records a new outstanding transferable-asset log at
// satpoint and indexes it under (owner, tick) for address-scoped listing.
func PutTransferable(rw kv.WriteBatch, proto Protocol, tick Tick, satpoint string, log TransferableLog) error {
	if err := putJSON(rw, transferableKey(proto, satpoint), log); err != nil {
		return err
	}
	return rw.Set(transferableIndexKey(proto, log.Owner, tick.HexKey(), satpoint), []byte{1})
}

// DeleteTransferable removes the transferable-asset log at satpoint and its
// (owner, tick) index entry, the pair process_transfer's removal performs
// atomically.
func DeleteTransferable(rw kv.WriteBatch, proto Protocol, tick Tick, owner AddressKey, satpoint string) error {
	if _, err := rw.Delete(transferableKey(proto, satpoint)); err != nil {
		return err
	}
	_, err := rw.Delete(transferableIndexKey(proto, owner, tick.HexKey(), satpoint))
	return err
}

// ListTransferableByAddressTick returns every outstanding transferable-asset
// log owned by addr for tick.
func ListTransferableByAddressTick(r kv.Reader, proto Protocol, addr AddressKey, tick Tick) ([]TransferableLog, error) {
	lower, upper := transferableIndexScanBounds(proto, addr, tick.HexKey())
	pairs, err := r.Scan(lower, upper)
	if err != nil {
		return nil, err
	}
	return resolveTransferableIndex(r, proto, pairs)
}

// ListTransferableByAddress returns every outstanding transferable-asset log
// owned by addr across all ticks.
func ListTransferableByAddress(r kv.Reader, proto Protocol, addr AddressKey) ([]TransferableLog, error) {
	lower, upper := transferableAddressScanBounds(proto, addr)
	pairs, err := r.Scan(lower, upper)
	if err != nil {
		return nil, err
	}
	return resolveTransferableIndex(r, proto, pairs)
}

func resolveTransferableIndex(r kv.Reader, proto Protocol, pairs []kv.Pair) ([]TransferableLog, error) {
	out := make([]TransferableLog, 0, len(pairs))
	for _, p := range pairs {
		satpoint := satpointFromIndexKey(p.Key)
		log, err := GetTransferable(r, proto, satpoint)
		if err != nil {
			return nil, err
		}
		if log != nil {
			out = append(out, *log)
		}
	}
	return out, nil
}

// satpointFromIndexKey recovers the trailing satpoint field appended by
// transferableIndexKey.
func satpointFromIndexKey(key []byte) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '_' {
			return string(key[i+1:])
		}
	}
	return ""
}

// GetDeployRecord returns l2id's genesis record, if deployed.
func GetDeployRecord(r kv.Reader, l2id uint64) (*DeployRecord, error) {
	rec, ok, err := getJSON[DeployRecord](r, deployRecordKey(l2id))
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// PutDeployRecord persists l2id's genesis record.
func PutDeployRecord(w kv.Writer, rec DeployRecord) error {
	return putJSON(w, deployRecordKey(rec.L2ID), rec)
}

// GetLatestBlock returns l2id's most recently accepted block record.
func GetLatestBlock(r kv.Reader, l2id uint64) (*BlockRecord, error) {
	rec, ok, err := getJSON[BlockRecord](r, latestBlockKey(l2id))
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// PutLatestBlock overwrites l2id's latest block record.
func PutLatestBlock(w kv.Writer, rec BlockRecord) error {
	return putJSON(w, latestBlockKey(rec.L2ID), rec)
}

// PutBlockHeader records the 80-byte header at height.
func PutBlockHeader(w kv.Writer, height uint32, header wire.BlockHeader) error {
	var buf [80]byte
	if err := encodeBlockHeader(&buf, header); err != nil {
		return err
	}
	return w.Set(heightKey(height), buf[:])
}

// GetBlockHeader returns the header stored at height, if any.
func GetBlockHeader(r kv.Reader, height uint32) (*wire.BlockHeader, error) {
	v, err := r.GetExact(heightKey(height))
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	hdr, err := decodeBlockHeader(v)
	if err != nil {
		return nil, err
	}
	return hdr, nil
}

// PutTipHeight records the greatest height the driver has fully indexed, the
// row the driver's per-tick loop consults to decide whether the node tip has
// advanced (SPEC_FULL.md 4.K step 1).
func PutTipHeight(w kv.Writer, height uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], height)
	return w.Set(tipHeightKey(), buf[:])
}

// GetTipHeight returns the greatest indexed height, and false if nothing has
// been indexed yet.
func GetTipHeight(r kv.Reader) (uint32, bool, error) {
	v, err := r.GetExact(tipHeightKey())
	if err == kv.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return binary.BigEndian.Uint32(v), true, nil
}

// AllocateInscriptionSequence returns the next never-reused sequence number,
// the monotonic counter PutInscriptionEntry's rows are keyed by.
func AllocateInscriptionSequence(rw kv.WriteBatch) (uint64, error) {
	v, err := rw.GetExact(sequenceCounterKey())
	var next uint64
	if err == nil {
		next = seqFromBytes(v) + 1
	} else if err != kv.ErrNotFound {
		return 0, err
	}
	if err := rw.Set(sequenceCounterKey(), seqBytes(next)); err != nil {
		return 0, err
	}
	return next, nil
}

// PutOutpointValue records the resolved TxOut for outpoint so later spends
// can resolve their prevout value without a fetcher round trip.
func PutOutpointValue(w kv.Writer, txid [32]byte, vout uint32, out wire.TxOut) error {
	return putJSON(w, outpointKey(txid, vout), out)
}

// GetOutpointValue returns the locally recorded TxOut for outpoint, if any.
func GetOutpointValue(r kv.Reader, txid [32]byte, vout uint32) (*wire.TxOut, error) {
	out, ok, err := getJSON[wire.TxOut](r, outpointKey(txid, vout))
	if err != nil || !ok {
		return nil, err
	}
	return &out, nil
}

// PutInscriptionEntry records an inscription's sequence-number-keyed entry
// plus the inscription-id -> sequence-number and satpoint -> sequence-number
// indexes.
func PutInscriptionEntry(rw kv.WriteBatch, entry InscriptionEntry) error {
	if err := putJSON(rw, inscriptionEntryKey(entry.SequenceNumber), entry); err != nil {
		return err
	}
	if err := rw.Set(inscriptionIDToSeqKey(entry.InscriptionID), seqBytes(entry.SequenceNumber)); err != nil {
		return err
	}
	return rw.Set(satpointToSeqKey(entry.Satpoint), seqBytes(entry.SequenceNumber))
}

// MoveInscriptionSatpoint relocates the inscription at seq from its
// currently recorded satpoint to newSatpoint, updating the satpoint index
// alongside the entry the same way PutInscriptionEntry seeds it initially.
func MoveInscriptionSatpoint(rw kv.WriteBatch, seq uint64, newSatpoint string) error {
	entry, err := GetInscriptionEntryBySequence(rw, seq)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	if _, err := rw.Delete(satpointToSeqKey(entry.Satpoint)); err != nil {
		return err
	}
	entry.Satpoint = newSatpoint
	if err := putJSON(rw, inscriptionEntryKey(seq), *entry); err != nil {
		return err
	}
	return rw.Set(satpointToSeqKey(newSatpoint), seqBytes(seq))
}

// GetInscriptionEntryBySequence returns the inscription entry at seq.
func GetInscriptionEntryBySequence(r kv.Reader, seq uint64) (*InscriptionEntry, error) {
	entry, ok, err := getJSON[InscriptionEntry](r, inscriptionEntryKey(seq))
	if err != nil || !ok {
		return nil, err
	}
	return &entry, nil
}

// GetSequenceByInscriptionID resolves an inscription id to its sequence
// number.
func GetSequenceByInscriptionID(r kv.Reader, inscriptionID string) (uint64, bool, error) {
	v, err := r.GetExact(inscriptionIDToSeqKey(inscriptionID))
	if err == kv.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return seqFromBytes(v), true, nil
}

// GetSequenceBySatpoint resolves a satpoint to the sequence number of the
// inscription currently located there.
func GetSequenceBySatpoint(r kv.Reader, satpoint string) (uint64, bool, error) {
	v, err := r.GetExact(satpointToSeqKey(satpoint))
	if err == kv.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return seqFromBytes(v), true, nil
}

// PutDepositEntry records one accumulated deposit at height, keyed
// alongside it by the inscription that produced it.
func PutDepositEntry(w kv.Writer, height uint32, entry DepositEntry) error {
	return putJSON(w, depositEntryKey(height, entry.InscriptionID), entry)
}

// ListDepositEntriesAtHeight returns every deposit recorded at height.
func ListDepositEntriesAtHeight(r kv.Reader, height uint32) ([]DepositEntry, error) {
	lower, upper := depositEntryScanBoundsAtHeight(height)
	return scanJSON[DepositEntry](r, lower, upper)
}

// ListDeployRecords returns every deployed rollup's genesis record. The
// execution engine's L2 Withdraw handler uses this to try each deployed
// rollup's latest withdrawal root in turn, since a withdrawal inscription
// does not itself carry an l2id (see SPEC_FULL.md 4.H).
func ListDeployRecords(r kv.Reader) ([]DeployRecord, error) {
	lower, upper := deployRecordScanBounds()
	return scanJSON[DeployRecord](r, lower, upper)
}
