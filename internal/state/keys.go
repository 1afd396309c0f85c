package state

import (
	"bytes"
	"encoding/binary"
)

// Table prefixes. Every physical table is a slice of the one ordered
// keyspace internal/kv exposes, distinguished by a leading prefix byte (and,
// for the two fungible-token protocols, a second protocol byte) — the Go
// analogue of redb's separate named tables in table.rs.
const (
	prefixBlockHeader        byte = 0x01
	prefixOutpointToTxOut    byte = 0x02
	prefixInscriptionIDToSeq byte = 0x03
	prefixInscriptionEntry   byte = 0x04
	prefixSatpointToSeq      byte = 0x05
	prefixBalance            byte = 0x06
	prefixToken              byte = 0x07
	prefixReceipts           byte = 0x08
	prefixTransferable       byte = 0x09
	prefixTransferableIndex  byte = 0x0A
	prefixDeployRecord       byte = 0x0B
	prefixLatestBlock        byte = 0x0C
	prefixDepositEntry       byte = 0x0D
	prefixTipHeight          byte = 0x0E
	prefixSequenceCounter    byte = 0x0F
)

func tipHeightKey() []byte { return []byte{prefixTipHeight} }

func sequenceCounterKey() []byte { return []byte{prefixSequenceCounter} }

func protoByte(p Protocol) byte { return byte(p) }

func heightKey(height uint32) []byte {
	buf := make([]byte, 5)
	buf[0] = prefixBlockHeader
	binary.BigEndian.PutUint32(buf[1:], height)
	return buf
}

func outpointKey(txid [32]byte, vout uint32) []byte {
	buf := make([]byte, 1+32+4)
	buf[0] = prefixOutpointToTxOut
	copy(buf[1:33], txid[:])
	binary.BigEndian.PutUint32(buf[33:], vout)
	return buf
}

func inscriptionIDToSeqKey(inscriptionID string) []byte {
	return append([]byte{prefixInscriptionIDToSeq}, []byte(inscriptionID)...)
}

func inscriptionEntryKey(seq uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = prefixInscriptionEntry
	binary.BigEndian.PutUint64(buf[1:], seq)
	return buf
}

func satpointToSeqKey(satpoint string) []byte {
	return append([]byte{prefixSatpointToSeq}, []byte(satpoint)...)
}

func balanceKey(proto Protocol, addr AddressKey, tickHex string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(prefixBalance)
	buf.WriteByte(protoByte(proto))
	buf.WriteString(addr.String())
	buf.WriteByte('_')
	buf.WriteString(tickHex)
	return buf.Bytes()
}

func balanceScanBounds(proto Protocol, addr AddressKey) (lower, upper []byte) {
	prefix := append([]byte{prefixBalance, protoByte(proto)}, []byte(addr.String()+"_")...)
	return prefix, prefixUpperBound(prefix)
}

func tokenKey(proto Protocol, tickHex string) []byte {
	return append([]byte{prefixToken, protoByte(proto)}, []byte(tickHex)...)
}

func tokenScanBounds(proto Protocol) (lower, upper []byte) {
	prefix := []byte{prefixToken, protoByte(proto)}
	return prefix, prefixUpperBound(prefix)
}

func receiptsKey(proto Protocol, txid [32]byte) []byte {
	buf := make([]byte, 2+32)
	buf[0] = prefixReceipts
	buf[1] = protoByte(proto)
	copy(buf[2:], txid[:])
	return buf
}

func transferableKey(proto Protocol, satpoint string) []byte {
	return append([]byte{prefixTransferable, protoByte(proto)}, []byte(satpoint)...)
}

// transferableIndexKey encodes the (address,tick) -> satpoint multimap entry
// as a single-row key so a range scan over the address(+tick) prefix
// recovers every member, matching
// BRC20_ADDRESS_TICKER_TO_TRANSFERABLE_ASSETS's range-scan usage in
// table.rs without needing a dedicated multimap primitive.
func transferableIndexKey(proto Protocol, addr AddressKey, tickHex, satpoint string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(prefixTransferableIndex)
	buf.WriteByte(protoByte(proto))
	buf.WriteString(addr.String())
	buf.WriteByte('_')
	buf.WriteString(tickHex)
	buf.WriteByte('_')
	buf.WriteString(satpoint)
	return buf.Bytes()
}

func transferableIndexScanBounds(proto Protocol, addr AddressKey, tickHex string) (lower, upper []byte) {
	prefix := []byte{prefixTransferableIndex, protoByte(proto)}
	prefix = append(prefix, []byte(addr.String()+"_"+tickHex)...)
	return prefix, prefixUpperBound(prefix)
}

func transferableAddressScanBounds(proto Protocol, addr AddressKey) (lower, upper []byte) {
	prefix := []byte{prefixTransferableIndex, protoByte(proto)}
	prefix = append(prefix, []byte(addr.String()+"_")...)
	return prefix, prefixUpperBound(prefix)
}

func deployRecordKey(l2id uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = prefixDeployRecord
	binary.BigEndian.PutUint64(buf[1:], l2id)
	return buf
}

func deployRecordScanBounds() (lower, upper []byte) {
	prefix := []byte{prefixDeployRecord}
	return prefix, prefixUpperBound(prefix)
}

// depositEntryKey is keyed by (bitcoin height, inscription id) so every
// deposit accumulated at a height can be scanned in order and an
// inscription can only ever post one deposit entry.
func depositEntryKey(height uint32, inscriptionID string) []byte {
	buf := make([]byte, 5)
	buf[0] = prefixDepositEntry
	binary.BigEndian.PutUint32(buf[1:], height)
	return append(buf, []byte(inscriptionID)...)
}

func depositEntryScanBoundsAtHeight(height uint32) (lower, upper []byte) {
	prefix := make([]byte, 5)
	prefix[0] = prefixDepositEntry
	binary.BigEndian.PutUint32(prefix[1:], height)
	return prefix, prefixUpperBound(prefix)
}

func latestBlockKey(l2id uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = prefixLatestBlock
	binary.BigEndian.PutUint64(buf[1:], l2id)
	return buf
}

// prefixUpperBound returns the smallest key strictly greater than every key
// sharing prefix, the exclusive upper bound internal/kv.Scan wants.
func prefixUpperBound(prefix []byte) []byte {
	out := bytes.Clone(prefix)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	// prefix is all 0xFF: no finite upper bound short of the keyspace max.
	return append(out, 0xFF)
}
