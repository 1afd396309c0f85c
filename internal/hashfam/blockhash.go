package hashfam

import "encoding/binary"

// BlockPayload is the canonical byte form of an L2O-A block's linkage
// fields, hashed to produce the l2_block_hash bound into BlockHasher.
// Field order and inclusion matches get_block_payload_bytes in
// l2o_crypto/src/hash/hash_functions/block_hasher.rs, the function each
// byte-oriented L2OBlockHasher::get_l2_block_hash impl in l2o_ord/src/
// hasher.rs calls directly (Blake3Hasher, Keccak256Hasher, Sha256Hasher all
// hash get_block_payload_bytes's output verbatim rather than serializing
// independently). BitcoinBlockNumber and BitcoinBlockHash are kept on this
// struct for callers that still need the linkage (e.g. the stored block
// record) but are deliberately excluded from Bytes(): block_hasher.rs
// leaves their extend_from_slice calls commented out, so they are reserved
// fields, not part of the hashed payload.
type BlockPayload struct {
	L2ID                     uint64
	L2BlockNumber            uint64
	BitcoinBlockNumber       uint64
	BitcoinBlockHash         [32]byte
	PublicKey                [32]byte
	StartStateRoot           Hash256
	EndStateRoot             Hash256
	DepositStateRoot         Hash256
	StartWithdrawalStateRoot Hash256
	EndWithdrawalStateRoot   Hash256
	SuperchainRoot           Hash256
}

// Bytes serializes the payload the way get_block_payload_bytes does:
// little-endian integers, then each 32-byte field verbatim, in
// field-declaration order, skipping BitcoinBlockNumber/BitcoinBlockHash
// (240 bytes total).
func (p BlockPayload) Bytes() []byte {
	buf := make([]byte, 0, 8+8+32*7)
	var scratch [8]byte

	binary.LittleEndian.PutUint64(scratch[:], p.L2ID)
	buf = append(buf, scratch[:]...)
	binary.LittleEndian.PutUint64(scratch[:], p.L2BlockNumber)
	buf = append(buf, scratch[:]...)

	buf = append(buf, p.PublicKey[:]...)
	buf = append(buf, p.StartStateRoot[:]...)
	buf = append(buf, p.EndStateRoot[:]...)
	buf = append(buf, p.DepositStateRoot[:]...)
	buf = append(buf, p.StartWithdrawalStateRoot[:]...)
	buf = append(buf, p.EndWithdrawalStateRoot[:]...)
	buf = append(buf, p.SuperchainRoot[:]...)
	return buf
}

// BlockHash hashes an L2O-A block's payload under the given family,
// implementing L2OBlockHasher::get_l2_block_hash per family. SHA-256,
// BLAKE3 and Keccak-256 all digest Bytes() directly; Poseidon instead
// absorbs the same fields as individual Goldilocks field elements (see
// poseidonBlockHash), since get_block_payload_goldilocks_hash_u32_mode
// never serializes l2id/l2_block_number to bytes at all.
func BlockHash(f Family, p BlockPayload) Hash256 {
	if f == PoseidonGoldilocks {
		return poseidonBlockHash(p)
	}
	return For(f).BlockHash(p.Bytes())
}
