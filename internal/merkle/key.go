// Package merkle implements the sparse, checkpointed, authenticated Merkle
// tree every state-root table in this indexer is built on: a fixed-height
// binary tree addressed by 32-byte keys stored in internal/kv, where
// "latest as of checkpoint C" reads ride kv.Reader.GetLeq instead of
// versioning every node explicitly.
//
// Grounded on l2o_crypto/src/hash/merkle/store/{key,model}.rs and
// hash/merkle/core.rs.
package merkle

import "encoding/binary"

// KeySize is the fixed 32-byte encoded size of a NodeKey.
const KeySize = 32

// NodeKey addresses one node in one versioned tree. Encoding matches
// KVQMerkleNodeKey::to_bytes: table_type(2) | tree_id(1) | primary_id(8) |
// secondary_id(4) | level(1) | index(8) | checkpoint_id(8) = 32 bytes,
// big-endian throughout, so byte order on the wire equals numeric order —
// the property kv.Reader.GetLeq's zero-suffix scan depends on.
type NodeKey struct {
	TableType    uint16
	TreeID       uint8
	PrimaryID    uint64
	SecondaryID  uint32
	Level        uint8
	Index        uint64
	CheckpointID uint64
}

// Bytes encodes the key per the 32-byte layout above.
func (k NodeKey) Bytes() []byte {
	buf := make([]byte, KeySize)
	binary.BigEndian.PutUint16(buf[0:2], k.TableType)
	buf[2] = k.TreeID
	binary.BigEndian.PutUint64(buf[3:11], k.PrimaryID)
	binary.BigEndian.PutUint32(buf[11:15], k.SecondaryID)
	buf[15] = k.Level
	binary.BigEndian.PutUint64(buf[16:24], k.Index)
	binary.BigEndian.PutUint64(buf[24:32], k.CheckpointID)
	return buf
}

// KeyFromBytes decodes a 32-byte NodeKey encoding.
func KeyFromBytes(b []byte) (NodeKey, error) {
	if len(b) != KeySize {
		return NodeKey{}, errKeySize
	}
	return NodeKey{
		TableType:    binary.BigEndian.Uint16(b[0:2]),
		TreeID:       b[2],
		PrimaryID:    binary.BigEndian.Uint64(b[3:11]),
		SecondaryID:  binary.BigEndian.Uint32(b[11:15]),
		Level:        b[15],
		Index:        binary.BigEndian.Uint64(b[16:24]),
		CheckpointID: binary.BigEndian.Uint64(b[24:32]),
	}, nil
}

// Sibling returns the key of this node's sibling (index with its low bit flipped).
func (k NodeKey) Sibling() NodeKey {
	k.Index ^= 1
	return k
}

// Siblings returns the sibling at every level from k up to (excluding) the root.
func (k NodeKey) Siblings() []NodeKey {
	out := make([]NodeKey, 0, k.Level)
	current := k
	for i := uint8(0); i < k.Level; i++ {
		out = append(out, current.Sibling())
		current = current.Parent()
	}
	return out
}

// Parent returns the key one level up; the root is its own parent.
func (k NodeKey) Parent() NodeKey {
	if k.Level == 0 {
		return k
	}
	k.Level--
	k.Index >>= 1
	return k
}

// Root returns the key of this tree's root node (level 0, index 0).
func (k NodeKey) Root() NodeKey {
	k.Level = 0
	k.Index = 0
	return k
}
