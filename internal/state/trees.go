package state

import (
	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/merkle"
)

// Merkle NodeKey table-type tags. Chosen well outside the 0x01-0x0F range
// used by the flat-keyed tables in keys.go (NodeKey's encoding starts with
// a big-endian uint16 table_type, so its high byte never collides with a
// single flat-table prefix byte) so both table kinds can share one
// internal/kv keyspace without a dedicated store per table.
const (
	tableTypeStateRoot  uint16 = 0xF001
	tableTypeSuperchain uint16 = 0xF002
)

// stateRootTreeHeight bounds the number of bitcoin blocks a single rollup's
// state-root history tree can index (2^32), far beyond any real chain
// height.
const stateRootTreeHeight = 32

// StateRootTree returns the per-(l2id, hash family) state-root history
// tree. Leaves are themselves external state roots (commitments produced by
// the L2 side), so MarkLeaves is set per the domain-separation convention
// documented on merkle.Tree.
func StateRootTree(family hashfam.Family) merkle.Tree {
	return merkle.Tree{Height: stateRootTreeHeight, MarkLeaves: true, Hasher: hashfam.For(family)}
}

// SuperchainTree is the single cross-rollup superchain-root history tree,
// keyed purely by bitcoin block number. Superchain roots are themselves a
// combination of every rollup's per-block root, so it shares the
// MarkLeaves convention; SHA-256 is used as the tree's own combine
// function regardless of which hash families the contributing rollups use
// (see DESIGN.md).
var SuperchainTree = merkle.Tree{Height: stateRootTreeHeight, MarkLeaves: true, Hasher: hashfam.For(hashfam.SHA256)}

func stateRootNodeKey(family hashfam.Family, l2id uint64, bitcoinBlockNumber uint64) merkle.NodeKey {
	return merkle.NodeKey{
		TableType:    tableTypeStateRoot,
		TreeID:       uint8(family),
		PrimaryID:    l2id,
		Level:        stateRootTreeHeight,
		Index:        bitcoinBlockNumber,
		CheckpointID: bitcoinBlockNumber,
	}
}

func superchainNodeKey(bitcoinBlockNumber uint64) merkle.NodeKey {
	return merkle.NodeKey{
		TableType:    tableTypeSuperchain,
		Level:        stateRootTreeHeight,
		Index:        bitcoinBlockNumber,
		CheckpointID: bitcoinBlockNumber,
	}
}

// InsertStateRoot commits root as the (l2id, family) tree's leaf at
// bitcoinBlockNumber and returns the inclusion delta.
func InsertStateRoot(rw kv.WriteBatch, family hashfam.Family, l2id, bitcoinBlockNumber uint64, root hashfam.Hash256) (merkle.DeltaProof, error) {
	tr := StateRootTree(family)
	return tr.SetLeaf(rw, stateRootNodeKey(family, l2id, bitcoinBlockNumber), root)
}

// GetStateRootAtBlock returns the root committed at or before
// bitcoinBlockNumber for (l2id, family), falling back to the family's zero
// hash if nothing has been committed yet.
func GetStateRootAtBlock(r kv.Reader, family hashfam.Family, l2id, bitcoinBlockNumber uint64) (hashfam.Hash256, error) {
	tr := StateRootTree(family)
	return tr.GetNode(r, stateRootNodeKey(family, l2id, bitcoinBlockNumber))
}

// GetMerkleProofStateRootAtBlock returns an inclusion proof of the
// (l2id, family) tree's leaf at or before bitcoinBlockNumber.
func GetMerkleProofStateRootAtBlock(r kv.Reader, family hashfam.Family, l2id, bitcoinBlockNumber uint64) (merkle.Proof, error) {
	tr := StateRootTree(family)
	return tr.GetLeaf(r, stateRootNodeKey(family, l2id, bitcoinBlockNumber))
}

// InsertSuperchainRoot commits root as the superchain tree's leaf at
// bitcoinBlockNumber.
func InsertSuperchainRoot(rw kv.WriteBatch, bitcoinBlockNumber uint64, root hashfam.Hash256) (merkle.DeltaProof, error) {
	return SuperchainTree.SetLeaf(rw, superchainNodeKey(bitcoinBlockNumber), root)
}

// GetSuperchainStateRootAtBlock returns the superchain root at or before
// bitcoinBlockNumber.
func GetSuperchainStateRootAtBlock(r kv.Reader, bitcoinBlockNumber uint64) (hashfam.Hash256, error) {
	return SuperchainTree.GetNode(r, superchainNodeKey(bitcoinBlockNumber))
}

// GetMerkleProofSuperchainStateRootAtBlock returns an inclusion proof of the
// superchain tree's leaf at or before bitcoinBlockNumber.
func GetMerkleProofSuperchainStateRootAtBlock(r kv.Reader, bitcoinBlockNumber uint64) (merkle.Proof, error) {
	return SuperchainTree.GetLeaf(r, superchainNodeKey(bitcoinBlockNumber))
}
