package merkle

import (
	"math"

	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
)

// checkpointFuzzyBytes is the byte width of NodeKey.CheckpointID, the
// trailing field kv.Reader.GetLeq zeroes out to find "the latest write at or
// before checkpoint C" (CHECKPOINT_SIZE in model.rs).
const checkpointFuzzyBytes = 8

// Tree is one versioned, checkpointed Merkle tree addressed by NodeKey,
// read and written through internal/kv. Height is fixed per tree (the
// number of levels from the leaves up to the root); MarkLeaves selects
// whether level-0 nodes combine with the hasher's marked-leaf domain
// separator (used for trees whose leaves are themselves other Merkle
// roots, to prevent a sub-root being mistaken for a leaf value elsewhere).
type Tree struct {
	Height     int
	MarkLeaves bool
	Hasher     hashfam.Hasher
}

func (t Tree) zeroHash(level int) hashfam.Hash256 {
	reverseLevel := t.Height - level
	if t.MarkLeaves {
		return t.Hasher.ZeroHashMarked(reverseLevel)
	}
	return t.Hasher.ZeroHash(reverseLevel)
}

func (t Tree) combine(level int, left, right hashfam.Hash256) hashfam.Hash256 {
	if t.MarkLeaves && level == int(t.Height)-1 {
		return t.Hasher.TwoToOneMarkedLeaf(left, right)
	}
	return t.Hasher.TwoToOne(left, right)
}

// readKey is the GetLeq query for the latest write at or before key's
// checkpoint: GetLeq's upper bound is exclusive, so the query is made one
// checkpoint higher.
func readKey(key NodeKey) []byte {
	if key.CheckpointID < math.MaxUint64 {
		key.CheckpointID++
	}
	return key.Bytes()
}

// GetNode reads one node, falling back to the zero hash for this level if
// nothing has ever been written at or before key's checkpoint.
func (t Tree) GetNode(r kv.Reader, key NodeKey) (hashfam.Hash256, error) {
	v, ok, err := r.GetLeq(readKey(key), checkpointFuzzyBytes)
	if err != nil {
		return hashfam.Hash256{}, err
	}
	if !ok {
		return t.zeroHash(int(key.Level)), nil
	}
	var out hashfam.Hash256
	copy(out[:], v)
	return out, nil
}

// GetNodes batches GetNode over many keys, preserving order.
func (t Tree) GetNodes(r kv.Reader, keys []NodeKey) ([]hashfam.Hash256, error) {
	raw := make([][]byte, len(keys))
	for i, k := range keys {
		raw[i] = readKey(k)
	}
	pairs, oks, err := r.GetManyLeq(raw, checkpointFuzzyBytes)
	if err != nil {
		return nil, err
	}
	out := make([]hashfam.Hash256, len(keys))
	for i, ok := range oks {
		if !ok {
			out[i] = t.zeroHash(int(keys[i].Level))
			continue
		}
		copy(out[i][:], pairs[i].Value)
	}
	return out, nil
}

func (t Tree) setNode(w kv.Writer, key NodeKey, value hashfam.Hash256) error {
	return w.Set(key.Bytes(), value[:])
}

// GetLeaf returns an inclusion proof for key's current value (as of key's
// checkpoint), grounded on KVQMerkleTreeModel::get_leaf: fetch the leaf, its
// full sibling path, and the tree root in one batched read.
func (t Tree) GetLeaf(r kv.Reader, key NodeKey) (Proof, error) {
	keys := make([]NodeKey, 0, int(key.Level)+2)
	keys = append(keys, key)
	keys = append(keys, key.Siblings()...)
	keys = append(keys, key.Root())

	nodes, err := t.GetNodes(r, keys)
	if err != nil {
		return Proof{}, err
	}
	rootIdx := len(nodes) - 1
	return Proof{
		Root:     nodes[rootIdx],
		Value:    nodes[0],
		Index:    key.Index,
		Siblings: append([]hashfam.Hash256(nil), nodes[1:rootIdx]...),
	}, nil
}

// SetLeaf writes a new leaf value, recomputing and persisting every
// ancestor on the path to the root, and returns a delta proof binding the
// old and new roots to the change. Grounded on
// KVQMerkleTreeModel::set_leaf.
func (t Tree) SetLeaf(rw kv.WriteBatch, key NodeKey, value hashfam.Hash256) (DeltaProof, error) {
	oldProof, err := t.GetLeaf(rw, key)
	if err != nil {
		return DeltaProof{}, err
	}

	current := value
	currentKey := key
	for level := int(key.Level); level > 0; level-- {
		if err := t.setNode(rw, currentKey, current); err != nil {
			return DeltaProof{}, err
		}
		sibling := oldProof.Siblings[int(key.Level)-level]
		if currentKey.Index&1 == 0 {
			current = t.combine(level-1, current, sibling)
		} else {
			current = t.combine(level-1, sibling, current)
		}
		currentKey = currentKey.Parent()
	}
	if err := t.setNode(rw, currentKey, current); err != nil {
		return DeltaProof{}, err
	}

	return DeltaProof{
		OldRoot:  oldProof.Root,
		OldValue: oldProof.Value,
		NewRoot:  current,
		NewValue: value,
		Index:    key.Index,
		Siblings: oldProof.Siblings,
	}, nil
}

// Root returns the current root hash of the tree identified by a root-level
// NodeKey (level 0, index 0) at the given checkpoint.
func (t Tree) Root(r kv.Reader, rootKey NodeKey) (hashfam.Hash256, error) {
	return t.GetNode(r, rootKey.Root())
}
