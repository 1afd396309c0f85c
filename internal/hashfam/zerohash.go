package hashfam

import "sync"

// cacheDepth matches ZERO_HASH_CACHE_SIZE in l2o_crypto/src/hash/merkle/traits.rs.
const cacheDepth = 128

type zeroHashCache struct {
	once   sync.Once
	plain  [cacheDepth]Hash256
	marked [cacheDepth]Hash256
}

var caches sync.Map // Family -> *zeroHashCache

func cacheFor(h Hasher) *zeroHashCache {
	if c, ok := caches.Load(h.Family()); ok {
		return c.(*zeroHashCache)
	}
	c, _ := caches.LoadOrStore(h.Family(), &zeroHashCache{})
	return c.(*zeroHashCache)
}

// build computes both the 128-deep plain zero-hash chain (level 0 is the
// all-zero leaf value, level n is two_to_one of the level n-1 pair) and the
// marked-leaf variant (level 0 plain, level 1 is two_to_one_marked_leaf of
// the level-0 pair, level n>1 continues with the unmarked combine) — mirrors
// compute_zero_hashes / compute_zero_hashes_leaf_hasher in
// l2o_crypto/examples/generate_zero_hashes.rs.
func (c *zeroHashCache) build(h Hasher) {
	c.once.Do(func() {
		c.plain[0] = Zero
		for i := 1; i < cacheDepth; i++ {
			c.plain[i] = h.TwoToOne(c.plain[i-1], c.plain[i-1])
		}

		c.marked[0] = Zero
		if cacheDepth > 1 {
			c.marked[1] = h.TwoToOneMarkedLeaf(c.marked[0], c.marked[0])
		}
		for i := 2; i < cacheDepth; i++ {
			c.marked[i] = h.TwoToOne(c.marked[i-1], c.marked[i-1])
		}
	})
}

// cachedZeroHash and cachedZeroHashMarked implement
// MerkleZeroHasherWithCache::get_zero_hash: serve directly from the 128-deep
// cache, or iterate two_to_one(x,x) beyond it for a reverseLevel that large.
func cachedZeroHash(h Hasher, reverseLevel int) Hash256 {
	c := cacheFor(h)
	c.build(h)
	if reverseLevel < cacheDepth {
		return c.plain[reverseLevel]
	}
	current := c.plain[cacheDepth-1]
	for i := 0; i < reverseLevel-cacheDepth+1; i++ {
		current = h.TwoToOne(current, current)
	}
	return current
}

func cachedZeroHashMarked(h Hasher, reverseLevel int) Hash256 {
	c := cacheFor(h)
	c.build(h)
	if reverseLevel < cacheDepth {
		return c.marked[reverseLevel]
	}
	current := c.marked[cacheDepth-1]
	for i := 0; i < reverseLevel-cacheDepth+1; i++ {
		current = h.TwoToOne(current, current)
	}
	return current
}
