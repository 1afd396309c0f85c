package state

import "math/big"

func bigZero() *big.Int { return new(big.Int) }

// BigZero returns a fresh zero-valued big.Int, exported for callers
// (internal/engine) constructing rows outside this package.
func BigZero() *big.Int { return new(big.Int) }
