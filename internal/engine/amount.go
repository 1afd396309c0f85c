package engine

import (
	"math/big"

	"github.com/rawblock/l2ordinals-indexer/internal/decimal"
	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
)

// normalizeAmount parses literal as a Decimal scaled to at most decimals
// fractional digits, rejects zero, and returns it in base units
// (literal * 10^decimals). Shared by mint/inscribe-transfer/l2deposit/
// l2withdraw, which all reject a zero or over-scale amount the same way;
// transfer moves the amount already recorded in its transferable log.
func normalizeAmount(literal string, decimals uint8) (*big.Int, error) {
	amountDec, err := decimal.Parse(literal)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindZeroAmount, "amt %q: %v", literal, err)
	}
	if amountDec.IsZero() {
		return nil, errkind.NewProtocol(errkind.KindZeroAmount, "amt is zero")
	}
	if amountDec.Scale() > int(decimals) {
		return nil, errkind.NewProtocol(errkind.KindAmountOverflow, "amt %q has more than %d fractional digits", literal, decimals)
	}
	base, err := decimal.FromUint64(10).CheckedPowU(uint64(decimals))
	if err != nil {
		return nil, errkind.NewLedger("pow", err)
	}
	normalized, err := amountDec.CheckedMul(base)
	if err != nil {
		return nil, errkind.NewLedger("normalize amount", err)
	}
	amount, err := normalized.CheckedToUint128()
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindAmountOverflow, "amt %q out of range: %v", literal, err)
	}
	return amount, nil
}
