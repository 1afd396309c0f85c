// Package decimal implements the fixed-format arbitrary-precision decimal
// every BRC-20/BRC-21 amount field is parsed as: no sign, no exponent, no
// leading/trailing dot, and at most 18 fractional digits. There is no
// bigdecimal-style library anywhere in this corpus (the teacher and every
// other example repo's go.mod were checked), so this type is built directly
// on math/big.Int, the justified standard-library choice recorded in
// DESIGN.md.
//
// Grounded on l2o_ord/src/decimal.rs (the exact FromStr validation rules
// and checked_add/checked_sub/checked_powu/checked_to_u128 semantics).
package decimal

import (
	"errors"
	"math/big"
	"strings"
)

// MaxScale is MAX_DECIMAL_WIDTH: the maximum number of fractional digits a
// decimal literal may carry.
const MaxScale = 18

// ErrInvalidNum reports a decimal literal that fails the protocol's strict
// parsing rules (sign, exponent, stray whitespace, multiple dots, leading
// or trailing dot, or more than MaxScale fractional digits).
var ErrInvalidNum = errors.New("decimal: invalid number literal")

// ErrOverflow reports an arithmetic operation whose result cannot be
// represented (subtraction going negative, conversion out of range).
var ErrOverflow = errors.New("decimal: overflow")

// ErrNotInteger reports a conversion to an integer type attempted on a
// value with a nonzero fractional part.
var ErrNotInteger = errors.New("decimal: value is not an integer")

// Decimal is unscaled * 10^-scale, unscaled always non-negative (the
// protocol has no signed amounts) and scale in [0, MaxScale].
type Decimal struct {
	unscaled *big.Int
	scale    int
}

// Zero is the additive identity.
var Zero = Decimal{unscaled: big.NewInt(0), scale: 0}

// FromUint64 builds an integer-valued Decimal.
func FromUint64(v uint64) Decimal {
	return Decimal{unscaled: new(big.Int).SetUint64(v), scale: 0}
}

// FromBigInt builds an integer-valued Decimal from an arbitrary-precision
// non-negative integer.
func FromBigInt(v *big.Int) Decimal {
	return Decimal{unscaled: new(big.Int).Set(v), scale: 0}
}

var ten = big.NewInt(10)

// Parse validates and parses s per the protocol's strict literal grammar:
// ASCII digits and at most one '.', no sign, no exponent marker, no
// surrounding or embedded whitespace, not starting or ending with '.', and
// at most MaxScale fractional digits. Leading zeros in the integer part and
// trailing zeros in the fractional part are normalized away (matching
// BigDecimal's own normalization), except that "0" and "0.0"-shaped inputs
// normalize to scale 0.
func Parse(s string) (Decimal, error) {
	if s == "" {
		return Decimal{}, ErrInvalidNum
	}
	for _, r := range s {
		switch r {
		case 'e', 'E', '+', '-':
			return Decimal{}, ErrInvalidNum
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return Decimal{}, ErrInvalidNum
		}
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return Decimal{}, ErrInvalidNum
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Decimal{}, ErrInvalidNum
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if !isAllDigits(intPart) || !isAllDigits(fracPart) {
		return Decimal{}, ErrInvalidNum
	}
	if len(fracPart) > MaxScale {
		return Decimal{}, ErrInvalidNum
	}

	digits := intPart + fracPart
	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, ErrInvalidNum
	}
	scale := len(fracPart)

	if unscaled.Sign() == 0 {
		return Decimal{unscaled: big.NewInt(0), scale: 0}, nil
	}
	for scale > 0 {
		q, r := new(big.Int).QuoRem(unscaled, ten, new(big.Int))
		if r.Sign() != 0 {
			break
		}
		unscaled = q
		scale--
	}
	return Decimal{unscaled: unscaled, scale: scale}, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Scale returns the number of fractional digits in the normalized value.
func (d Decimal) Scale() int { return d.scale }

// Sign returns -1, 0, or 1; decimals in this protocol are never negative,
// so this is always 0 or 1.
func (d Decimal) Sign() int { return d.unscaled.Sign() }

// String renders the canonical decimal form.
func (d Decimal) String() string {
	digits := d.unscaled.String()
	if d.scale == 0 {
		return digits
	}
	for len(digits) <= d.scale {
		digits = "0" + digits
	}
	intLen := len(digits) - d.scale
	return digits[:intLen] + "." + digits[intLen:]
}

func rescale(u *big.Int, from, to int) *big.Int {
	if to == from {
		return new(big.Int).Set(u)
	}
	factor := new(big.Int).Exp(ten, big.NewInt(int64(to-from)), nil)
	return new(big.Int).Mul(u, factor)
}

// CheckedAdd returns d + other, scaled to the larger of the two operands' scales.
func (d Decimal) CheckedAdd(other Decimal) (Decimal, error) {
	scale := d.scale
	if other.scale > scale {
		scale = other.scale
	}
	a := rescale(d.unscaled, d.scale, scale)
	b := rescale(other.unscaled, other.scale, scale)
	return normalize(new(big.Int).Add(a, b), scale), nil
}

// CheckedSub returns d - other, rejecting a negative result (amounts in
// this protocol never go negative).
func (d Decimal) CheckedSub(other Decimal) (Decimal, error) {
	scale := d.scale
	if other.scale > scale {
		scale = other.scale
	}
	a := rescale(d.unscaled, d.scale, scale)
	b := rescale(other.unscaled, other.scale, scale)
	if a.Cmp(b) < 0 {
		return Decimal{}, ErrOverflow
	}
	return normalize(new(big.Int).Sub(a, b), scale), nil
}

// CheckedMul returns d * other; the result's scale is the sum of the
// operands' scales with trailing zero digits stripped. The scale is not
// capped at MaxScale.
func (d Decimal) CheckedMul(other Decimal) (Decimal, error) {
	scale := d.scale + other.scale
	product := new(big.Int).Mul(d.unscaled, other.unscaled)
	return normalize(product, scale), nil
}

// CheckedPowU raises d to an unsigned integer power by repeated
// multiplication, matching checked_powu's exp=0/1 special cases.
func (d Decimal) CheckedPowU(exp uint64) (Decimal, error) {
	switch exp {
	case 0:
		return FromUint64(1), nil
	case 1:
		return d, nil
	default:
		result := d
		var err error
		for i := uint64(1); i < exp; i++ {
			result, err = result.CheckedMul(d)
			if err != nil {
				return Decimal{}, err
			}
		}
		return result, nil
	}
}

// normalize strips trailing zero digits down to the represented value's
// natural scale, same as Parse does after combining digits.
func normalize(unscaled *big.Int, scale int) Decimal {
	if unscaled.Sign() == 0 {
		return Decimal{unscaled: big.NewInt(0), scale: 0}
	}
	for scale > 0 {
		q, r := new(big.Int).QuoRem(unscaled, ten, new(big.Int))
		if r.Sign() != 0 {
			break
		}
		unscaled = q
		scale--
	}
	return Decimal{unscaled: unscaled, scale: scale}
}

// CheckedToUint8 converts an integer-valued Decimal to uint8.
func (d Decimal) CheckedToUint8() (uint8, error) {
	if d.scale != 0 {
		return 0, ErrNotInteger
	}
	if !d.unscaled.IsUint64() || d.unscaled.Uint64() > 255 {
		return 0, ErrOverflow
	}
	return uint8(d.unscaled.Uint64()), nil
}

// maxUint128 = 2^128 - 1, the protocol's amount ceiling.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// CheckedToUint128 converts an integer-valued Decimal to a *big.Int in
// [0, 2^128-1], the representation used everywhere else in this indexer
// for token amounts (Go has no native u128).
func (d Decimal) CheckedToUint128() (*big.Int, error) {
	if d.scale != 0 {
		return nil, ErrNotInteger
	}
	if d.unscaled.Sign() < 0 || d.unscaled.Cmp(maxUint128) > 0 {
		return nil, ErrOverflow
	}
	return new(big.Int).Set(d.unscaled), nil
}

// Cmp compares d and other numerically regardless of differing scales.
func (d Decimal) Cmp(other Decimal) int {
	scale := d.scale
	if other.scale > scale {
		scale = other.scale
	}
	a := rescale(d.unscaled, d.scale, scale)
	b := rescale(other.unscaled, other.scale, scale)
	return a.Cmp(b)
}

// IsZero reports whether d is the zero value.
func (d Decimal) IsZero() bool { return d.unscaled.Sign() == 0 }

// MarshalJSON renders the decimal as a JSON string, matching Decimal's
// Serialize impl (stringified, not a bare JSON number).
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses a JSON string into a Decimal via Parse.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return ErrInvalidNum
	}
	parsed, err := Parse(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
