package amount

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// FromDecimal scales a human readable decimal ("0.68") into fixed point.
// Digits beyond the unit's precision are truncated.
func FromDecimal(d decimal.Decimal, u Unit) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative value %s", ErrInvalidAmount, d.String())
	}
	scaled := d.Shift(int32(u.Decimals())).Truncate(0)
	return Parse(scaled.String())
}

// FromString parses a human readable decimal string and scales it.
func FromString(s string, u Unit) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return FromDecimal(d, u)
}

// MustFromString is FromString for constants and fixtures; it panics on error.
func MustFromString(s string, u Unit) *uint256.Int {
	v, err := FromString(s, u)
	if err != nil {
		panic(err)
	}
	return v
}

// ToDecimal converts a scaled amount back to a human readable decimal.
func ToDecimal(v *uint256.Int, u Unit) decimal.Decimal {
	d, err := decimal.NewFromString(String(v))
	if err != nil {
		return decimal.Zero
	}
	return d.Shift(-int32(u.Decimals()))
}
