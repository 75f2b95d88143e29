// Package amount implements the fixed-point integer arithmetic used for order
// sizes and prices. Every value is an unsigned integer scaled by a Unit
// (10^decimals); nothing in here ever goes through floating point.
package amount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// ErrInvalidAmount is returned for strings that are not a non-negative
// decimal integer within MaxAmount.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxAmount bounds every order amount and the unit itself. Keeping operands at
// or below 2^128-1 means any product of two of them fits in 256 bits.
var MaxAmount = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// Unit is the fixed-point scaling factor U. A value v represents v/U.
type Unit struct {
	decimals uint8
	scale    *uint256.Int
}

// DefaultUnit is 10^18, the wei-per-ether scaling used by ERC-20 style tokens.
func DefaultUnit() Unit {
	return Unit{decimals: 18, scale: uint256.NewInt(params.Ether)}
}

// NewUnit returns U = 10^decimals. decimals above 38 would exceed MaxAmount.
func NewUnit(decimals uint8) (Unit, error) {
	if decimals > 38 {
		return Unit{}, fmt.Errorf("unit decimals %d out of range (max 38)", decimals)
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	return Unit{decimals: decimals, scale: scale}, nil
}

// Decimals returns the number of fractional digits the unit represents.
func (u Unit) Decimals() uint8 {
	if u.scale == nil {
		return DefaultUnit().decimals
	}
	return u.decimals
}

// Scale returns a copy of U.
func (u Unit) Scale() *uint256.Int {
	if u.scale == nil {
		return DefaultUnit().Scale()
	}
	return new(uint256.Int).Set(u.scale)
}

// Zero returns a fresh zero value.
func Zero() *uint256.Int { return new(uint256.Int) }

// Parse reads a base-10 integer string (the wire representation of a scaled
// amount). Empty strings parse as zero, matching an unset "filled" field.
func Parse(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero(), nil
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	if v.Gt(MaxAmount) {
		return nil, fmt.Errorf("%w: %q exceeds maximum", ErrInvalidAmount, s)
	}
	return v, nil
}

// Convert rescales src from one axis of an order to the other:
// src * totalTo / totalFrom, truncated toward zero. It returns zero when any
// operand is zero and never panics.
//
// The intermediate product is computed in 512 bits, so the result is exact
// as long as it fits in 256 bits; with operands bounded by MaxAmount it
// always does.
func Convert(src, totalFrom, totalTo *uint256.Int) *uint256.Int {
	if isZero(src) || isZero(totalFrom) || isZero(totalTo) {
		return Zero()
	}
	z, _ := new(uint256.Int).MulDivOverflow(src, totalTo, totalFrom)
	return z
}

// Min returns a copy of the smaller of a and b.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

// PercentOf returns pct% of v, truncated.
func PercentOf(v *uint256.Int, pct uint64) *uint256.Int {
	if isZero(v) || pct == 0 {
		return Zero()
	}
	z, _ := new(uint256.Int).MulDivOverflow(v, uint256.NewInt(pct), uint256.NewInt(100))
	return z
}

// Clone copies v, treating nil as zero.
func Clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return Zero()
	}
	return new(uint256.Int).Set(v)
}

// String renders v as a decimal integer, treating nil as zero.
func String(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}
