package matching

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

// ErrInvalidOrder reports an order that violates the matching preconditions.
var ErrInvalidOrder = errors.New("invalid order")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}

// validateTaker checks the incoming order. Only the traded-asset axis has to
// be positive: a zero base-currency amount is a limit at price zero.
func validateTaker(o *Order, want Side) error {
	if o == nil {
		return invalid("nil order")
	}
	if o.Side != Buy && o.Side != Sell {
		return invalid("malformed side %d", o.Side)
	}
	if o.Side != want {
		return invalid("%s order cannot match against the %s book", o.Side, bookName(want))
	}
	if err := checkBounds(o); err != nil {
		return err
	}
	assetAxis := o.GiveAmount
	if o.Side == Buy {
		assetAxis = o.TakeAmount
	}
	if assetAxis == nil || assetAxis.IsZero() {
		return invalid("%s order must have a positive asset amount", o.Side)
	}
	return nil
}

// validateMaker checks a resting order. Resting orders must carry a positive
// give and take amount and cannot be overfilled.
func validateMaker(o *Order, want Side) error {
	if o == nil {
		return invalid("nil resting order")
	}
	if o.Side != want {
		return invalid("resting order %s has side %s, want %s", o.ID.Hex(), o.Side, want)
	}
	if err := checkBounds(o); err != nil {
		return err
	}
	if o.GiveAmount == nil || o.GiveAmount.IsZero() || o.TakeAmount == nil || o.TakeAmount.IsZero() {
		return invalid("resting order %s must have positive give and take amounts", o.ID.Hex())
	}
	return nil
}

func checkBounds(o *Order) error {
	for _, v := range []*uint256.Int{o.GiveAmount, o.TakeAmount, o.Filled} {
		if v != nil && v.Gt(amount.MaxAmount) {
			return invalid("order %s amount %s exceeds maximum", o.ID.Hex(), v.Dec())
		}
	}
	if o.Filled != nil && o.GiveAmount != nil && o.Filled.Gt(o.GiveAmount) {
		return invalid("order %s filled %s exceeds give amount %s", o.ID.Hex(), o.Filled.Dec(), o.GiveAmount.Dec())
	}
	if o.Filled != nil && o.GiveAmount == nil && !o.Filled.IsZero() {
		return invalid("order %s is filled without a give amount", o.ID.Hex())
	}
	return nil
}

func bookName(taker Side) string {
	if taker == Sell {
		return "bid"
	}
	return "ask"
}
