package matching

import (
	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

// Volume is an order seen from the traded asset's point of view, whichever
// side it is on.
type Volume struct {
	Price  *uint256.Int // base currency per asset unit, scaled by U
	Amount *uint256.Int // face size in the traded asset
	Filled *uint256.Int // executed size in the traded asset
	Total  *uint256.Int // face size in the base currency
}

// VolumeOf normalizes an order. Division truncates; zero amounts yield a zero
// price rather than a panic.
func VolumeOf(o *Order, u amount.Unit) Volume {
	give, take := amount.Clone(o.GiveAmount), amount.Clone(o.TakeAmount)
	filled := amount.Clone(o.Filled)

	if o.Side == Sell {
		return Volume{
			Price:  amount.Convert(take, give, u.Scale()),
			Amount: give,
			Filled: filled,
			Total:  take,
		}
	}
	return Volume{
		Price:  amount.Convert(give, take, u.Scale()),
		Amount: take,
		Filled: amount.Convert(filled, give, take),
		Total:  give,
	}
}
