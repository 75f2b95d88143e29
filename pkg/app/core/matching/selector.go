package matching

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

type candidate struct {
	order *Order
	price *uint256.Int
}

// selectCandidates keeps the resting orders that cross the taker's limit and
// orders them by price priority, then by age. Orders equal on both keep their
// book order.
func selectCandidates(dir direction, limit *uint256.Int, book []*Order, u amount.Unit) []candidate {
	out := make([]candidate, 0, len(book))
	for _, o := range book {
		p := VolumeOf(o, u).Price
		if dir.crosses(p, limit) {
			out = append(out, candidate{order: o, price: p})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.price.Eq(b.price) {
			return dir.better(a.price, b.price)
		}
		return a.order.CreatedAt.Before(b.order.CreatedAt)
	})
	return out
}
