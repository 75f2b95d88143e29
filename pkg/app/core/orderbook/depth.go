// Package orderbook aggregates a book snapshot into price levels for display.
// It never feeds the matching engine, which works on individual orders.
package orderbook

import (
	"container/heap"

	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
)

type PriceLevel struct {
	Price  *uint256.Int // base currency per asset unit, scaled
	Size   *uint256.Int // unfilled size in the traded asset
	Orders int
}

// Depth is a book aggregated by price, best level first on each side.
type Depth struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// Aggregate groups resting orders by limit price. Fully filled orders are
// left out.
func Aggregate(book matching.OrderBook, u amount.Unit) Depth {
	bidHeap := &MaxPriceHeap{}
	askHeap := &MinPriceHeap{}
	return Depth{
		Bids: levels(book.Bids, u, bidHeap),
		Asks: levels(book.Asks, u, askHeap),
	}
}

func levels(orders []*matching.Order, u amount.Unit, h heap.Interface) []PriceLevel {
	byPrice := make(map[[32]byte]*PriceLevel)
	for _, o := range orders {
		if o == nil {
			continue
		}
		v := matching.VolumeOf(o, u)
		if !v.Filled.Lt(v.Amount) {
			continue
		}
		left := new(uint256.Int).Sub(v.Amount, v.Filled)
		key := v.Price.Bytes32()
		lvl, ok := byPrice[key]
		if !ok {
			lvl = &PriceLevel{Price: v.Price, Size: amount.Zero()}
			byPrice[key] = lvl
			heap.Push(h, v.Price)
		}
		lvl.Size.Add(lvl.Size, left)
		lvl.Orders++
	}

	out := make([]PriceLevel, 0, len(byPrice))
	for h.Len() > 0 {
		p := heap.Pop(h).(*uint256.Int)
		out = append(out, *byPrice[p.Bytes32()])
	}
	return out
}

// Limit keeps at most n levels per side; n <= 0 keeps everything.
func (d Depth) Limit(n int) Depth {
	if n <= 0 {
		return d
	}
	if len(d.Bids) > n {
		d.Bids = d.Bids[:n]
	}
	if len(d.Asks) > n {
		d.Asks = d.Asks[:n]
	}
	return d
}

func (d Depth) BestBid() (*uint256.Int, bool) {
	if len(d.Bids) == 0 {
		return nil, false
	}
	return amount.Clone(d.Bids[0].Price), true
}

func (d Depth) BestAsk() (*uint256.Int, bool) {
	if len(d.Asks) == 0 {
		return nil, false
	}
	return amount.Clone(d.Asks[0].Price), true
}

// MidPrice returns the truncated midpoint of the best bid and ask. It is
// false unless both sides have a level.
func (d Depth) MidPrice() (*uint256.Int, bool) {
	bid, okBid := d.BestBid()
	ask, okAsk := d.BestAsk()
	if !okBid || !okAsk {
		return nil, false
	}
	sum := new(uint256.Int).Add(bid, ask)
	return sum.Rsh(sum, 1), true
}
