package matching

import (
	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

// direction captures everything that differs between a sell matching the bid
// book and a buy matching the ask book. The fill/unwind loop itself is shared.
//
// The taker's running remainder is always kept on its traded-asset axis:
// the give amount of a sell, the take amount of a buy.
type direction struct {
	taker Side
	maker Side

	// crosses reports whether a resting price is marketable against the
	// taker's limit price.
	crosses func(makerPrice, takerPrice *uint256.Int) bool
	// better reports whether price a has strictly higher priority than b.
	better func(a, b *uint256.Int) bool

	// assetTotal is the taker's full size on the traded-asset axis.
	assetTotal func(taker *Order) *uint256.Int
	// size prices one candidate at the maker's own ratio.
	size func(remaining *uint256.Int, maker *Order) fill
	// residual rebuilds the rest order from the taker's original ratio.
	residual func(taker *Order, remaining *uint256.Int) RestOrder
	// notional is the rest order amount held against the maker minimum.
	notional func(r RestOrder) *uint256.Int
}

// againstBids: the taker sells the asset, makers give base currency.
//
// The taker minimum is checked on the trade amount itself, which is the
// bid's give axis.
var againstBids = direction{
	taker: Sell,
	maker: Buy,
	crosses: func(makerPrice, takerPrice *uint256.Int) bool {
		return !makerPrice.Lt(takerPrice)
	},
	better: func(a, b *uint256.Int) bool { return a.Gt(b) },
	assetTotal: func(taker *Order) *uint256.Int {
		return amount.Clone(taker.GiveAmount)
	},
	size: func(remaining *uint256.Int, maker *Order) fill {
		left := makerRemaining(maker)
		want := amount.Convert(remaining, maker.TakeAmount, maker.GiveAmount)
		trade := amount.Min(want, left)
		return fill{
			makerID:  maker.ID,
			amount:   trade,
			consumed: amount.Convert(trade, maker.GiveAmount, maker.TakeAmount),
			checked:  trade,
		}
	},
	residual: func(taker *Order, remaining *uint256.Int) RestOrder {
		return RestOrder{
			Side:       taker.Side,
			GiveAsset:  taker.GiveAsset,
			GiveAmount: amount.Clone(remaining),
			TakeAsset:  taker.TakeAsset,
			TakeAmount: amount.Convert(remaining, taker.GiveAmount, taker.TakeAmount),
		}
	},
	notional: func(r RestOrder) *uint256.Int { return r.TakeAmount },
}

// againstAsks: the taker buys the asset, makers give the asset.
//
// The taker minimum is checked on the converted amount, the taker's own
// give axis.
var againstAsks = direction{
	taker: Buy,
	maker: Sell,
	crosses: func(makerPrice, takerPrice *uint256.Int) bool {
		return !makerPrice.Gt(takerPrice)
	},
	better: func(a, b *uint256.Int) bool { return a.Lt(b) },
	assetTotal: func(taker *Order) *uint256.Int {
		return amount.Clone(taker.TakeAmount)
	},
	size: func(remaining *uint256.Int, maker *Order) fill {
		trade := amount.Min(remaining, makerRemaining(maker))
		converted := amount.Convert(trade, maker.GiveAmount, maker.TakeAmount)
		return fill{
			makerID:  maker.ID,
			amount:   trade,
			consumed: amount.Clone(trade),
			checked:  converted,
		}
	},
	residual: func(taker *Order, remaining *uint256.Int) RestOrder {
		return RestOrder{
			Side:       taker.Side,
			GiveAsset:  taker.GiveAsset,
			GiveAmount: amount.Convert(remaining, taker.TakeAmount, taker.GiveAmount),
			TakeAsset:  taker.TakeAsset,
			TakeAmount: amount.Clone(remaining),
		}
	},
	notional: func(r RestOrder) *uint256.Int { return r.GiveAmount },
}

func makerRemaining(o *Order) *uint256.Int {
	left := amount.Clone(o.GiveAmount)
	if o.Filled != nil {
		left.Sub(left, o.Filled)
	}
	return left
}
