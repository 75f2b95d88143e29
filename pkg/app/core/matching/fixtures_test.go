package matching

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

var (
	baseAsset  = common.HexToAddress("0x0000000000000000000000000000000000000000")
	tradeAsset = common.HexToAddress("0xe62cc4212610289d7374f72c2390a40e78583350")

	defaultCreatedAt = time.Date(2019, 6, 19, 20, 25, 59, 459_000_000, time.UTC)

	makerMinimum = amount.MustFromString("0.15", amount.DefaultUnit())
	takerMinimum = amount.MustFromString("0.05", amount.DefaultUnit())
)

// orderSpec describes an order the way a trader would: a human price and size.
type orderSpec struct {
	side    Side
	price   string
	size    string
	filled  string
	created time.Time
	id      string
}

func id(name string) common.Hash { return common.BytesToHash([]byte(name)) }

func wei(t testing.TB, s string) *uint256.Int {
	t.Helper()
	if s == "" {
		return amount.Zero()
	}
	v, err := amount.FromString(s, amount.DefaultUnit())
	require.NoError(t, err)
	return v
}

// newOrder builds an order at the default 1e18 unit. Buys give size*price of
// the base asset; filled is given in the traded asset and stored on the give
// axis.
func newOrder(t testing.TB, s orderSpec) *Order {
	t.Helper()
	u := amount.DefaultUnit().Scale()
	size, price, filled := wei(t, s.size), wei(t, s.price), wei(t, s.filled)
	notional := amount.Convert(size, u, price)

	o := &Order{Side: s.side, CreatedAt: s.created}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = defaultCreatedAt
	}
	if s.side == Buy {
		o.GiveAsset, o.GiveAmount = baseAsset, notional
		o.TakeAsset, o.TakeAmount = tradeAsset, size
		o.Filled = amount.Convert(filled, o.TakeAmount, o.GiveAmount)
	} else {
		o.GiveAsset, o.GiveAmount = tradeAsset, size
		o.TakeAsset, o.TakeAmount = baseAsset, notional
		o.Filled = filled
	}
	if s.id != "" {
		o.ID = id(s.id)
	} else {
		o.ID = OrderHash(o)
	}
	return o
}

func newBook(t testing.TB, specs ...orderSpec) []*Order {
	t.Helper()
	out := make([]*Order, len(specs))
	for i, s := range specs {
		out[i] = newOrder(t, s)
	}
	return out
}

func restOf(t *testing.T, s orderSpec) RestOrder {
	t.Helper()
	return restFromOrder(newOrder(t, s))
}

func trade(t *testing.T, maker, amt string) Trade {
	t.Helper()
	return Trade{MakerID: id(maker), Amount: wei(t, amt)}
}

func year(y int) time.Time {
	return time.Date(y, 6, 19, 20, 25, 59, 459_000_000, time.UTC)
}
