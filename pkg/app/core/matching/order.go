package matching

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, s)
	}
}

// Order is a limit order. A Buy gives the base currency and takes the traded
// asset; a Sell gives the traded asset and takes the base currency. Filled is
// always measured against GiveAmount and nil means nothing was filled yet.
type Order struct {
	ID         common.Hash
	Side       Side
	GiveAsset  common.Address
	GiveAmount *uint256.Int
	TakeAsset  common.Address
	TakeAmount *uint256.Int
	Filled     *uint256.Int
	CreatedAt  time.Time
}

// OrderBook is a read-only snapshot of the resting orders for one pair.
type OrderBook struct {
	Bids []*Order
	Asks []*Order
}

// Trade records volume taken from a resting order. Amount is denominated in
// the resting order's give asset.
type Trade struct {
	MakerID common.Hash
	Amount  *uint256.Int
}

// RestOrder is the unmatched remainder of an incoming order. The book assigns
// its id and timestamp when it is actually placed.
type RestOrder struct {
	Side       Side
	GiveAsset  common.Address
	GiveAmount *uint256.Int
	TakeAsset  common.Address
	TakeAmount *uint256.Int
}

// MatchResult lists trades in execution order and at most one rest order.
type MatchResult struct {
	Trades []Trade
	Orders []RestOrder
}

// Rest returns the residual order, if any.
func (r *MatchResult) Rest() (RestOrder, bool) {
	if r == nil || len(r.Orders) == 0 {
		return RestOrder{}, false
	}
	return r.Orders[0], true
}

func restFromOrder(o *Order) RestOrder {
	return RestOrder{
		Side:       o.Side,
		GiveAsset:  o.GiveAsset,
		GiveAmount: amount.Clone(o.GiveAmount),
		TakeAsset:  o.TakeAsset,
		TakeAmount: amount.Clone(o.TakeAmount),
	}
}

// Price returns the rest order's limit price in base currency per asset unit.
func (r RestOrder) Price(u amount.Unit) *uint256.Int {
	return VolumeOf(&Order{Side: r.Side, GiveAmount: r.GiveAmount, TakeAmount: r.TakeAmount}, u).Price
}

// OrderHash derives a deterministic order id from an order's economic terms
// and creation time.
func OrderHash(o *Order) common.Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(o.CreatedAt.UnixNano()))
	give := amount.Clone(o.GiveAmount).Bytes32()
	take := amount.Clone(o.TakeAmount).Bytes32()
	return crypto.Keccak256Hash(
		[]byte{byte(o.Side)},
		o.GiveAsset.Bytes(),
		give[:],
		o.TakeAsset.Bytes(),
		take[:],
		ts[:],
	)
}
