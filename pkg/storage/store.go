package storage

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
)

var ErrNotFound = errors.New("not found")

// BookStore holds the resting orders the matching engine reads snapshots
// from. The engine itself never writes here.
type BookStore interface {
	SaveOrder(symbol string, o *matching.Order) error
	GetOrder(symbol string, side matching.Side, id common.Hash) (*matching.Order, error)
	LoadBook(symbol string) (matching.OrderBook, error)
	Close() error
}

func checkOrder(o *matching.Order) error {
	if o == nil {
		return errors.New("cannot save nil order")
	}
	if o.Side != matching.Buy && o.Side != matching.Sell {
		return errors.New("cannot save order with malformed side")
	}
	return nil
}
