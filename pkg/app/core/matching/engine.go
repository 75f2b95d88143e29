// Package matching computes how an incoming limit order executes against a
// snapshot of the opposite book. It holds no state between calls: the same
// Engine can be shared by any number of goroutines.
package matching

import (
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

type Engine struct {
	unit   amount.Unit
	logger *zap.SugaredLogger
}

// NewEngine returns an engine pricing at unit u. A nil logger disables logging.
func NewEngine(u amount.Unit, logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{unit: u, logger: logger}
}

func (e *Engine) Unit() amount.Unit { return e.unit }

// Match routes a sell to the bid book and a buy to the ask book. Nil minimums
// are treated as zero.
func (e *Engine) Match(order *Order, book OrderBook, makerMin, takerMin *uint256.Int) (*MatchResult, error) {
	if order == nil {
		return nil, invalid("nil order")
	}
	switch order.Side {
	case Sell:
		return e.MatchAgainstBids(order, book.Bids, makerMin, takerMin)
	case Buy:
		return e.MatchAgainstAsks(order, book.Asks, makerMin, takerMin)
	default:
		return nil, invalid("malformed side %d", order.Side)
	}
}

// MatchAgainstBids matches an incoming sell against resting bids.
func (e *Engine) MatchAgainstBids(order *Order, bids []*Order, makerMin, takerMin *uint256.Int) (*MatchResult, error) {
	return e.run(againstBids, order, bids, makerMin, takerMin)
}

// MatchAgainstAsks matches an incoming buy against resting asks.
func (e *Engine) MatchAgainstAsks(order *Order, asks []*Order, makerMin, takerMin *uint256.Int) (*MatchResult, error) {
	return e.run(againstAsks, order, asks, makerMin, takerMin)
}

func (e *Engine) run(dir direction, order *Order, book []*Order, makerMin, takerMin *uint256.Int) (*MatchResult, error) {
	if err := validateTaker(order, dir.taker); err != nil {
		return nil, err
	}
	for _, o := range book {
		if err := validateMaker(o, dir.maker); err != nil {
			return nil, err
		}
	}
	makerMin, takerMin = amount.Clone(makerMin), amount.Clone(takerMin)

	limit := VolumeOf(order, e.unit).Price
	cands := selectCandidates(dir, limit, book, e.unit)
	if len(cands) == 0 {
		e.logger.Debugw("match_no_candidates", "side", order.Side, "price", limit.Dec(), "book", len(book))
		return &MatchResult{Trades: []Trade{}, Orders: []RestOrder{restFromOrder(order)}}, nil
	}

	s := e.fillCandidates(dir, newFillState(dir.assetTotal(order)), cands, takerMin)
	filled := len(s.fills)
	s, rest, unwound := e.settle(dir, order, s, makerMin)

	res := &MatchResult{Trades: s.trades(), Orders: []RestOrder{}}
	if rest != nil {
		res.Orders = append(res.Orders, *rest)
	}
	e.logger.Debugw("match_completed",
		"side", order.Side,
		"price", limit.Dec(),
		"candidates", len(cands),
		"filled", filled,
		"unwound", unwound,
		"trades", len(res.Trades),
		"rested", rest != nil,
	)
	return res, nil
}
