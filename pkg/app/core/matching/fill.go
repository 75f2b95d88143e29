package matching

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

// dustPercent is the share of the taker's original size below which an
// unmatched remainder is dropped instead of rested.
const dustPercent = 1

// fill is one committed trade plus the bookkeeping needed to reverse it.
type fill struct {
	makerID  common.Hash
	amount   *uint256.Int // maker give axis, the public trade amount
	consumed *uint256.Int // taker asset axis
	checked  *uint256.Int // amount held against the taker minimum
}

func (f fill) trade() Trade {
	return Trade{MakerID: f.makerID, Amount: amount.Clone(f.amount)}
}

// fillState is the running state of one match call. commit and rollback
// return new values and never touch the receiver.
type fillState struct {
	remaining *uint256.Int
	fills     []fill
}

func newFillState(total *uint256.Int) fillState {
	return fillState{remaining: amount.Clone(total)}
}

func (s fillState) commit(f fill) fillState {
	return fillState{
		remaining: new(uint256.Int).Sub(s.remaining, f.consumed),
		fills:     append(s.fills[:len(s.fills):len(s.fills)], f),
	}
}

// rollback reverses the most recent fill. It panics on an empty state;
// callers check len(fills) first.
func (s fillState) rollback() (fillState, fill) {
	last := s.fills[len(s.fills)-1]
	return fillState{
		remaining: new(uint256.Int).Add(s.remaining, last.consumed),
		fills:     s.fills[:len(s.fills)-1 : len(s.fills)-1],
	}, last
}

func (s fillState) done() bool { return s.remaining.IsZero() }

func (s fillState) trades() []Trade {
	out := make([]Trade, len(s.fills))
	for i, f := range s.fills {
		out[i] = f.trade()
	}
	return out
}

// fillCandidates walks the candidates greedily. Fills below the taker
// minimum, or that would move nothing, are skipped rather than ending the
// walk.
func (e *Engine) fillCandidates(dir direction, s fillState, cands []candidate, takerMin *uint256.Int) fillState {
	for _, c := range cands {
		if s.done() {
			break
		}
		f := dir.size(s.remaining, c.order)
		if f.amount.IsZero() || f.consumed.IsZero() {
			e.logger.Debugw("trade_skipped_empty", "maker", c.order.ID.Hex())
			continue
		}
		if f.checked.Lt(takerMin) {
			e.logger.Debugw("trade_skipped_below_taker_minimum",
				"maker", c.order.ID.Hex(), "amount", f.checked.Dec(), "minimum", takerMin.Dec())
			continue
		}
		s = s.commit(f)
	}
	return s
}

// settle decides what, if anything, rests. A remainder below dustPercent of
// the taker's size is dropped. Otherwise the most recent fills are unwound
// until the residual meets the maker minimum or nothing is left to unwind.
func (e *Engine) settle(dir direction, taker *Order, s fillState, makerMin *uint256.Int) (fillState, *RestOrder, int) {
	total := dir.assetTotal(taker)
	if s.done() {
		return s, nil, 0
	}
	if s.remaining.Lt(amount.PercentOf(total, dustPercent)) {
		e.logger.Debugw("residual_suppressed_as_dust", "remaining", s.remaining.Dec(), "total", total.Dec())
		return s, nil, 0
	}
	rest := dir.residual(taker, s.remaining)
	unwound := 0
	for dir.notional(rest).Lt(makerMin) && len(s.fills) > 0 {
		var last fill
		s, last = s.rollback()
		unwound++
		e.logger.Debugw("trade_unwound", "maker", last.makerID.Hex(), "amount", last.amount.Dec())
		rest = dir.residual(taker, s.remaining)
	}
	if len(s.fills) == 0 {
		rest = restFromOrder(taker)
	}
	return s, &rest, unwound
}
