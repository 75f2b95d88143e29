package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
	"github.com/uhyunpark/limitmatch/pkg/storage"
	"github.com/uhyunpark/limitmatch/pkg/util"
)

var errBadRequest = errors.New("bad request")

// labels maps decoded order ids back to the ids the caller sent, so a maker
// submitted as "BUY#0" comes back as "BUY#0" rather than as its hash.
type labels map[common.Hash]string

func (l labels) name(id common.Hash) string {
	if s, ok := l[id]; ok {
		return s
	}
	return id.Hex()
}

// Preview is a decoded MatchRequest.
type Preview struct {
	Symbol  string
	Order   *matching.Order
	Book    matching.OrderBook
	HasBook bool

	// Overrides; nil when the request leaves them to the market or defaults.
	MakerMinimum *uint256.Int
	TakerMinimum *uint256.Int

	labels labels
}

// DecodeMatchRequest turns the wire form into engine types. An order without
// createdAt is stamped with clock.
func DecodeMatchRequest(req MatchRequest, clock util.Clock) (*Preview, error) {
	if clock == nil {
		clock = util.RealClock{}
	}
	p := &Preview{Symbol: strings.TrimSpace(req.Symbol), labels: labels{}}
	if p.Symbol == "" && req.OrderBook == nil {
		return nil, fmt.Errorf("%w: either symbol or orderBook is required", errBadRequest)
	}

	o, err := req.Order.Order()
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = clock.Now()
	}
	p.Order = o

	if req.OrderBook != nil {
		if p.Book, err = req.OrderBook.Book(); err != nil {
			return nil, err
		}
		p.HasBook = true
		p.labelBook(*req.OrderBook)
	}

	if p.MakerMinimum, err = parseMinimum("makerMinimum", req.MakerMinimum); err != nil {
		return nil, err
	}
	if p.TakerMinimum, err = parseMinimum("takerMinimum", req.TakerMinimum); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Preview) labelBook(rec storage.BookRecord) {
	for i, r := range rec.Bids {
		if r.ID != "" {
			p.labels[p.Book.Bids[i].ID] = r.ID
		}
	}
	for i, r := range rec.Asks {
		if r.ID != "" {
			p.labels[p.Book.Asks[i].ID] = r.ID
		}
	}
}

func parseMinimum(field, s string) (*uint256.Int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := amount.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

// Response renders res for the wire.
func (p *Preview) Response(res *matching.MatchResult, u amount.Unit) MatchResponse {
	resp := MatchResponse{
		Trades: make([]TradeInfo, 0, len(res.Trades)),
		Orders: make([]RestOrderInfo, 0, len(res.Orders)),
	}
	for _, t := range res.Trades {
		resp.Trades = append(resp.Trades, TradeInfo{
			OrderHash: p.labels.name(t.MakerID),
			Amount:    amount.String(t.Amount),
		})
	}
	for _, r := range res.Orders {
		resp.Orders = append(resp.Orders, newRestOrderInfo(r, u))
	}
	return resp
}

func newRestOrderInfo(r matching.RestOrder, u amount.Unit) RestOrderInfo {
	return RestOrderInfo{
		Type:             r.Side.String(),
		GiveTokenAddress: r.GiveAsset.Hex(),
		GiveAmount:       amount.String(r.GiveAmount),
		TakeTokenAddress: r.TakeAsset.Hex(),
		TakeAmount:       amount.String(r.TakeAmount),
		Price:            amount.ToDecimal(r.Price(u), u).String(),
	}
}
