package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

func newTestEngine() *Engine { return NewEngine(amount.DefaultUnit(), nil) }

func ladder(side Side, prefix string, prices ...string) []orderSpec {
	out := make([]orderSpec, len(prices))
	for i, p := range prices {
		out[i] = orderSpec{side: side, price: p, size: "1", id: prefix + string(rune('0'+i))}
	}
	return out
}

func TestMatchAgainstBids(t *testing.T) {
	tests := []struct {
		name       string
		book       []orderSpec
		order      orderSpec
		wantTrades []struct{ maker, amount string }
		wantRest   *orderSpec
	}{
		{
			name:     "unwind to the full order when the residual is below maker minimum",
			book:     []orderSpec{{side: Buy, price: "3", size: "0.68", id: "BUY#0"}},
			order:    orderSpec{side: Sell, price: "2", size: "0.75"},
			wantRest: &orderSpec{side: Sell, price: "2", size: "0.75"},
		},
		{
			name:       "drop a remainder below one percent",
			book:       []orderSpec{{side: Buy, price: "1", size: "4.96", id: "BUY#0"}},
			order:      orderSpec{side: Sell, price: "1", size: "5"},
			wantTrades: []struct{ maker, amount string }{{"BUY#0", "4.96"}},
		},
		{
			name:     "return the order when nothing crosses",
			book:     ladder(Buy, "BUY#", "0.9", "0.8", "0.7", "0.6", "0.5"),
			order:    orderSpec{side: Sell, price: "1", size: "1"},
			wantRest: &orderSpec{side: Sell, price: "1", size: "1"},
		},
		{
			name:       "fill crossing bids and rest the remainder",
			book:       ladder(Buy, "BUY#", "0.9", "0.8", "0.7", "0.6", "0.5"),
			order:      orderSpec{side: Sell, price: "0.8", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"BUY#0", "0.9"}, {"BUY#1", "0.8"}},
			wantRest:   &orderSpec{side: Sell, price: "0.8", size: "1"},
		},
		{
			name:       "match a partially filled bid",
			book:       []orderSpec{{side: Buy, price: "0.9", size: "1", filled: "0.5", id: "BUY#0"}},
			order:      orderSpec{side: Sell, price: "0.8", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"BUY#0", "0.45"}},
			wantRest:   &orderSpec{side: Sell, price: "0.8", size: "2.5"},
		},
		{
			name: "higher bids first",
			book: []orderSpec{
				{side: Buy, price: "0.6", size: "1", id: "BUY#3"},
				{side: Buy, price: "0.5", size: "1", id: "BUY#4"},
				{side: Buy, price: "0.9", size: "1", id: "BUY#0"},
				{side: Buy, price: "0.8", size: "1", id: "BUY#1"},
				{side: Buy, price: "0.7", size: "1", id: "BUY#2"},
			},
			order:      orderSpec{side: Sell, price: "0", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"BUY#0", "0.9"}, {"BUY#1", "0.8"}, {"BUY#2", "0.7"}},
		},
		{
			name: "older bids first at the same price",
			book: []orderSpec{
				{side: Buy, price: "0.9", size: "1", created: year(2019), id: "BUY#0"},
				{side: Buy, price: "0.9", size: "1", created: year(2018), id: "BUY#1"},
				{side: Buy, price: "0.9", size: "1", created: year(2017), id: "BUY#2"},
				{side: Buy, price: "0.9", size: "1", created: year(2016), id: "BUY#3"},
				{side: Buy, price: "0.9", size: "1", created: year(2015), id: "BUY#4"},
			},
			order:      orderSpec{side: Sell, price: "0", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"BUY#4", "0.9"}, {"BUY#3", "0.9"}, {"BUY#2", "0.9"}},
		},
		{
			name: "unwind trades until the residual meets maker minimum",
			book: []orderSpec{
				{side: Buy, price: "3", size: "0.02", created: year(2019), id: "BUY#0"},
				{side: Buy, price: "3", size: "0.02", created: year(2018), id: "BUY#1"},
				{side: Buy, price: "3", size: "0.02", created: year(2017), id: "BUY#2"},
				{side: Buy, price: "2.9", size: "0.02", created: year(2016), id: "BUY#3"},
				{side: Buy, price: "2.8", size: "0.02", created: year(2015), id: "BUY#4"},
			},
			order:      orderSpec{side: Sell, price: "3", size: "0.08"},
			wantTrades: []struct{ maker, amount string }{{"BUY#2", "0.06"}},
			wantRest:   &orderSpec{side: Sell, price: "3", size: "0.06"},
		},
		{
			name: "skip fills below taker minimum",
			book: []orderSpec{
				{side: Buy, price: "1", size: "0.05", created: year(2019), id: "BUY#0"},
				{side: Buy, price: "1", size: "0.04", created: year(2018), id: "BUY#1"},
				{side: Buy, price: "1", size: "0.04", created: year(2017), id: "BUY#2"},
				{side: Buy, price: "0.9", size: "0.05", created: year(2016), id: "BUY#3"},
				{side: Buy, price: "0.8", size: "0.05", created: year(2015), id: "BUY#4"},
			},
			order:      orderSpec{side: Sell, price: "1", size: "0.3"},
			wantTrades: []struct{ maker, amount string }{{"BUY#0", "0.05"}},
			wantRest:   &orderSpec{side: Sell, price: "1", size: "0.25"},
		},
		{
			name: "every bid below taker minimum rests a small order whole",
			book: []orderSpec{
				{side: Buy, price: "1.2", size: "0.04", id: "BUY#0"},
				{side: Buy, price: "1.1", size: "0.04", id: "BUY#1"},
				{side: Buy, price: "1", size: "0.04", id: "BUY#2"},
			},
			order:    orderSpec{side: Sell, price: "1", size: "0.1"},
			wantRest: &orderSpec{side: Sell, price: "1", size: "0.1"},
		},
	}

	e := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.MatchAgainstBids(newOrder(t, tt.order), newBook(t, tt.book...), makerMinimum, takerMinimum)
			require.NoError(t, err)
			assertResult(t, res, tt.wantTrades, tt.wantRest)
		})
	}
}

func TestMatchAgainstAsks(t *testing.T) {
	tests := []struct {
		name       string
		book       []orderSpec
		order      orderSpec
		wantTrades []struct{ maker, amount string }
		wantRest   *orderSpec
	}{
		{
			name:     "unwind to the full order when the residual is below maker minimum",
			book:     []orderSpec{{side: Sell, price: "1.5", size: "0.68", id: "SELL#0"}},
			order:    orderSpec{side: Buy, price: "2", size: "0.75"},
			wantRest: &orderSpec{side: Buy, price: "2", size: "0.75"},
		},
		{
			name:       "drop a remainder below one percent",
			book:       []orderSpec{{side: Sell, price: "1", size: "4.96", id: "SELL#0"}},
			order:      orderSpec{side: Buy, price: "1", size: "5"},
			wantTrades: []struct{ maker, amount string }{{"SELL#0", "4.96"}},
		},
		{
			name:     "return the order when nothing crosses",
			book:     ladder(Sell, "SELL#", "1.5", "1.6", "1.7", "1.8", "1.9"),
			order:    orderSpec{side: Buy, price: "1", size: "1"},
			wantRest: &orderSpec{side: Buy, price: "1", size: "1"},
		},
		{
			name:       "fill crossing asks and rest the remainder",
			book:       ladder(Sell, "SELL#", "1.5", "1.6", "1.7", "1.8", "1.9"),
			order:      orderSpec{side: Buy, price: "1.6", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"SELL#0", "1"}, {"SELL#1", "1"}},
			wantRest:   &orderSpec{side: Buy, price: "1.6", size: "1"},
		},
		{
			name:       "match a partially filled ask",
			book:       []orderSpec{{side: Sell, price: "1.5", size: "1", filled: "0.5", id: "SELL#0"}},
			order:      orderSpec{side: Buy, price: "1.6", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"SELL#0", "0.5"}},
			wantRest:   &orderSpec{side: Buy, price: "1.6", size: "2.5"},
		},
		{
			name: "lower asks first",
			book: []orderSpec{
				{side: Sell, price: "1.8", size: "1", id: "SELL#3"},
				{side: Sell, price: "1.9", size: "1", id: "SELL#4"},
				{side: Sell, price: "1.5", size: "1", id: "SELL#0"},
				{side: Sell, price: "1.6", size: "1", id: "SELL#1"},
				{side: Sell, price: "1.7", size: "1", id: "SELL#2"},
			},
			order:      orderSpec{side: Buy, price: "2", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"SELL#0", "1"}, {"SELL#1", "1"}, {"SELL#2", "1"}},
		},
		{
			name: "older asks first at the same price",
			book: []orderSpec{
				{side: Sell, price: "1.5", size: "1", created: year(2019), id: "SELL#0"},
				{side: Sell, price: "1.5", size: "1", created: year(2018), id: "SELL#1"},
				{side: Sell, price: "1.5", size: "1", created: year(2017), id: "SELL#2"},
				{side: Sell, price: "1.5", size: "1", created: year(2016), id: "SELL#3"},
				{side: Sell, price: "1.5", size: "1", created: year(2015), id: "SELL#4"},
			},
			order:      orderSpec{side: Buy, price: "2", size: "3"},
			wantTrades: []struct{ maker, amount string }{{"SELL#4", "1"}, {"SELL#3", "1"}, {"SELL#2", "1"}},
		},
		{
			name: "unwind trades until the residual meets maker minimum",
			book: []orderSpec{
				{side: Sell, price: "5", size: "0.01", created: year(2019), id: "SELL#0"},
				{side: Sell, price: "5", size: "0.01", created: year(2018), id: "SELL#1"},
				{side: Sell, price: "5", size: "0.01", created: year(2017), id: "SELL#2"},
				{side: Sell, price: "6.5", size: "0.5", created: year(2016), id: "SELL#3"},
				{side: Sell, price: "6.5", size: "0.5", created: year(2015), id: "SELL#4"},
			},
			order:      orderSpec{side: Buy, price: "5", size: "0.04"},
			wantTrades: []struct{ maker, amount string }{{"SELL#2", "0.01"}},
			wantRest:   &orderSpec{side: Buy, price: "5", size: "0.03"},
		},
		{
			name: "skip fills below taker minimum",
			book: []orderSpec{
				{side: Sell, price: "5", size: "0.01", created: year(2019), id: "SELL#0"},
				{side: Sell, price: "5", size: "0.009", created: year(2018), id: "SELL#1"},
				{side: Sell, price: "5", size: "0.009", created: year(2017), id: "SELL#2"},
				{side: Sell, price: "5.5", size: "0.5", created: year(2016), id: "SELL#3"},
				{side: Sell, price: "5.5", size: "0.5", created: year(2015), id: "SELL#4"},
			},
			order:      orderSpec{side: Buy, price: "5", size: "0.04"},
			wantTrades: []struct{ maker, amount string }{{"SELL#0", "0.01"}},
			wantRest:   &orderSpec{side: Buy, price: "5", size: "0.03"},
		},
		{
			name: "every ask below taker minimum rests a small order whole",
			book: []orderSpec{
				{side: Sell, price: "4.5", size: "0.009", id: "SELL#0"},
				{side: Sell, price: "5", size: "0.009", id: "SELL#1"},
			},
			order:    orderSpec{side: Buy, price: "5", size: "0.02"},
			wantRest: &orderSpec{side: Buy, price: "5", size: "0.02"},
		},
	}

	e := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.MatchAgainstAsks(newOrder(t, tt.order), newBook(t, tt.book...), makerMinimum, takerMinimum)
			require.NoError(t, err)
			assertResult(t, res, tt.wantTrades, tt.wantRest)
		})
	}
}

func assertResult(t *testing.T, res *MatchResult, wantTrades []struct{ maker, amount string }, wantRest *orderSpec) {
	t.Helper()
	require.NotNil(t, res)

	want := make([]Trade, len(wantTrades))
	for i, w := range wantTrades {
		want[i] = trade(t, w.maker, w.amount)
	}
	assert.Equal(t, want, res.Trades)

	if wantRest == nil {
		assert.Empty(t, res.Orders)
		return
	}
	require.Len(t, res.Orders, 1)
	assert.Equal(t, restOf(t, *wantRest), res.Orders[0])
}

func TestMatchRoutesBySide(t *testing.T) {
	e := newTestEngine()
	book := OrderBook{
		Bids: newBook(t, orderSpec{side: Buy, price: "1", size: "1", id: "BUY#0"}),
		Asks: newBook(t, orderSpec{side: Sell, price: "1", size: "1", id: "SELL#0"}),
	}

	res, err := e.Match(newOrder(t, orderSpec{side: Sell, price: "1", size: "1"}), book, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []Trade{trade(t, "BUY#0", "1")}, res.Trades)

	res, err = e.Match(newOrder(t, orderSpec{side: Buy, price: "1", size: "1"}), book, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []Trade{trade(t, "SELL#0", "1")}, res.Trades)
	assert.NotNil(t, res.Orders)
	assert.Empty(t, res.Orders)
}

func TestMatchEmptyBookReturnsOrder(t *testing.T) {
	e := newTestEngine()
	o := newOrder(t, orderSpec{side: Sell, price: "2", size: "0.01"})

	// the maker minimum does not apply when nothing could be matched
	res, err := e.Match(o, OrderBook{}, makerMinimum, takerMinimum)
	require.NoError(t, err)
	assert.NotNil(t, res.Trades)
	assert.Empty(t, res.Trades)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, restFromOrder(o), res.Orders[0])
}

func TestMatchRejectsInvalidInput(t *testing.T) {
	e := newTestEngine()
	sell := func() *Order { return newOrder(t, orderSpec{side: Sell, price: "1", size: "1"}) }
	bid := func() *Order { return newOrder(t, orderSpec{side: Buy, price: "1", size: "1", id: "BUY#0"}) }

	tests := []struct {
		name  string
		order func() *Order
		bids  func() []*Order
	}{
		{"nil order", func() *Order { return nil }, nil},
		{"malformed side", func() *Order { o := sell(); o.Side = 0; return o }, nil},
		{"wrong book", func() *Order { o := sell(); o.Side = Buy; return o }, nil},
		{"zero asset amount", func() *Order { o := sell(); o.GiveAmount = amount.Zero(); return o }, nil},
		{"nil asset amount", func() *Order { o := sell(); o.GiveAmount = nil; return o }, nil},
		{"amount above maximum", func() *Order {
			o := sell()
			o.GiveAmount = amount.Clone(amount.MaxAmount).AddUint64(amount.MaxAmount, 1)
			return o
		}, nil},
		{"overfilled order", func() *Order { o := sell(); o.Filled = wei(t, "2"); return o }, nil},
		{"resting order on the wrong side", sell, func() []*Order { o := bid(); o.Side = Sell; return []*Order{o} }},
		{"resting order with zero take", sell, func() []*Order { o := bid(); o.TakeAmount = amount.Zero(); return []*Order{o} }},
		{"resting order with zero give", sell, func() []*Order { o := bid(); o.GiveAmount = amount.Zero(); o.Filled = nil; return []*Order{o} }},
		{"nil resting order", sell, func() []*Order { return []*Order{nil} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bids []*Order
			if tt.bids != nil {
				bids = tt.bids()
			}
			res, err := e.MatchAgainstBids(tt.order(), bids, nil, nil)
			assert.ErrorIs(t, err, ErrInvalidOrder)
			assert.Nil(t, res)
		})
	}

	_, err := e.Match(&Order{Side: 3}, OrderBook{}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestMatchDoesNotMutateInputs(t *testing.T) {
	e := newTestEngine()
	order := newOrder(t, orderSpec{side: Sell, price: "0.8", size: "3"})
	bids := newBook(t, ladder(Buy, "BUY#", "0.9", "0.8", "0.7")...)
	before := newBook(t, ladder(Buy, "BUY#", "0.9", "0.8", "0.7")...)
	orderBefore := newOrder(t, orderSpec{side: Sell, price: "0.8", size: "3"})
	bids[0], bids[2] = bids[2], bids[0]
	before[0], before[2] = before[2], before[0]

	_, err := e.MatchAgainstBids(order, bids, makerMinimum, takerMinimum)
	require.NoError(t, err)
	assert.Equal(t, before, bids)
	assert.Equal(t, orderBefore, order)
}

func TestMatchStableForIdenticalPriority(t *testing.T) {
	e := newTestEngine()
	bids := newBook(t,
		orderSpec{side: Buy, price: "1", size: "1", id: "A"},
		orderSpec{side: Buy, price: "1", size: "1", id: "B"},
		orderSpec{side: Buy, price: "1", size: "1", id: "C"},
	)
	res, err := e.MatchAgainstBids(newOrder(t, orderSpec{side: Sell, price: "1", size: "2"}), bids, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []Trade{trade(t, "A", "1"), trade(t, "B", "1")}, res.Trades)
}

func TestMatchSkipsExhaustedMakers(t *testing.T) {
	e := newTestEngine()
	bids := newBook(t,
		orderSpec{side: Buy, price: "1", size: "1", filled: "1", created: year(2015), id: "DONE"},
		orderSpec{side: Buy, price: "1", size: "1", created: year(2016), id: "LIVE"},
	)
	res, err := e.MatchAgainstBids(newOrder(t, orderSpec{side: Sell, price: "1", size: "1"}), bids, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []Trade{trade(t, "LIVE", "1")}, res.Trades)
	assert.Empty(t, res.Orders)
}

func TestEngineConcurrentUse(t *testing.T) {
	e := newTestEngine()
	order := newOrder(t, orderSpec{side: Sell, price: "0.8", size: "3"})
	bids := newBook(t, ladder(Buy, "BUY#", "0.9", "0.8", "0.7", "0.6", "0.5")...)
	want, err := e.MatchAgainstBids(order, bids, makerMinimum, takerMinimum)
	require.NoError(t, err)

	const workers = 16
	results := make(chan *MatchResult, workers)
	for i := 0; i < workers; i++ {
		go func() {
			res, err := e.MatchAgainstBids(order, bids, makerMinimum, takerMinimum)
			if err != nil {
				results <- nil
				return
			}
			results <- res
		}()
	}
	for i := 0; i < workers; i++ {
		assert.Equal(t, want, <-results)
	}
}
