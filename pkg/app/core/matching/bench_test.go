package matching

import (
	"fmt"
	"testing"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

// depthBook builds n resting orders one cent apart, starting at from and
// moving away from the spread.
func depthBook(b *testing.B, side Side, from float64, n int) []*Order {
	step := 0.01
	if side == Buy {
		step = -step
	}
	specs := make([]orderSpec, n)
	for i := range specs {
		specs[i] = orderSpec{
			side:  side,
			price: fmt.Sprintf("%.2f", from+float64(i)*step),
			size:  "1",
			id:    fmt.Sprintf("%s-%d", side, i),
		}
	}
	return newBook(b, specs...)
}

// BenchmarkMatchAgainstAsks sweeps ten levels of a 100-level ask book.
func BenchmarkMatchAgainstAsks(b *testing.B) {
	e := NewEngine(amount.DefaultUnit(), nil)
	asks := depthBook(b, Sell, 10.00, 100)
	taker := newOrder(b, orderSpec{side: Buy, price: "10.09", size: "10", id: "taker"})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.MatchAgainstAsks(taker, asks, makerMinimum, takerMinimum); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMatchAgainstBidsNoCross measures the selector alone.
func BenchmarkMatchAgainstBidsNoCross(b *testing.B) {
	e := NewEngine(amount.DefaultUnit(), nil)
	bids := depthBook(b, Buy, 9.99, 100)
	taker := newOrder(b, orderSpec{side: Sell, price: "11", size: "1", id: "taker"})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.MatchAgainstBids(taker, bids, makerMinimum, takerMinimum); err != nil {
			b.Fatal(err)
		}
	}
}
