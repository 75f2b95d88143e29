package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
)

// bookSaver is implemented by stores that can write a whole book atomically.
type bookSaver interface {
	SaveBook(symbol string, book matching.OrderBook) error
}

// Snapshot maps a market symbol to its resting orders.
type Snapshot map[string]BookRecord

// ImportSnapshot decodes a JSON snapshot from r and saves every order into
// store. It returns the number of orders written per symbol.
func ImportSnapshot(store BookStore, r io.Reader) (map[string]int, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	symbols := make([]string, 0, len(snap))
	for sym := range snap {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	counts := make(map[string]int, len(snap))
	for _, sym := range symbols {
		if err := checkSymbol(sym); err != nil {
			return counts, err
		}
		book, err := snap[sym].Book()
		if err != nil {
			return counts, fmt.Errorf("snapshot %s: %w", sym, err)
		}
		if err := saveBook(store, sym, book); err != nil {
			return counts, fmt.Errorf("snapshot %s: %w", sym, err)
		}
		counts[sym] = len(book.Bids) + len(book.Asks)
	}
	return counts, nil
}

func saveBook(store BookStore, symbol string, book matching.OrderBook) error {
	if bs, ok := store.(bookSaver); ok {
		return bs.SaveBook(symbol, book)
	}
	for _, side := range [][]*matching.Order{book.Bids, book.Asks} {
		for _, o := range side {
			if err := store.SaveOrder(symbol, o); err != nil {
				return err
			}
		}
	}
	return nil
}
