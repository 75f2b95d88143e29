package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
)

// MemoryBookStore keeps records instead of live orders so callers can never
// alias stored state.
type MemoryBookStore struct {
	mu    sync.Mutex
	books map[string]map[string]OrderRecord // symbol -> key -> record
}

func NewMemoryBookStore() *MemoryBookStore {
	return &MemoryBookStore{books: make(map[string]map[string]OrderRecord)}
}

func (s *MemoryBookStore) SaveOrder(symbol string, o *matching.Order) error {
	if err := checkSymbol(symbol); err != nil {
		return err
	}
	if err := checkOrder(o); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[symbol]
	if !ok {
		book = make(map[string]OrderRecord)
		s.books[symbol] = book
	}
	book[string(orderKey(symbol, o.Side, o.ID))] = NewOrderRecord(o)
	return nil
}

func (s *MemoryBookStore) GetOrder(symbol string, side matching.Side, id common.Hash) (*matching.Order, error) {
	s.mu.Lock()
	rec, ok := s.books[symbol][string(orderKey(symbol, side, id))]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: order %s in %s", ErrNotFound, id.Hex(), symbol)
	}
	return rec.Order()
}

// LoadBook returns orders in the same key order the Pebble store uses.
func (s *MemoryBookStore) LoadBook(symbol string) (matching.OrderBook, error) {
	if err := checkSymbol(symbol); err != nil {
		return matching.OrderBook{}, err
	}
	s.mu.Lock()
	keys := make([]string, 0, len(s.books[symbol]))
	recs := make(map[string]OrderRecord, len(s.books[symbol]))
	for k, r := range s.books[symbol] {
		keys = append(keys, k)
		recs[k] = r
	}
	s.mu.Unlock()
	sort.Strings(keys)

	book := matching.OrderBook{Bids: []*matching.Order{}, Asks: []*matching.Order{}}
	for _, k := range keys {
		o, err := recs[k].Order()
		if err != nil {
			return matching.OrderBook{}, err
		}
		if o.Side == matching.Buy {
			book.Bids = append(book.Bids, o)
		} else {
			book.Asks = append(book.Asks, o)
		}
	}
	return book, nil
}

func (s *MemoryBookStore) Close() error { return nil }

var _ BookStore = (*MemoryBookStore)(nil)
