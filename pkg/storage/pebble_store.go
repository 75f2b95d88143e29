package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
)

type PebbleBookStore struct {
	db *pebble.DB
}

// DefaultPebbleOptions mirrors the account store tuning: a modest cache and
// memtable, since books are small and read as whole prefixes.
func DefaultPebbleOptions() *pebble.Options {
	return &pebble.Options{
		MemTableSize:             32 << 20,
		MaxConcurrentCompactions: func() int { return 2 },
		L0CompactionThreshold:    2,
		L0StopWritesThreshold:    12,
		LBaseMaxBytes:            64 << 20,
		MaxOpenFiles:             1000,
		BytesPerSync:             512 << 10,
	}
}

// NewPebbleBookStore opens (or creates) the store at path. nil opts uses
// DefaultPebbleOptions.
func NewPebbleBookStore(path string, opts *pebble.Options) (*PebbleBookStore, error) {
	if opts == nil {
		opts = DefaultPebbleOptions()
	}
	if opts.Cache == nil {
		cache := pebble.NewCache(64 << 20)
		defer cache.Unref()
		opts.Cache = cache
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}
	return &PebbleBookStore{db: db}, nil
}

func (s *PebbleBookStore) Close() error { return s.db.Close() }

// SaveOrder persists a resting order, replacing any previous version
func (s *PebbleBookStore) SaveOrder(symbol string, o *matching.Order) error {
	if err := checkSymbol(symbol); err != nil {
		return err
	}
	if err := checkOrder(o); err != nil {
		return err
	}
	data, err := json.Marshal(NewOrderRecord(o))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := s.db.Set(orderKey(symbol, o.Side, o.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// SaveBook writes a whole book in one batch
func (s *PebbleBookStore) SaveBook(symbol string, book matching.OrderBook) error {
	if err := checkSymbol(symbol); err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, side := range [][]*matching.Order{book.Bids, book.Asks} {
		for _, o := range side {
			if err := checkOrder(o); err != nil {
				return err
			}
			data, err := json.Marshal(NewOrderRecord(o))
			if err != nil {
				return fmt.Errorf("failed to marshal order: %w", err)
			}
			if err := b.Set(orderKey(symbol, o.Side, o.ID), data, nil); err != nil {
				return fmt.Errorf("failed to stage order: %w", err)
			}
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit book %s: %w", symbol, err)
	}
	return nil
}

// GetOrder loads one resting order. Returns ErrNotFound if absent.
func (s *PebbleBookStore) GetOrder(symbol string, side matching.Side, id common.Hash) (*matching.Order, error) {
	data, closer, err := s.db.Get(orderKey(symbol, side, id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: order %s in %s", ErrNotFound, id.Hex(), symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	defer closer.Close()

	var rec OrderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return rec.Order()
}

// LoadBook returns every resting order of a market in key order. An unknown
// market is an empty book.
func (s *PebbleBookStore) LoadBook(symbol string) (matching.OrderBook, error) {
	if err := checkSymbol(symbol); err != nil {
		return matching.OrderBook{}, err
	}
	prefix := bookPrefix(symbol)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return matching.OrderBook{}, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	book := matching.OrderBook{Bids: []*matching.Order{}, Asks: []*matching.Order{}}
	for iter.First(); iter.Valid(); iter.Next() {
		var rec OrderRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return matching.OrderBook{}, fmt.Errorf("corrupt order at %q: %w", iter.Key(), err)
		}
		o, err := rec.Order()
		if err != nil {
			return matching.OrderBook{}, fmt.Errorf("corrupt order at %q: %w", iter.Key(), err)
		}
		if o.Side == matching.Buy {
			book.Bids = append(book.Bids, o)
		} else {
			book.Asks = append(book.Asks, o)
		}
	}
	if err := iter.Error(); err != nil {
		return matching.OrderBook{}, fmt.Errorf("failed to scan book %s: %w", symbol, err)
	}
	return book, nil
}

var _ BookStore = (*PebbleBookStore)(nil)
