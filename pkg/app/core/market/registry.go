package market

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages multiple markets in a thread-safe manner.
// Lookups return copies so callers never race with status updates.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]*Market // symbol -> market
}

// NewRegistry creates an empty market registry
func NewRegistry() *Registry {
	return &Registry{
		markets: make(map[string]*Market),
	}
}

// Register adds a new market to the registry
// Returns ErrMarketExists if a market with same symbol already exists
func (r *Registry) Register(m *Market) error {
	if m == nil {
		return fmt.Errorf("cannot register nil market")
	}
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markets[m.Symbol]; exists {
		return fmt.Errorf("%w: %s", ErrMarketExists, m.Symbol)
	}

	r.markets[m.Symbol] = m.clone()
	return nil
}

// Get retrieves a market by symbol
func (r *Registry) Get(symbol string) (*Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.markets[symbol]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, symbol)
	}
	return m.clone(), nil
}

// List returns all registered markets sorted by symbol
func (r *Registry) List() []*Market {
	r.mu.RLock()
	defer r.mu.RUnlock()

	markets := make([]*Market, 0, len(r.markets))
	for _, m := range r.markets {
		markets = append(markets, m.clone())
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i].Symbol < markets[j].Symbol })
	return markets
}

// ListActive returns only markets with Active status
func (r *Registry) ListActive() []*Market {
	all := r.List()
	active := all[:0]
	for _, m := range all {
		if m.Status == Active {
			active = append(active, m)
		}
	}
	return active
}

// UpdateStatus pauses or resumes matching on a market
func (r *Registry) UpdateStatus(symbol string, status MarketStatus) error {
	if status != Active && status != Paused {
		return fmt.Errorf("invalid market status %d", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.markets[symbol]
	if !exists {
		return fmt.Errorf("%w: %s", ErrMarketNotFound, symbol)
	}
	m.Status = status
	return nil
}

// Count returns the total number of registered markets
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.markets)
}
