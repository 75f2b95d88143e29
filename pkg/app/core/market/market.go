package market

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

var (
	ErrMarketNotFound = errors.New("market not found")
	ErrMarketPaused   = errors.New("market paused")
	ErrMarketExists   = errors.New("market already registered")
)

// MarketStatus defines the trading status of a market
type MarketStatus int8

const (
	Active MarketStatus = iota // Matching enabled
	Paused                     // Matching halted
)

func (ms MarketStatus) String() string {
	switch ms {
	case Active:
		return "Active"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// ParseStatus accepts the String form in any case.
func ParseStatus(s string) (MarketStatus, error) {
	switch strings.ToLower(s) {
	case "active":
		return Active, nil
	case "paused":
		return Paused, nil
	default:
		return 0, fmt.Errorf("unknown market status %q", s)
	}
}

// Market is one traded pair. Base is the settlement currency buyers give;
// Quote is the traded asset sellers give. Both minimums are denominated in
// the base currency at the engine's unit.
type Market struct {
	Symbol string
	Base   common.Address
	Quote  common.Address
	Status MarketStatus

	MakerMinimum *uint256.Int // smallest resting order notional
	TakerMinimum *uint256.Int // smallest single trade
}

// NewMarket creates an active market with validation
func NewMarket(symbol string, base, quote common.Address, makerMin, takerMin *uint256.Int) (*Market, error) {
	m := &Market{
		Symbol:       symbol,
		Base:         base,
		Quote:        quote,
		Status:       Active,
		MakerMinimum: amount.Clone(makerMin),
		TakerMinimum: amount.Clone(takerMin),
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market params: %w", err)
	}
	return m, nil
}

// Validate checks market parameter sanity
func (m *Market) Validate() error {
	if m.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if strings.ContainsRune(m.Symbol, ':') {
		return fmt.Errorf("symbol %q cannot contain ':'", m.Symbol)
	}
	if m.Base == m.Quote {
		return fmt.Errorf("base and quote assets must differ")
	}
	for _, v := range []*uint256.Int{m.MakerMinimum, m.TakerMinimum} {
		if v != nil && v.Gt(amount.MaxAmount) {
			return fmt.Errorf("minimum %s exceeds maximum amount", v.Dec())
		}
	}
	return nil
}

// Minimums returns copies of the market's thresholds, nil treated as zero.
func (m *Market) Minimums() (maker, taker *uint256.Int) {
	return amount.Clone(m.MakerMinimum), amount.Clone(m.TakerMinimum)
}

// CanMatch reports ErrMarketPaused when matching is halted.
func (m *Market) CanMatch() error {
	if m.Status != Active {
		return fmt.Errorf("%w: %s is %s", ErrMarketPaused, m.Symbol, m.Status)
	}
	return nil
}

func (m *Market) clone() *Market {
	c := *m
	c.MakerMinimum = amount.Clone(m.MakerMinimum)
	c.TakerMinimum = amount.Clone(m.TakerMinimum)
	return &c
}
