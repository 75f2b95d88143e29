package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
)

// OrderRecord is the wire and disk form of an order. Amounts are decimal
// strings of the scaled integer; nothing is ever re-encoded as a float.
type OrderRecord struct {
	ID         string    `json:"orderHash,omitempty"`
	Side       string    `json:"type"`
	GiveAsset  string    `json:"giveTokenAddress"`
	GiveAmount string    `json:"giveAmount"`
	TakeAsset  string    `json:"takeTokenAddress"`
	TakeAmount string    `json:"takeAmount"`
	Filled     string    `json:"filled,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`

	// Human price and size some clients send next to the scaled amounts.
	// Accepted and never read.
	Price  json.RawMessage `json:"price,omitempty"`
	Amount json.RawMessage `json:"amount,omitempty"`
}

// BookRecord is one market's resting orders in a snapshot file.
type BookRecord struct {
	Bids []OrderRecord `json:"buyBook"`
	Asks []OrderRecord `json:"sellBook"`
}

// ParseOrderID accepts a 32-byte hex hash. Any other non-empty label is
// hashed, so human ids like "BUY#0" still map to a stable common.Hash.
func ParseOrderID(s string) common.Hash {
	if b, err := hexutil.Decode(s); err == nil && len(b) == common.HashLength {
		return common.BytesToHash(b)
	}
	return crypto.Keccak256Hash([]byte(s))
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", matching.ErrInvalidOrder, field, s)
	}
	return common.HexToAddress(s), nil
}

// Order decodes the record. An empty id is derived from the order's terms.
func (r OrderRecord) Order() (*matching.Order, error) {
	side, err := matching.ParseSide(r.Side)
	if err != nil {
		return nil, err
	}
	o := &matching.Order{Side: side, CreatedAt: r.CreatedAt}
	if o.GiveAsset, err = parseAddress("giveTokenAddress", r.GiveAsset); err != nil {
		return nil, err
	}
	if o.TakeAsset, err = parseAddress("takeTokenAddress", r.TakeAsset); err != nil {
		return nil, err
	}
	if o.GiveAmount, err = amount.Parse(r.GiveAmount); err != nil {
		return nil, fmt.Errorf("giveAmount: %w", err)
	}
	if o.TakeAmount, err = amount.Parse(r.TakeAmount); err != nil {
		return nil, fmt.Errorf("takeAmount: %w", err)
	}
	if o.Filled, err = amount.Parse(r.Filled); err != nil {
		return nil, fmt.Errorf("filled: %w", err)
	}
	if r.ID == "" {
		o.ID = matching.OrderHash(o)
	} else {
		o.ID = ParseOrderID(r.ID)
	}
	return o, nil
}

// NewOrderRecord encodes o. The id is written as a hex hash.
func NewOrderRecord(o *matching.Order) OrderRecord {
	return OrderRecord{
		ID:         o.ID.Hex(),
		Side:       o.Side.String(),
		GiveAsset:  o.GiveAsset.Hex(),
		GiveAmount: amount.String(o.GiveAmount),
		TakeAsset:  o.TakeAsset.Hex(),
		TakeAmount: amount.String(o.TakeAmount),
		Filled:     amount.String(o.Filled),
		CreatedAt:  o.CreatedAt.UTC(),
	}
}

// Book decodes both sides. Records on the wrong side are rejected.
func (b BookRecord) Book() (matching.OrderBook, error) {
	seen := make(map[common.Hash]bool, len(b.Bids)+len(b.Asks))
	bids, err := decodeSide(b.Bids, matching.Buy, seen)
	if err != nil {
		return matching.OrderBook{}, fmt.Errorf("buyBook: %w", err)
	}
	asks, err := decodeSide(b.Asks, matching.Sell, seen)
	if err != nil {
		return matching.OrderBook{}, fmt.Errorf("sellBook: %w", err)
	}
	return matching.OrderBook{Bids: bids, Asks: asks}, nil
}

// decodeSide rejects an id already in seen. Identical unlabeled orders derive
// the same id, so they must be told apart with an explicit orderHash.
func decodeSide(recs []OrderRecord, want matching.Side, seen map[common.Hash]bool) ([]*matching.Order, error) {
	out := make([]*matching.Order, 0, len(recs))
	for i, r := range recs {
		o, err := r.Order()
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		if o.Side != want {
			return nil, fmt.Errorf("order %d: %w: %s order in the %s book", i, matching.ErrInvalidOrder, o.Side, sideKey(want))
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("order %d: %w: duplicate id %s", i, matching.ErrInvalidOrder, o.ID.Hex())
		}
		seen[o.ID] = true
		out = append(out, o)
	}
	return out, nil
}
