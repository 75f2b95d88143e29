package api

import (
	"github.com/uhyunpark/limitmatch/pkg/storage"
)

// MatchRequest asks for a match preview. Either Symbol or OrderBook must be
// set; an inline book wins over the stored one. Minimum overrides are scaled
// integer strings like every other amount.
type MatchRequest struct {
	Symbol       string              `json:"symbol,omitempty"`
	Order        storage.OrderRecord `json:"order"`
	OrderBook    *storage.BookRecord `json:"orderBook,omitempty"`
	MakerMinimum string              `json:"makerMinimum,omitempty"`
	TakerMinimum string              `json:"takerMinimum,omitempty"`
}

// MatchResponse mirrors matching.MatchResult with decimal-string amounts.
type MatchResponse struct {
	Trades []TradeInfo     `json:"trades"`
	Orders []RestOrderInfo `json:"orders"`
}

// TradeInfo is volume taken from one resting order, in that order's give asset.
// OrderHash echoes the id the caller used for the maker.
type TradeInfo struct {
	OrderHash string `json:"orderHash"`
	Amount    string `json:"amount"`
}

// RestOrderInfo is the part of the incoming order left to rest on the book.
type RestOrderInfo struct {
	Type             string `json:"type"`
	GiveTokenAddress string `json:"giveTokenAddress"`
	GiveAmount       string `json:"giveAmount"`
	TakeTokenAddress string `json:"takeTokenAddress"`
	TakeAmount       string `json:"takeAmount"`
	Price            string `json:"price"` // human decimal, base currency per asset unit
}

// MarketInfo represents market metadata
type MarketInfo struct {
	Symbol       string `json:"symbol"`
	BaseAsset    string `json:"baseAsset"`
	QuoteAsset   string `json:"quoteAsset"`
	Status       string `json:"status"`
	MakerMinimum string `json:"makerMinimum"` // human decimal
	TakerMinimum string `json:"takerMinimum"`
}

// StatusRequest sets a market's status: "active" or "paused".
type StatusRequest struct {
	Status string `json:"status"`
}

// OrderbookSnapshot represents current orderbook depth
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"` // Sorted high to low
	Asks      []PriceLevel `json:"asks"` // Sorted low to high
	MidPrice  string       `json:"midPrice,omitempty"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
}

// PriceLevel is one aggregated price in human decimals.
type PriceLevel struct {
	Price  string `json:"price"`
	Size   string `json:"size"` // unfilled traded asset
	Orders int    `json:"orders"`
}

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["matches:WETH-USDC"]
}

// MatchUpdate is broadcast on matches:<symbol> after every symbol-scoped preview.
type MatchUpdate struct {
	Type      string        `json:"type"` // "match"
	Symbol    string        `json:"symbol"`
	Result    MatchResponse `json:"result"`
	Timestamp int64         `json:"timestamp"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
