package storage

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
)

// Book key schema for Pebble storage:
//
//   o:<symbol>:<side>:<orderID> → OrderRecord (JSON)
//
// side is "bid" or "ask" so one prefix scan returns a whole book and a
// second-level prefix returns one side of it.

const prefixOrder = "o:"

func sideKey(side matching.Side) string {
	if side == matching.Buy {
		return "bid"
	}
	return "ask"
}

// orderKey returns the key for a resting order
// Format: "o:{symbol}:{side}:{orderID}"
func orderKey(symbol string, side matching.Side, id common.Hash) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s", prefixOrder, symbol, sideKey(side), id.Hex()))
}

// bookPrefix returns the prefix for every order of a market
// Format: "o:{symbol}:"
func bookPrefix(symbol string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixOrder, symbol))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

func checkSymbol(symbol string) error {
	if symbol == "" || strings.ContainsRune(symbol, ':') {
		return fmt.Errorf("invalid market symbol %q", symbol)
	}
	return nil
}
