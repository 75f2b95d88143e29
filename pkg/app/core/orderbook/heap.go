package orderbook

import "github.com/holiman/uint256"

// MaxPriceHeap implements heap.Interface for bid prices (highest price on top)
// Use container/heap package to manipulate this heap (Init, Push, Pop, Remove)
type MaxPriceHeap []*uint256.Int

func (h MaxPriceHeap) Len() int           { return len(h) }
func (h MaxPriceHeap) Less(i, j int) bool { return h[i].Gt(h[j]) }
func (h MaxPriceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *MaxPriceHeap) Push(x any) {
	*h = append(*h, x.(*uint256.Int))
}

func (h *MaxPriceHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// MinPriceHeap implements heap.Interface for ask prices (lowest price on top)
type MinPriceHeap []*uint256.Int

func (h MinPriceHeap) Len() int           { return len(h) }
func (h MinPriceHeap) Less(i, j int) bool { return h[i].Lt(h[j]) }
func (h MinPriceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *MinPriceHeap) Push(x any) {
	*h = append(*h, x.(*uint256.Int))
}

func (h *MinPriceHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
