package engine

import "driftbook/internal/common"

// OrderBooks is the symbol registry: it owns the trading-enabled flag,
// lazily creates a book per symbol on first use, and fans cancels out to
// every book it holds.
type OrderBooks struct {
	tradingEnabled bool
	books          map[string]*OrderBook
	// order records the insertion order of first-observed symbols so
	// fan-out cancels iterate deterministically (spec §9 open question
	// 3), rather than relying on Go's randomized map iteration.
	order []string
}

// NewOrderBooks constructs an empty registry. tradingEnabled is applied
// to every book created from this point on.
func NewOrderBooks(tradingEnabled bool) *OrderBooks {
	return &OrderBooks{
		tradingEnabled: tradingEnabled,
		books:          make(map[string]*OrderBook),
	}
}

// AddOrder looks up (or lazily creates) the book for new_order.Symbol and
// delegates.
func (r *OrderBooks) AddOrder(o common.NewOrder) []common.OrderResult {
	book, ok := r.books[o.Symbol]
	if !ok {
		book = NewOrderBook(o.Symbol, r.tradingEnabled)
		r.books[o.Symbol] = book
		r.order = append(r.order, o.Symbol)
	}
	return book.AddOrder(o)
}

// CancelOrder emits a registry-level Acknowledgement first — even if no
// resting order anywhere matches — then fans the cancel out to every
// book in deterministic order, appending each book's (possibly empty)
// result sequence.
func (r *OrderBooks) CancelOrder(c common.CancelOrder) []common.OrderResult {
	results := []common.OrderResult{common.Acknowledgement{User: c.User, UserOrderID: c.UserOrderID}}
	for _, symbol := range r.order {
		results = append(results, r.books[symbol].CancelOrder(c)...)
	}
	return results
}

// Flush discards every book. It emits nothing.
func (r *OrderBooks) Flush() {
	r.books = make(map[string]*OrderBook)
	r.order = nil
}
