package engine

import (
	"testing"

	"driftbook/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRoutesBySymbol(t *testing.T) {
	registry := NewOrderBooks(false)
	var seq uint64

	got := registry.AddOrder(newOrder(&seq, 1, 10, 100, common.Buy, 1))
	assert.Equal(t, []string{"A, 1, 1", "B, B, 10, 100"}, renderAll(got))

	other := newOrder(&seq, 2, 20, 50, common.Sell, 2)
	other.Symbol = "AAPL"
	got = registry.AddOrder(other)
	assert.Equal(t, []string{"A, 2, 2", "B, S, 20, 50"}, renderAll(got))
}

// TestRegistryCancelFanOut mirrors spec.md §4.2: the registry emits its
// own Acknowledgement first, even when no book holds a matching order,
// then fans out to every book in first-observed-symbol order.
func TestRegistryCancelFanOut(t *testing.T) {
	registry := NewOrderBooks(false)
	var seq uint64

	ibm := newOrder(&seq, 1, 10, 100, common.Buy, 1)
	ibm.Symbol = "IBM"
	registry.AddOrder(ibm)

	aapl := newOrder(&seq, 1, 10, 100, common.Buy, 1)
	aapl.Symbol = "AAPL"
	registry.AddOrder(aapl)

	got := registry.CancelOrder(common.CancelOrder{User: 1, UserOrderID: 1})

	// Cross-symbol (user, user_order_id) uniqueness is not enforced
	// (spec §9 open question 1): both books independently held the id,
	// so both report a TopOfBookChange, IBM before AAPL (insertion order).
	assert.Equal(t, []string{"A, 1, 1", "B, B, -, -", "B, B, -, -"}, renderAll(got))
}

func TestRegistryCancelAcknowledgesEvenWhenNothingMatches(t *testing.T) {
	registry := NewOrderBooks(false)
	var seq uint64
	ibm := newOrder(&seq, 1, 10, 100, common.Buy, 1)
	registry.AddOrder(ibm)

	got := registry.CancelOrder(common.CancelOrder{User: 99, UserOrderID: 99})
	assert.Equal(t, []string{"A, 99, 99"}, renderAll(got))
}

func TestRegistryFlushDropsAllBooks(t *testing.T) {
	registry := NewOrderBooks(false)
	var seq uint64
	registry.AddOrder(newOrder(&seq, 1, 10, 100, common.Buy, 1))

	registry.Flush()

	assert.Empty(t, registry.books)
	assert.Empty(t, registry.order)
}
