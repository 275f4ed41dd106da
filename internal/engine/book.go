// Package engine implements the per-symbol limit order book and the
// symbol registry that dispatches to it.
package engine

import (
	"fmt"

	"driftbook/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
)

// priceLevel is one occupied price on one side of a book: a FIFO queue of
// resting orders, stored as an intrusive doubly-linked list over the
// book's slot arena so append is O(1) and removal-by-handle never
// requires a scan.
type priceLevel struct {
	price uint64
	head  int32 // arena index of the oldest order, -1 if empty
	tail  int32 // arena index of the newest order, -1 if empty
	count int
	qty   uint64 // aggregate resting quantity at this level
}

// orderSlot is one arena-resident resting order.
type orderSlot struct {
	user        uint64
	userOrderID uint64
	price       uint64
	qty         uint64
	arrival     uint64
	side        common.Side
	prev, next  int32
	level       *priceLevel
}

type orderKey struct {
	user        uint64
	userOrderID uint64
}

// PriceLevels is the ordered map from price to priceLevel used by each
// side of a book, grounded on fenrir/internal/engine/orderbook.go's
// `PriceLevels = btree.BTreeG[*PriceLevel]` alias.
type PriceLevels = btree.BTreeG[*priceLevel]

// OrderBook is the price-time priority book for a single symbol.
type OrderBook struct {
	symbol         string
	tradingEnabled bool

	bids *PriceLevels // best = highest price
	asks *PriceLevels // best = lowest price

	arena []orderSlot
	free  []int32
	index map[orderKey]int32
}

// NewOrderBook constructs an empty book for symbol.
func NewOrderBook(symbol string, tradingEnabled bool) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price > b.price
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price < b.price
	})
	return &OrderBook{
		symbol:         symbol,
		tradingEnabled: tradingEnabled,
		bids:           bids,
		asks:           asks,
		index:          make(map[orderKey]int32),
	}
}

func (b *OrderBook) treeFor(side common.Side) *PriceLevels {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

func opposite(side common.Side) common.Side {
	if side == common.Buy {
		return common.Sell
	}
	return common.Buy
}

func (b *OrderBook) topOf(side common.Side) common.TopOfBook {
	lvl, ok := b.treeFor(side).MinMut()
	if !ok {
		return common.TopOfBook{Side: side}
	}
	price, qty := lvl.price, lvl.qty
	return common.TopOfBook{Side: side, Price: &price, TotalQuantity: &qty}
}

// crosses implements the Crossing Rule: a new buy crosses when the ask
// book is non-empty and its price meets or exceeds the lowest ask; a new
// sell crosses when the bid book is non-empty and its price meets or
// undercuts the highest bid.
func (b *OrderBook) crosses(o common.NewOrder) bool {
	switch o.Side {
	case common.Buy:
		lvl, ok := b.asks.MinMut()
		return ok && o.Price >= lvl.price
	case common.Sell:
		lvl, ok := b.bids.MinMut()
		return ok && o.Price <= lvl.price
	default:
		return false
	}
}

// AddOrder is the book's entry point for a New-Order request. Invalid
// side or zero quantity reaching the core is a programming error in the
// ingress adapter: it is logged and then panics, never silently ignored.
func (b *OrderBook) AddOrder(o common.NewOrder) []common.OrderResult {
	if !o.Side.Valid() {
		log.Error().Str("symbol", b.symbol).Str("side", o.Side.String()).Msg("invalid order side reached the core")
		panic(fmt.Sprintf("engine: invalid side %q for order %d/%d", o.Side, o.User, o.UserOrderID))
	}
	if o.Qty == 0 {
		log.Error().Str("symbol", b.symbol).Msg("zero quantity order reached the core")
		panic(fmt.Sprintf("engine: zero quantity for order %d/%d", o.User, o.UserOrderID))
	}

	if b.crosses(o) {
		if !b.tradingEnabled {
			return []common.OrderResult{common.Rejection{User: o.User, UserOrderID: o.UserOrderID}}
		}
		return b.match(o)
	}
	return b.insert(o)
}

// insert appends a non-crossing order to the correct side and reports a
// TopOfBookChange only if the side's best price/quantity actually moved.
func (b *OrderBook) insert(o common.NewOrder) []common.OrderResult {
	before := b.topOf(o.Side)

	tree := b.treeFor(o.Side)
	lvl := b.levelFor(tree, o.Price)
	idx := b.newSlot(o, lvl)
	b.appendToLevel(lvl, idx)
	b.index[orderKey{o.User, o.UserOrderID}] = idx

	results := []common.OrderResult{common.Acknowledgement{User: o.User, UserOrderID: o.UserOrderID}}
	after := b.topOf(o.Side)
	if !before.Equal(after) {
		results = append(results, after.ToResult())
	}
	return results
}

// match runs the Matching Procedure for a crossing order when trading is
// enabled: it searches for exactly one equal-quantity resting order on
// the opposite side, consumes it if found, and never inserts the
// incoming order — this also applies when no equal-quantity counterpart
// exists (spec §9 open question 2): only the acknowledgement is emitted.
func (b *OrderBook) match(o common.NewOrder) []common.OrderResult {
	results := []common.OrderResult{common.Acknowledgement{User: o.User, UserOrderID: o.UserOrderID}}

	oppSide := opposite(o.Side)
	before := b.topOf(oppSide)

	idx, found := b.findMatch(o)
	if !found {
		return results
	}

	matched := b.arena[idx]
	lvl := matched.level
	tree := b.treeFor(oppSide)
	b.removeFromLevel(lvl, idx)
	if lvl.count == 0 {
		tree.Delete(lvl)
	}
	delete(b.index, orderKey{matched.user, matched.userOrderID})
	b.freeSlot(idx)

	var trade common.Trade
	if o.Side == common.Buy {
		trade = common.Trade{
			UserBuy: o.User, UserOrderIDBuy: o.UserOrderID,
			UserSell: matched.user, UserOrderIDSell: matched.userOrderID,
			Price: matched.price, Qty: matched.qty,
		}
	} else {
		trade = common.Trade{
			UserBuy: matched.user, UserOrderIDBuy: matched.userOrderID,
			UserSell: o.User, UserOrderIDSell: o.UserOrderID,
			Price: matched.price, Qty: matched.qty,
		}
	}
	results = append(results, trade)

	log.Debug().
		Str("symbol", b.symbol).
		Str("trade_id", uuid.New().String()).
		Uint64("price", trade.Price).
		Uint64("qty", trade.Qty).
		Msg("trade executed")

	after := b.topOf(oppSide)
	if !before.Equal(after) {
		results = append(results, after.ToResult())
	}
	return results
}

// findMatch scans the opposite side in match-favorable order (ascending
// ask price for an incoming buy, descending bid price for an incoming
// sell), constrained to prices that still cross, and within a price
// level in arrival order, for the first resting order whose quantity
// exactly equals the incoming order's quantity.
func (b *OrderBook) findMatch(o common.NewOrder) (int32, bool) {
	tree := b.treeFor(opposite(o.Side))
	found := int32(-1)

	tree.Scan(func(lvl *priceLevel) bool {
		switch o.Side {
		case common.Buy:
			if lvl.price > o.Price {
				return false // further levels only get more expensive asks
			}
		case common.Sell:
			if lvl.price < o.Price {
				return false // further levels only get lower bids
			}
		}
		for i := lvl.head; i != -1; i = b.arena[i].next {
			if b.arena[i].qty == o.Qty {
				found = i
				return false
			}
		}
		return true
	})

	return found, found != -1
}

// CancelOrder removes the resting order identified by c, if this book
// holds it. A direct handle lookup replaces the source's two-sweep scan
// (spec §9 redesign note) while preserving the same observable event: at
// most one TopOfBookChange, since an id can rest on only one side of one
// book at a time.
func (b *OrderBook) CancelOrder(c common.CancelOrder) []common.OrderResult {
	idx, ok := b.index[orderKey{c.User, c.UserOrderID}]
	if !ok {
		return nil
	}

	slot := b.arena[idx]
	side := slot.side
	before := b.topOf(side)

	lvl := slot.level
	tree := b.treeFor(side)
	b.removeFromLevel(lvl, idx)
	if lvl.count == 0 {
		tree.Delete(lvl)
	}
	delete(b.index, orderKey{slot.user, slot.userOrderID})
	b.freeSlot(idx)

	after := b.topOf(side)
	if before.Equal(after) {
		return nil
	}
	return []common.OrderResult{after.ToResult()}
}

func (b *OrderBook) levelFor(tree *PriceLevels, price uint64) *priceLevel {
	if lvl, ok := tree.GetMut(&priceLevel{price: price}); ok {
		return lvl
	}
	lvl := &priceLevel{price: price, head: -1, tail: -1}
	tree.Set(lvl)
	return lvl
}

func (b *OrderBook) appendToLevel(lvl *priceLevel, idx int32) {
	n := &b.arena[idx]
	n.prev = lvl.tail
	n.next = -1
	if lvl.tail != -1 {
		b.arena[lvl.tail].next = idx
	} else {
		lvl.head = idx
	}
	lvl.tail = idx
	lvl.count++
	lvl.qty += n.qty
}

func (b *OrderBook) removeFromLevel(lvl *priceLevel, idx int32) {
	n := &b.arena[idx]
	if n.prev != -1 {
		b.arena[n.prev].next = n.next
	} else {
		lvl.head = n.next
	}
	if n.next != -1 {
		b.arena[n.next].prev = n.prev
	} else {
		lvl.tail = n.prev
	}
	lvl.count--
	lvl.qty -= n.qty
}

func (b *OrderBook) newSlot(o common.NewOrder, lvl *priceLevel) int32 {
	s := orderSlot{
		user: o.User, userOrderID: o.UserOrderID,
		price: o.Price, qty: o.Qty, arrival: o.TimeReceived,
		side: o.Side, level: lvl,
	}
	if n := len(b.free); n > 0 {
		idx := b.free[n-1]
		b.free = b.free[:n-1]
		b.arena[idx] = s
		return idx
	}
	b.arena = append(b.arena, s)
	return int32(len(b.arena) - 1)
}

func (b *OrderBook) freeSlot(idx int32) {
	b.arena[idx] = orderSlot{}
	b.free = append(b.free, idx)
}
