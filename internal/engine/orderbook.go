package engine

import (
	"sync"

	. "skoll/internal/common"

	"github.com/tidwall/btree"
)

// PriceLevel is a single rung of a ladder: every open order resting at one
// price, FIFO in arrival order as they are push-back'd.
type PriceLevel struct {
	priceLevel float64
	orders     []*Order
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// OrderBook holds the resting buy and sell ladders for one symbol.
//
// Ladder invariant: every order present is open with quantity > 0. Bids are
// sorted greatest price first, asks least price first, and orders within a
// level keep their insertion order. An order leaves its ladder exactly when
// its quantity hits zero or it is cancelled.
type OrderBook struct {
	// Pointer to the owning engine, which books trades and flips
	// registry state on fills.
	engine *Engine

	symbol string

	// mu serializes matching and cancellation for this symbol. Books for
	// different symbols are independent and proceed in parallel.
	mu sync.Mutex

	bids *PriceLevels
	asks *PriceLevels
}

func newOrderBook(engine *Engine, symbol string) *OrderBook {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel > b.priceLevel
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel < b.priceLevel
	})
	return &OrderBook{
		engine: engine,
		symbol: symbol,
		bids:   bids,
		asks:   asks,
	}
}

// crosses reports whether a resting level at price is compatible with the
// incoming order's limit.
func crosses(incoming *Order, price float64) bool {
	if incoming.Side == Buy {
		return price <= incoming.LimitPrice
	}
	return price >= incoming.LimitPrice
}

// match sweeps the incoming order across the opposite ladder in
// price-time priority and rests any remainder on its own side.
//
// Trades always print at the resting order's price: the aggressor takes
// the passive side's price, never its own limit. Note that nothing stops
// an order from crossing with another order owned by the same client.
//
// The returned slice contains only the trades created by this call. The
// engine's trade log accumulates them separately for history queries.
//
// Callers must hold book.mu.
func (book *OrderBook) match(incoming *Order) []*Trade {
	opposite := book.asks
	if incoming.Side == Sell {
		opposite = book.bids
	}

	var trades []*Trade
	for incoming.Quantity > 0 {
		level, ok := opposite.MinMut()
		if !ok || !crosses(incoming, level.priceLevel) {
			break
		}

		// Consume the level front-to-back to preserve time priority.
		var idx int
		for idx < len(level.orders) && incoming.Quantity > 0 {
			resting := level.orders[idx]

			matchQty := min(incoming.Quantity, resting.Quantity)
			incoming.Quantity -= matchQty
			resting.Quantity -= matchQty

			trades = append(trades, book.engine.trade(incoming, resting, matchQty, level.priceLevel))

			if resting.Quantity == 0 {
				book.engine.fill(resting)
				idx++
			}
		}

		// Slice off fully consumed orders and drop the level once empty.
		if idx > 0 {
			level.orders = level.orders[idx:]
		}
		if len(level.orders) == 0 {
			opposite.Delete(level)
		}
	}

	if incoming.Quantity == 0 {
		book.engine.fill(incoming)
	} else {
		book.rest(incoming)
	}
	return trades
}

// rest places the unfilled remainder of an order onto its own side's
// ladder. New arrivals go behind existing orders at the same price, so
// FIFO time priority comes from stable insertion rather than re-sorting.
//
// Callers must hold book.mu.
func (book *OrderBook) rest(order *Order) {
	levels := book.bids
	if order.Side == Sell {
		levels = book.asks
	}

	// Levels comparator only accounts for price, so a dummy level is
	// enough for the search.
	level, ok := levels.GetMut(&PriceLevel{priceLevel: order.LimitPrice})
	if ok {
		level.orders = append(level.orders, order)
	} else {
		levels.Set(&PriceLevel{
			priceLevel: order.LimitPrice,
			orders:     []*Order{order},
		})
	}
}

// remove deletes a cancelled order from its ladder. A cancellation that
// leaves a stale book entry is a correctness bug, not a cosmetic one.
//
// Callers must hold book.mu. Removal is idempotent: an order already off
// the ladder (e.g. fully filled) is a no-op.
func (book *OrderBook) remove(order *Order) {
	levels := book.bids
	if order.Side == Sell {
		levels = book.asks
	}

	level, ok := levels.GetMut(&PriceLevel{priceLevel: order.LimitPrice})
	if !ok {
		return
	}
	for i, resting := range level.orders {
		if resting.UUID == order.UUID {
			level.orders = append(level.orders[:i], level.orders[i+1:]...)
			break
		}
	}
	if len(level.orders) == 0 {
		levels.Delete(level)
	}
}

// FlatPriceLevel is the exported, comparable view of a ladder rung used by
// depth queries and tests.
type FlatPriceLevel struct {
	PriceLevel float64
	Orders     []*Order
}

// Levels snapshots one side of the book in matching-priority order:
// descending price for bids, ascending for asks.
func (book *OrderBook) Levels(side Side) []FlatPriceLevel {
	book.mu.Lock()
	defer book.mu.Unlock()

	levels := book.bids
	if side == Sell {
		levels = book.asks
	}

	flat := make([]FlatPriceLevel, 0, levels.Len())
	levels.Scan(func(level *PriceLevel) bool {
		orders := make([]*Order, len(level.orders))
		copy(orders, level.orders)
		flat = append(flat, FlatPriceLevel{
			PriceLevel: level.priceLevel,
			Orders:     orders,
		})
		return true
	})
	return flat
}
