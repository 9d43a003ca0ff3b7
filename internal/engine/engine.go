package engine

import (
	"fmt"
	"sync"
	"time"

	. "skoll/internal/common"
	"skoll/internal/registry"

	"github.com/google/uuid"
)

// This is the main matching engine. It owns one order book per symbol and
// updates the order registry as fills complete. Accepting an order,
// matching it and updating registry and book is one run-to-completion unit
// under the symbol's lock; no I/O happens inside that critical section.

type Engine struct {
	registry *registry.Registry
	log      *TradeLog

	mu    sync.RWMutex
	books map[string]*OrderBook
}

func New(reg *registry.Registry, log *TradeLog) *Engine {
	return &Engine{
		registry: reg,
		log:      log,
		books:    make(map[string]*OrderBook),
	}
}

// Book returns the order book for symbol, creating it on first use.
func (engine *Engine) Book(symbol string) *OrderBook {
	engine.mu.RLock()
	book, ok := engine.books[symbol]
	engine.mu.RUnlock()
	if ok {
		return book
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if book, ok = engine.books[symbol]; !ok {
		book = newOrderBook(engine, symbol)
		engine.books[symbol] = book
	}
	return book
}

// SubmitOrder creates the order and runs matching against its symbol's
// book. It returns the order in its post-match state together with the
// trades produced by this call only.
func (engine *Engine) SubmitOrder(clientID, symbol string, price float64, quantity uint64, side Side) (*Order, []*Trade, error) {
	order, err := engine.registry.Create(clientID, symbol, price, quantity, side)
	if err != nil {
		return nil, nil, err
	}

	book := engine.Book(symbol)
	book.mu.Lock()
	trades := book.match(order)
	book.mu.Unlock()

	return order, trades, nil
}

// CancelOrder cancels an open order owned by clientID and removes it from
// its ladder. The registry check runs under the book lock so a cancel
// observes every matching step that finished before it.
func (engine *Engine) CancelOrder(orderID, clientID string) error {
	order, ok := engine.registry.Get(orderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}

	book := engine.Book(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	if _, err := engine.registry.Cancel(orderID, clientID); err != nil {
		return err
	}
	book.remove(order)
	return nil
}

// OpenOrders snapshots every order still open across all symbols.
func (engine *Engine) OpenOrders() []*Order {
	return engine.registry.OpenOrders()
}

// Trades returns the retained trade history for audit queries.
func (engine *Engine) Trades() []*Trade {
	return engine.log.Snapshot()
}

// Depth returns one side of a symbol's book for depth-of-book queries.
func (engine *Engine) Depth(symbol string, side Side) []FlatPriceLevel {
	return engine.Book(symbol).Levels(side)
}

// trade books a single match between the aggressor and a resting order.
func (engine *Engine) trade(incoming, resting *Order, quantity uint64, price float64) *Trade {
	buyID, sellID := incoming.UUID, resting.UUID
	if incoming.Side == Sell {
		buyID, sellID = resting.UUID, incoming.UUID
	}

	trade := &Trade{
		UUID:        uuid.New().String(),
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Symbol:      incoming.Symbol,
		Price:       price,
		Quantity:    quantity,
		Timestamp:   time.Now(),
	}
	engine.log.Append(trade)
	return trade
}

// fill marks an order whose quantity reached zero as filled.
func (engine *Engine) fill(order *Order) {
	engine.registry.UpdateStatus(order.UUID, Filled)
}
