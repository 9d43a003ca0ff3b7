package engine

import (
	"sync"

	. "skoll/internal/common"
)

// TradeLog is the engine's durable trade history, kept separate from the
// per-call trade slices handed back to submitters. The log is bounded:
// once over capacity the oldest trades are dropped, so a long-lived engine
// does not grow without limit. A capacity of zero means unbounded.
type TradeLog struct {
	mu       sync.Mutex
	capacity int
	trades   []*Trade
}

func NewTradeLog(capacity int) *TradeLog {
	return &TradeLog{capacity: capacity}
}

func (l *TradeLog) Append(trade *Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = append(l.trades, trade)
	if l.capacity > 0 && len(l.trades) > l.capacity {
		overflow := len(l.trades) - l.capacity
		l.trades = append(l.trades[:0:0], l.trades[overflow:]...)
	}
}

// Snapshot returns the retained history in execution order.
func (l *TradeLog) Snapshot() []*Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *TradeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.trades)
}
