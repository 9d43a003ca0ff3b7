package common

import (
	"fmt"
	"time"
)

// Trade records a single match between a buy and a sell order. Trades are
// immutable once created and always reference two orders that were open at
// the moment of execution.
type Trade struct {
	UUID        string    `json:"tradeId"`
	BuyOrderID  string    `json:"buyOrderId"`
	SellOrderID string    `json:"sellOrderId"`
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	Quantity    uint64    `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`UUID:        %s
BuyOrderID:  %s
SellOrderID: %s
Symbol:      %s
Price:       %f
Quantity:    %d
Timestamp:   %v`,
		t.UUID,
		t.BuyOrderID,
		t.SellOrderID,
		t.Symbol,
		t.Price,
		t.Quantity,
		t.Timestamp.Format(time.RFC3339Nano),
	)
}
