package common

import (
	"fmt"
	"time"
)

type Order struct {
	UUID          string      `json:"orderId"`   // Order tracked uuid
	ClientID      string      `json:"clientId"`  // Who owns this order
	Symbol        string      `json:"symbol"`    // Specific asset identifier
	Side          Side        `json:"side"`      // Order side
	LimitPrice    float64     `json:"price"`     // Limiting price
	Quantity      uint64      `json:"quantity"`  // Remaining quantity
	TotalQuantity uint64      `json:"-"`         // Total volume requested
	Status        OrderStatus `json:"status"`    // Lifecycle state
	Timestamp     time.Time   `json:"timestamp"` // Time of arrival into the registry
}

func (order Order) String() string {
	return fmt.Sprintf(
		`UUID:       %v
ClientID:   %s
Symbol:     %s
Side:       %v
LimitPrice: %f
Quantity:   %d (Total: %d)
Status:     %v
Timestamp:  %v`,
		order.UUID,
		order.ClientID,
		order.Symbol,
		order.Side,
		order.LimitPrice,
		order.Quantity,
		order.TotalQuantity,
		order.Status,
		order.Timestamp.Format(time.RFC3339Nano),
	)
}
