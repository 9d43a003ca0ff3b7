package net

import (
	"encoding/json"
	"errors"
	"fmt"

	. "skoll/internal/common"
	"skoll/internal/feed"
)

var (
	ErrUnknownAction    = errors.New("unknown action")
	ErrMalformedRequest = errors.New("malformed request")
)

type Action string

const (
	SubmitOrder         Action = "submitOrder"
	CancelOrder         Action = "cancelOrder"
	SubscribeMarketData Action = "subscribeMarketData"
)

// Request is the inbound frame: an action tag plus an action-specific
// payload, decoded in two steps so unknown actions fail before their
// payload is touched.
type Request struct {
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type SubmitOrderRequest struct {
	ClientID string  `json:"clientId"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Quantity uint64  `json:"quantity"`
	Side     Side    `json:"side"`
}

type CancelOrderRequest struct {
	OrderID  string `json:"orderId"`
	ClientID string `json:"clientId"`
}

func parseRequest(raw []byte) (Request, error) {
	var request Request
	if err := json.Unmarshal(raw, &request); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	switch request.Action {
	case SubmitOrder, CancelOrder, SubscribeMarketData:
		return request, nil
	}
	return Request{}, fmt.Errorf("%w: %q", ErrUnknownAction, request.Action)
}

func (r Request) submitOrder() (SubmitOrderRequest, error) {
	var payload SubmitOrderRequest
	if err := json.Unmarshal(r.Data, &payload); err != nil {
		return SubmitOrderRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return payload, nil
}

func (r Request) cancelOrder() (CancelOrderRequest, error) {
	var payload CancelOrderRequest
	if err := json.Unmarshal(r.Data, &payload); err != nil {
		return CancelOrderRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return payload, nil
}

type EventType string

const (
	OrderSubmitted EventType = "orderSubmitted"
	TradeExecuted  EventType = "tradeExecuted"
	OrderCancelled EventType = "orderCancelled"
	MarketData     EventType = "marketData"
	ErrorEvent     EventType = "error"
)

// Event is the outbound frame: a type tag plus the Order, Trade, tick or
// error message it carries.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

func orderSubmittedEvent(order *Order) Event {
	return Event{Type: OrderSubmitted, Data: order}
}

func tradeExecutedEvent(trade *Trade) Event {
	return Event{Type: TradeExecuted, Data: trade}
}

func orderCancelledEvent(orderID string) Event {
	return Event{
		Type: OrderCancelled,
		Data: map[string]string{"orderId": orderID},
	}
}

func marketDataEvent(tick feed.Tick) Event {
	return Event{Type: MarketData, Data: tick}
}

func errorEvent(err error) Event {
	return Event{Type: ErrorEvent, Data: err.Error()}
}
