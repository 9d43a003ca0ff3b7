package common

import (
	"encoding/json"
	"fmt"
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Opposite returns the counterparty side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide converts the wire form ("buy" | "sell") back into a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	side, err := ParseSide(raw)
	if err != nil {
		return err
	}
	*s = side
	return nil
}

type OrderStatus int

const (
	Open OrderStatus = iota
	Filled
	Cancelled
)

func (s OrderStatus) String() string {
	switch s {
	case Open:
		return "open"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

// Terminal reports whether no further transitions are allowed out of s.
// Filled and cancelled orders never reopen.
func (s OrderStatus) Terminal() bool {
	return s == Filled || s == Cancelled
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "open":
		*s = Open
	case "filled":
		*s = Filled
	case "cancelled":
		*s = Cancelled
	default:
		return fmt.Errorf("unknown order status %q", raw)
	}
	return nil
}
