package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

type request struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func main() {
	// 1. CLI Parameter Parsing
	serverURL := flag.String("server", "ws://127.0.0.1:8080/ws", "Websocket URL of the exchange server")
	client := flag.String("client", "", "Client id (compulsory)")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'watch']")

	// Order Parameters
	symbol := flag.String("symbol", "AAPL", "Symbol to trade")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	price := flag.Float64("price", 100.0, "Limit price")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	// Cancel Parameters
	orderID := flag.String("order", "", "Id of the order to cancel")

	flag.Parse()

	if *client == "" && *action != "watch" {
		fmt.Println("Error: -client is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	// Connect to Server
	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverURL, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as '%s'\n", *serverURL, *client)

	done := make(chan struct{})
	go readEvents(conn, done)

	switch strings.ToLower(*action) {
	case "place":
		for _, qty := range parseQuantities(*qtyStr) {
			err := conn.WriteJSON(request{
				Action: "submitOrder",
				Data: map[string]any{
					"clientId": *client,
					"symbol":   *symbol,
					"price":    *price,
					"quantity": qty,
					"side":     strings.ToLower(*sideStr),
				},
			})
			if err != nil {
				log.Printf("Failed to place order (Qty: %d): %v", qty, err)
			}
		}
	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -order is required for cancel.")
		}
		err := conn.WriteJSON(request{
			Action: "cancelOrder",
			Data: map[string]any{
				"orderId":  *orderID,
				"clientId": *client,
			},
		})
		if err != nil {
			log.Printf("Failed to cancel order %s: %v", *orderID, err)
		}
	case "watch":
		err := conn.WriteJSON(request{Action: "subscribeMarketData"})
		if err != nil {
			log.Fatalf("Failed to subscribe: %v", err)
		}
	default:
		log.Fatalf("Unknown action %q", *action)
	}

	// Keep reading events until interrupted or the server goes away.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-interrupt:
	case <-done:
	}
}

func readEvents(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			log.Printf("Connection closed: %v", err)
			return
		}
		fmt.Printf("[%s] %s\n", ev.Type, string(ev.Data))
	}
}

func parseQuantities(qtyStr string) []uint64 {
	parts := strings.Split(qtyStr, ",")
	quantities := make([]uint64, 0, len(parts))
	for _, part := range parts {
		qty, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			log.Fatalf("Invalid quantity %q: %v", part, err)
		}
		quantities = append(quantities, qty)
	}
	return quantities
}
