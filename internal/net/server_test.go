package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skoll/internal/engine"
	"skoll/internal/feed"
	"skoll/internal/registry"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

// receivedEvent mirrors Event with the payload left raw for inspection.
type receivedEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// startTestServer upgrades connections through the real handler with a
// single worker, so events arrive back in a deterministic order.
func startTestServer(t *testing.T) *websocket.Conn {
	t.Helper()

	reg := registry.New()
	eng := engine.New(reg, engine.NewTradeLog(0))
	marketFeed := feed.New([]string{"AAPL"}, time.Hour)
	server := New(":0", eng, marketFeed)

	var tb tomb.Tomb
	tb.Go(func() error {
		return server.worker(&tb)
	})

	httpServer := httptest.NewServer(http.HandlerFunc(server.handleUpgrade))
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		tb.Kill(nil)
		_ = tb.Wait()
		httpServer.Close()
	})
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) receivedEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event receivedEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func writeRequest(t *testing.T, conn *websocket.Conn, action string, data any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"action": action,
		"data":   data,
	}))
}

func TestServer_SubmitAndMatchOverWire(t *testing.T) {
	conn := startTestServer(t)

	// 1. Rest a bid.
	writeRequest(t, conn, "submitOrder", map[string]any{
		"clientId": "alice",
		"symbol":   "AAPL",
		"price":    100.0,
		"quantity": 10,
		"side":     "buy",
	})
	event := readEvent(t, conn)
	require.Equal(t, OrderSubmitted, event.Type)

	var bid struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(event.Data, &bid))
	assert.NotEmpty(t, bid.OrderID)
	assert.Equal(t, "open", bid.Status)

	// 2. Cross it with a sell; expect the submission ack then the trade.
	writeRequest(t, conn, "submitOrder", map[string]any{
		"clientId": "bob",
		"symbol":   "AAPL",
		"price":    100.0,
		"quantity": 10,
		"side":     "sell",
	})
	event = readEvent(t, conn)
	require.Equal(t, OrderSubmitted, event.Type)

	event = readEvent(t, conn)
	require.Equal(t, TradeExecuted, event.Type)
	var trade struct {
		BuyOrderID string  `json:"buyOrderId"`
		Price      float64 `json:"price"`
		Quantity   uint64  `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(event.Data, &trade))
	assert.Equal(t, bid.OrderID, trade.BuyOrderID)
	assert.Equal(t, 100.0, trade.Price)
	assert.Equal(t, uint64(10), trade.Quantity)
}

func TestServer_CancelOverWire(t *testing.T) {
	conn := startTestServer(t)

	writeRequest(t, conn, "submitOrder", map[string]any{
		"clientId": "alice",
		"symbol":   "AAPL",
		"price":    100.0,
		"quantity": 10,
		"side":     "buy",
	})
	event := readEvent(t, conn)
	require.Equal(t, OrderSubmitted, event.Type)
	var bid struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(event.Data, &bid))

	// A cancel by the wrong client is an error event; the right client
	// gets the orderCancelled ack; a repeat fails again.
	writeRequest(t, conn, "cancelOrder", map[string]any{
		"orderId":  bid.OrderID,
		"clientId": "mallory",
	})
	assert.Equal(t, ErrorEvent, readEvent(t, conn).Type)

	writeRequest(t, conn, "cancelOrder", map[string]any{
		"orderId":  bid.OrderID,
		"clientId": "alice",
	})
	event = readEvent(t, conn)
	require.Equal(t, OrderCancelled, event.Type)
	assert.JSONEq(t, `{"orderId":"`+bid.OrderID+`"}`, string(event.Data))

	writeRequest(t, conn, "cancelOrder", map[string]any{
		"orderId":  bid.OrderID,
		"clientId": "alice",
	})
	assert.Equal(t, ErrorEvent, readEvent(t, conn).Type)
}

func TestServer_RejectsBadFrames(t *testing.T) {
	conn := startTestServer(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, ErrorEvent, readEvent(t, conn).Type)

	writeRequest(t, conn, "selfDestruct", nil)
	assert.Equal(t, ErrorEvent, readEvent(t, conn).Type)

	// Invalid orders come back as error events, not dropped connections.
	writeRequest(t, conn, "submitOrder", map[string]any{
		"clientId": "alice",
		"symbol":   "AAPL",
		"price":    0.0,
		"quantity": 10,
		"side":     "buy",
	})
	assert.Equal(t, ErrorEvent, readEvent(t, conn).Type)
}
