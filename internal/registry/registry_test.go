package registry

import (
	"testing"

	. "skoll/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_AssignsIdentityAndState(t *testing.T) {
	reg := New()

	order, err := reg.Create("alice", "AAPL", 100.0, 10, Buy)
	require.NoError(t, err)

	assert.NotEmpty(t, order.UUID)
	assert.Equal(t, Open, order.Status)
	assert.Equal(t, uint64(10), order.Quantity)
	assert.Equal(t, uint64(10), order.TotalQuantity)
	assert.False(t, order.Timestamp.IsZero())

	// The registry hands back the same record, not a copy.
	got, ok := reg.Get(order.UUID)
	require.True(t, ok)
	assert.Same(t, order, got)

	other, err := reg.Create("alice", "AAPL", 100.0, 10, Buy)
	require.NoError(t, err)
	assert.NotEqual(t, order.UUID, other.UUID)
}

func TestCreate_RejectsInvalidOrders(t *testing.T) {
	reg := New()

	for _, tc := range []struct {
		name  string
		price float64
		qty   uint64
	}{
		{"zero price", 0, 10},
		{"negative price", -1.0, 10},
		{"zero quantity", 100.0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Create("alice", "AAPL", tc.price, tc.qty, Buy)
			assert.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
	assert.Empty(t, reg.OpenOrders(), "rejected orders are never registered")
}

func TestCancel_Lifecycle(t *testing.T) {
	reg := New()

	order, err := reg.Create("alice", "AAPL", 100.0, 10, Buy)
	require.NoError(t, err)

	// Wrong owner, then wrong id, then success, then already terminal.
	_, err = reg.Cancel(order.UUID, "bob")
	assert.ErrorIs(t, err, ErrUnauthorizedCancel)
	assert.Equal(t, Open, order.Status)

	_, err = reg.Cancel("missing", "alice")
	assert.ErrorIs(t, err, ErrUnknownOrder)

	cancelled, err := reg.Cancel(order.UUID, "alice")
	require.NoError(t, err)
	assert.Same(t, order, cancelled)
	assert.Equal(t, Cancelled, order.Status)

	_, err = reg.Cancel(order.UUID, "alice")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancel_FilledOrderIsInvalidState(t *testing.T) {
	reg := New()

	order, err := reg.Create("alice", "AAPL", 100.0, 10, Buy)
	require.NoError(t, err)
	require.True(t, reg.UpdateStatus(order.UUID, Filled))

	_, err = reg.Cancel(order.UUID, "alice")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, Filled, order.Status)
}

func TestOpenOrders_FiltersTerminalStates(t *testing.T) {
	reg := New()

	open, err := reg.Create("alice", "AAPL", 100.0, 10, Buy)
	require.NoError(t, err)
	filled, err := reg.Create("alice", "AAPL", 101.0, 10, Buy)
	require.NoError(t, err)
	cancelled, err := reg.Create("alice", "AAPL", 102.0, 10, Buy)
	require.NoError(t, err)

	reg.UpdateStatus(filled.UUID, Filled)
	_, err = reg.Cancel(cancelled.UUID, "alice")
	require.NoError(t, err)

	snapshot := reg.OpenOrders()
	require.Len(t, snapshot, 1)
	assert.Same(t, open, snapshot[0])
}

func TestUpdateStatus_UnknownIDFailsSilently(t *testing.T) {
	reg := New()

	assert.False(t, reg.UpdateStatus("missing", Filled))
}
