package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("paid").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		in         Page
		want       Page
		wantOffset int
	}{
		{Page{}, Page{Page: 1, Limit: 50}, 0},
		{Page{Page: 3, Limit: 10}, Page{Page: 3, Limit: 10}, 20},
		{Page{Page: -2, Limit: 500}, Page{Page: 1, Limit: 100}, 0},
	}
	for _, tt := range tests {
		got := tt.in.Normalize()
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantOffset, got.Offset())
	}
}

func TestPage_TotalPages(t *testing.T) {
	p := Page{Page: 1, Limit: 50}
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(50))
	assert.Equal(t, 2, p.TotalPages(51))
}

func TestOrderItem_Subtotal(t *testing.T) {
	it := OrderItem{Price: decimal.RequireFromString("3.35"), Quantity: 3}
	assert.True(t, it.Subtotal().Equal(decimal.RequireFromString("10.05")))
}

func TestOrder_MarshalsMoneyAsNumber(t *testing.T) {
	o := Order{ID: "o1", TotalAmount: decimal.RequireFromString("13.50"), Status: OrderNew}
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"total_amount":13.5`)
	assert.NotContains(t, string(b), "order_items")
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "Menu item with id Z not found", ErrUnknownMenuItem("Z").Error())
	assert.Equal(t, "order not found", ErrNotFound("order").Error())

	wrapped := fmt.Errorf("fetch: %w", ErrNotFound("order"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("boom")))

	se := NewStoreError("insert order", errors.New("timeout"))
	assert.Equal(t, "insert order: timeout", se.Error())
	assert.Same(t, se, NewStoreError("other", se))
	assert.Nil(t, NewStoreError("noop", nil))

	orphan := &OrphanedOrderError{OrderID: "o1", Cause: se, Cleanup: errors.New("delete refused")}
	var got *StoreError
	assert.True(t, errors.As(orphan, &got))
	assert.Contains(t, orphan.Error(), "order o1 orphaned")
}

func TestUser_Profile(t *testing.T) {
	u := &User{ID: "u-1", Email: "chef@example.com", Role: RoleAdmin,
		Metadata: map[string]any{"first_name": "Ana", "role": "stale"}}
	assert.Equal(t, map[string]any{
		"id":         "u-1",
		"email":      "chef@example.com",
		"role":       "admin",
		"first_name": "Ana",
	}, u.Profile())
}
