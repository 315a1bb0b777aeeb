package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-api/internal/domain"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	s.PutMenuItems(
		domain.MenuItem{ID: "A", Name: "Margherita", Price: decimal.RequireFromString("5.00"), Category: "pizza", Available: true},
		domain.MenuItem{ID: "B", Name: "Lemonade", Price: decimal.RequireFromString("3.50"), Category: "drinks", Available: true},
	)
	return s
}

func insertOrder(t *testing.T, s *MemoryStore, phone string, status domain.OrderStatus) string {
	t.Helper()
	ctx := context.Background()
	id, err := s.InsertOrder(ctx, &domain.Order{CustomerName: "Jo", CustomerPhone: phone, Status: status,
		TotalAmount: decimal.RequireFromString("5.00")})
	require.NoError(t, err)
	require.NoError(t, s.InsertOrderItems(ctx, id, []domain.OrderItem{
		{MenuItemID: "A", Quantity: 1, Price: decimal.RequireFromString("5.00")},
	}))
	return id
}

func TestMemoryStore_FetchMenuItemsByIDs(t *testing.T) {
	s := seededStore(t)
	items, err := s.FetchMenuItemsByIDs(context.Background(), []string{"B", "Z", "A"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].ID)
	assert.Equal(t, "A", items[1].ID)
}

func TestMemoryStore_OrderRoundTrip(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	id := insertOrder(t, s, "+15551234567", domain.OrderNew)

	o, err := s.FetchOrderWithItems(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	assert.False(t, o.CreatedAt.IsZero())
	require.Len(t, o.Items, 1)
	assert.Equal(t, id, o.Items[0].OrderID)
	require.NotNil(t, o.Items[0].MenuItem)
	assert.Equal(t, "Margherita", o.Items[0].MenuItem.Name)
	assert.Equal(t, "pizza", o.Items[0].MenuItem.Category)
}

func TestMemoryStore_InsertOrderItemsIsAllOrNothing(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	id, err := s.InsertOrder(ctx, &domain.Order{CustomerName: "Jo", Status: domain.OrderNew})
	require.NoError(t, err)

	err = s.InsertOrderItems(ctx, id, []domain.OrderItem{
		{MenuItemID: "A", Quantity: 1, Price: decimal.RequireFromString("5.00")},
		{MenuItemID: "gone", Quantity: 1, Price: decimal.RequireFromString("1.00")},
	})
	require.Error(t, err)
	var se *domain.StoreError
	assert.ErrorAs(t, err, &se)

	o, err := s.FetchOrderWithItems(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, o.Items)
}

func TestMemoryStore_DeleteOrderIsIdempotent(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	id := insertOrder(t, s, "+15551234567", domain.OrderNew)

	require.NoError(t, s.DeleteOrder(ctx, id))
	require.NoError(t, s.DeleteOrder(ctx, id))

	_, err := s.FetchOrderWithItems(ctx, id)
	assert.True(t, domain.IsNotFound(err))
}

func TestMemoryStore_ListOrders(t *testing.T) {
	s := seededStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	first := insertOrder(t, s, "1", domain.OrderNew)
	second := insertOrder(t, s, "2", domain.OrderReady)
	third := insertOrder(t, s, "3", domain.OrderNew)

	tests := []struct {
		name      string
		filter    domain.OrderFilter
		page      domain.Page
		wantIDs   []string
		wantTotal int
	}{
		{"newest first", domain.OrderFilter{}, domain.Page{Page: 1, Limit: 50}, []string{third, second, first}, 3},
		{"second page", domain.OrderFilter{}, domain.Page{Page: 2, Limit: 2}, []string{first}, 3},
		{"past the end", domain.OrderFilter{}, domain.Page{Page: 5, Limit: 2}, []string{}, 3},
		{"status filter", domain.OrderFilter{Status: domain.OrderNew}, domain.Page{Page: 1, Limit: 50}, []string{third, first}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, total, err := s.ListOrders(context.Background(), tt.filter, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			ids := []string{}
			for _, o := range orders {
				ids = append(ids, o.ID)
				assert.Len(t, o.Items, 1)
				assert.Nil(t, o.Items[0].MenuItem)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMemoryStore_ListOrdersByPhoneAndUpdateStatus(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	id := insertOrder(t, s, "+15551234567", domain.OrderNew)
	insertOrder(t, s, "+15550000000", domain.OrderNew)

	orders, err := s.ListOrdersByPhone(ctx, "+15551234567")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)

	o, err := s.UpdateOrderStatus(ctx, id, domain.OrderPreparing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPreparing, o.Status)

	_, err = s.UpdateOrderStatus(ctx, "missing", domain.OrderReady)
	assert.True(t, domain.IsNotFound(err))
}
