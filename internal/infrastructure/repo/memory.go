package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"restaurant-api/internal/domain"
)

type memoryOrder struct {
	order domain.Order
	items []domain.OrderItem
	seq   int
}

// MemoryStore keeps menu and orders in process. It implements the same gateway contract as the
// database-backed stores, one call per operation, and is used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	menu   map[string]domain.MenuItem
	orders map[string]*memoryOrder
	seq    int
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		menu:   make(map[string]domain.MenuItem),
		orders: make(map[string]*memoryOrder),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryStore) PutMenuItems(items ...domain.MenuItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range items {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		r.menu[m.ID] = m
	}
}

func (r *MemoryStore) FetchMenuItemsByIDs(_ context.Context, ids []string) ([]domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.MenuItem, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.menu[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MemoryStore) InsertOrder(_ context.Context, o *domain.Order) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	row := *o
	row.ID = uuid.NewString()
	row.CreatedAt = r.now()
	row.Items = nil
	r.orders[row.ID] = &memoryOrder{order: row, seq: r.seq}
	return row.ID, nil
}

// InsertOrderItems is all or nothing: every menu reference is checked before any row is stored,
// like a single multi-row insert with a foreign key.
func (r *MemoryStore) InsertOrderItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mo, ok := r.orders[orderID]
	if !ok {
		return domain.NewStoreError("insert order items", domain.ErrNotFound("order "+orderID))
	}
	rows := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		if _, ok := r.menu[it.MenuItemID]; !ok {
			return domain.NewStoreError("insert order items", domain.ErrNotFound("menu item "+it.MenuItemID))
		}
		it.ID = uuid.NewString()
		it.OrderID = orderID
		it.MenuItem = nil
		rows = append(rows, it)
	}
	mo.items = append(mo.items, rows...)
	return nil
}

func (r *MemoryStore) DeleteOrder(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, orderID)
	return nil
}

func (r *MemoryStore) FetchOrderWithItems(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mo, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound("order")
	}
	o := r.compose(mo, true)
	return &o, nil
}

func (r *MemoryStore) ListOrders(_ context.Context, f domain.OrderFilter, p domain.Page) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sorted(func(o *domain.Order) bool {
		return f.Status == "" || o.Status == f.Status
	})
	total := len(all)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	out := make([]domain.Order, 0, end-start)
	for _, mo := range all[start:end] {
		out = append(out, r.compose(mo, false))
	}
	return out, total, nil
}

func (r *MemoryStore) ListOrdersByPhone(_ context.Context, phone string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sorted(func(o *domain.Order) bool { return o.CustomerPhone == phone })
	out := make([]domain.Order, 0, len(all))
	for _, mo := range all {
		out = append(out, r.compose(mo, true))
	}
	return out, nil
}

func (r *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mo, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound("order")
	}
	mo.order.Status = status
	o := mo.order
	return &o, nil
}

// sorted returns matching orders newest first. Caller holds the lock.
func (r *MemoryStore) sorted(match func(*domain.Order) bool) []*memoryOrder {
	all := make([]*memoryOrder, 0, len(r.orders))
	for _, mo := range r.orders {
		if match(&mo.order) {
			all = append(all, mo)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].order.CreatedAt.Equal(all[j].order.CreatedAt) {
			return all[i].order.CreatedAt.After(all[j].order.CreatedAt)
		}
		return all[i].seq > all[j].seq
	})
	return all
}

// compose copies an order with its items, optionally joined with menu details. Caller holds the lock.
func (r *MemoryStore) compose(mo *memoryOrder, withMenu bool) domain.Order {
	o := mo.order
	o.Items = make([]domain.OrderItem, 0, len(mo.items))
	for _, it := range mo.items {
		if withMenu {
			if m, ok := r.menu[it.MenuItemID]; ok {
				price := m.Price
				it.MenuItem = &domain.MenuItemRef{Name: m.Name, Price: &price, Category: m.Category}
			}
		}
		o.Items = append(o.Items, it)
	}
	return o
}
