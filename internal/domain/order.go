package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as a JSON number, the way the hosted store returns numeric columns.
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderStatus string

const (
	OrderNew       OrderStatus = "new"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{OrderNew, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// MenuItemRef is the slice of a menu row embedded into order items on the read path.
// Price and Category are omitted where the caller only asked for the name.
type MenuItemRef struct {
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Category string           `json:"category,omitempty"`
}

type OrderItem struct {
	ID         string          `json:"id,omitempty"`
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Notes      *string         `json:"notes"`
	MenuItem   *MenuItemRef    `json:"menu_item,omitempty"`
}

// Subtotal is the unit price captured at order time multiplied by the quantity.
func (it OrderItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Order struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail *string         `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	PickupTime    time.Time       `json:"pickup_time"`
	Notes         *string         `json:"notes"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItem     `json:"order_items,omitempty"`
}

// RequestedItem is one line of an incoming order before prices are known.
type RequestedItem struct {
	MenuItemID string
	Quantity   int
	Notes      *string
}

type OrderRequest struct {
	CustomerName  string
	CustomerEmail *string
	CustomerPhone string
	PickupTime    time.Time
	Notes         *string
	Items         []RequestedItem
}

type OrderFilter struct {
	Status OrderStatus
}

type Page struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages rounds up; zero rows still report zero pages.
func (p Page) TotalPages(total int) int {
	if p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
