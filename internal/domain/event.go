package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

type OrderEvent struct {
	Type          EventType       `json:"type"`
	OrderID       string          `json:"order_id"`
	Status        OrderStatus     `json:"status"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PickupTime    time.Time       `json:"pickup_time"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewOrderEvent(t EventType, o *Order) OrderEvent {
	return OrderEvent{
		Type:          t,
		OrderID:       o.ID,
		Status:        o.Status,
		CustomerPhone: o.CustomerPhone,
		TotalAmount:   o.TotalAmount,
		PickupTime:    o.PickupTime,
		OccurredAt:    time.Now().UTC(),
	}
}
