package usecase

import (
	"context"

	"restaurant-api/internal/domain"
)

// MenuStore is the read-only view of the menu the pricing step needs.
type MenuStore interface {
	FetchMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error)
}

// OrderStore is the gateway to the order tables. Every method is a single call to the backing store;
// nothing here spans more than one write, which is why order creation runs as a saga.
//
// DeleteOrder removes the header and its items and must return nil when the order is already gone.
// FetchOrderWithItems and UpdateOrderStatus return domain.ErrNotFound for unknown ids.
type OrderStore interface {
	InsertOrder(ctx context.Context, o *domain.Order) (string, error)
	InsertOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error
	FetchOrderWithItems(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, f domain.OrderFilter, p domain.Page) ([]domain.Order, int, error)
	ListOrdersByPhone(ctx context.Context, phone string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.OrderEvent) error
}

// IdentityProvider resolves a bearer token against the hosted auth service.
type IdentityProvider interface {
	GetUser(ctx context.Context, token string) (*domain.User, error)
}

// UserAdmin creates accounts through the identity provider's admin interface.
type UserAdmin interface {
	CreateUser(ctx context.Context, u domain.NewStaffUser) (*domain.User, error)
}
