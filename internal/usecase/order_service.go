package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-api/internal/domain"
	"restaurant-api/internal/logger"
)

type OrderService struct {
	Store  OrderStore
	Menu   MenuStore
	Events EventPublisher
	Log    *slog.Logger

	// CompensationTimeout bounds the cleanup delete after a failed line item write.
	CompensationTimeout time.Duration
}

// Create places an order: prices are resolved from the menu, the header is written with status new and
// the computed total, then the line items are written in one batch. If the batch fails the header is
// deleted again and the batch error is returned; if that delete fails too the result is an
// *domain.OrphanedOrderError naming the order left behind.
func (s *OrderService) Create(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	log := s.log(ctx)
	if len(req.Items) == 0 {
		return nil, domain.ValidationError{Field: "items", Message: "at least one item is required"}
	}

	var (
		order   *domain.Order
		lines   []domain.OrderItem
		orderID string
	)
	resolver := &PriceResolver{Menu: s.Menu}

	sg := newSaga(s.CompensationTimeout)
	sg.onUndo = func(step string, err error) {
		if err != nil {
			return
		}
		log.Warn("order header removed after line item failure",
			"action", "order_compensated", "order_id", orderID, "step", step)
	}
	sg.step("resolve_prices", func(ctx context.Context) error {
		prices, err := resolver.Resolve(ctx, req.Items)
		if err != nil {
			return err
		}
		var total decimal.Decimal
		lines, total, err = CalculateTotal(req.Items, prices)
		if err != nil {
			return err
		}
		order = &domain.Order{
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			PickupTime:    req.PickupTime.UTC(),
			Notes:         req.Notes,
			TotalAmount:   total,
			Status:        domain.OrderNew,
		}
		return nil
	}, nil)
	sg.step("insert_order", func(ctx context.Context) error {
		id, err := s.Store.InsertOrder(ctx, order)
		if err != nil {
			return domain.NewStoreError("insert order", err)
		}
		orderID = id
		return nil
	}, func(ctx context.Context) error {
		return s.Store.DeleteOrder(ctx, orderID)
	})
	sg.step("insert_order_items", func(ctx context.Context) error {
		for i := range lines {
			lines[i].OrderID = orderID
		}
		return domain.NewStoreError("insert order items", s.Store.InsertOrderItems(ctx, orderID, lines))
	}, nil)

	if err := sg.execute(ctx); err != nil {
		var ce *CompensationError
		if errors.As(err, &ce) {
			orphan := &domain.OrphanedOrderError{OrderID: orderID, Cause: ce.Err, Cleanup: ce.CompensateErr}
			log.Error("order header could not be removed after line item failure",
				"action", "order_orphaned", "order_id", orderID, "error", orphan.Error())
			return nil, orphan
		}
		return nil, err
	}

	created, err := s.Store.FetchOrderWithItems(ctx, orderID)
	if err != nil {
		log.Error("order committed but read-back failed",
			"action", "order_readback_failed", "order_id", orderID, "error", err.Error())
		return nil, domain.NewStoreError("read back order "+orderID, err)
	}
	log.Info("order created",
		"action", "order_created", "order_id", orderID,
		"total_amount", created.TotalAmount.StringFixed(2), "items", len(created.Items))
	s.publish(ctx, domain.EventOrderCreated, created)
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.Store.FetchOrderWithItems(ctx, id)
}

func (s *OrderService) List(ctx context.Context, f domain.OrderFilter, p domain.Page) ([]domain.Order, int, domain.Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, p, domain.ValidationError{Field: "status", Message: "invalid status"}
	}
	p = p.Normalize()
	orders, total, err := s.Store.ListOrders(ctx, f, p)
	if err != nil {
		return nil, 0, p, err
	}
	return orders, total, p, nil
}

// ListByPhone is the public customer lookup; menu details are reduced to the item name.
func (s *OrderService) ListByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, domain.ValidationError{Field: "phone", Message: "phone is required"}
	}
	orders, err := s.Store.ListOrdersByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		for j := range orders[i].Items {
			if ref := orders[i].Items[j].MenuItem; ref != nil {
				orders[i].Items[j].MenuItem = &domain.MenuItemRef{Name: ref.Name}
			}
		}
	}
	return orders, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ValidationError{Field: "status", Message: "invalid status"}
	}
	o, err := s.Store.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("order status changed",
		"action", "order_status_changed", "order_id", id, "status", string(status))
	s.publish(ctx, domain.EventOrderStatusChanged, o)
	return o, nil
}

// publish never fails the caller; the order is already committed.
func (s *OrderService) publish(ctx context.Context, t domain.EventType, o *domain.Order) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, domain.NewOrderEvent(t, o)); err != nil {
		s.log(ctx).Warn("order event not published",
			"action", "event_publish_failed", "order_id", o.ID, "event", string(t), "error", err.Error())
	}
}

func (s *OrderService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.Log)
}
