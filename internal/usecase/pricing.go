package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"restaurant-api/internal/domain"
)

type PriceResolver struct {
	Menu MenuStore
}

// Resolve looks up the unit price of every requested menu item in one batched call.
// The first requested id missing from the menu fails the whole request with domain.ErrUnknownMenuItem.
func (r *PriceResolver) Resolve(ctx context.Context, items []domain.RequestedItem) (map[string]decimal.Decimal, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.MenuItemID]; ok {
			continue
		}
		seen[it.MenuItemID] = struct{}{}
		ids = append(ids, it.MenuItemID)
	}
	rows, err := r.Menu.FetchMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, domain.NewStoreError("fetch menu items", err)
	}
	prices := make(map[string]decimal.Decimal, len(rows))
	for _, m := range rows {
		prices[m.ID] = m.Price
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, domain.ErrUnknownMenuItem(id)
		}
	}
	return prices, nil
}

// CalculateTotal turns requested items into priced line items in input order and sums them exactly.
func CalculateTotal(items []domain.RequestedItem, prices map[string]decimal.Decimal) ([]domain.OrderItem, decimal.Decimal, error) {
	lines := make([]domain.OrderItem, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		price, ok := prices[it.MenuItemID]
		if !ok {
			return nil, decimal.Zero, domain.ErrUnknownMenuItem(it.MenuItemID)
		}
		if it.Quantity < 1 {
			return nil, decimal.Zero, domain.ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("quantity for %s must be at least 1", it.MenuItemID),
			}
		}
		line := domain.OrderItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Price:      price,
			Notes:      it.Notes,
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}
	return lines, total, nil
}
