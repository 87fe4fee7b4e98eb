package adapter

import (
	"context"

	cartdomain "storefront/internal/service/cart/domain"
	"storefront/internal/service/order/port"
)

// CartStoreAdapter 把购物车仓储适配成编排器的出站端口。
type CartStoreAdapter struct {
	repo cartdomain.CartRepository
}

func NewCartStoreAdapter(repo cartdomain.CartRepository) *CartStoreAdapter {
	return &CartStoreAdapter{repo: repo}
}

func (a *CartStoreAdapter) Snapshot(ctx context.Context, userID string) ([]port.CartLine, error) {
	cart, err := a.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]port.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, port.CartLine{VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return lines, nil
}

func (a *CartStoreAdapter) Clear(ctx context.Context, userID string) error {
	return a.repo.Clear(ctx, userID)
}
