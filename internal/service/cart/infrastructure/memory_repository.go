package infrastructure

import (
	"context"
	"sync"

	"storefront/internal/service/cart/domain"
)

// MemoryCartRepository 是 CartRepository 的进程内实现，测试和本地启动用。
type MemoryCartRepository struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*domain.Cart)}
}

func (r *MemoryCartRepository) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return &domain.Cart{UserID: userID}, nil
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (r *MemoryCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = &copied
	return nil
}

func (r *MemoryCartRepository) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}
