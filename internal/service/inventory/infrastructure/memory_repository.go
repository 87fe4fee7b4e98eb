package infrastructure

import (
	"context"
	"sync"
	"time"

	"storefront/internal/service/inventory/domain"
)

// MemoryStockRepository 是 StockRepository 的进程内实现，
// 语义和 MySQL 版完全一致，用于测试和本地启动。
type MemoryStockRepository struct {
	mu     sync.Mutex
	stocks map[string]*domain.VariantStock
}

func NewMemoryStockRepository() *MemoryStockRepository {
	return &MemoryStockRepository{stocks: make(map[string]*domain.VariantStock)}
}

// Seed 写入初始库存，仅供装配阶段和测试使用。
func (r *MemoryStockRepository) Seed(variantID string, quantity, reserved int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[variantID] = &domain.VariantStock{
		VariantID: variantID,
		Quantity:  quantity,
		Reserved:  reserved,
	}
}

func (r *MemoryStockRepository) Reserve(ctx context.Context, variantID string, qty int64) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	if s.Available() < qty {
		return domain.ErrInsufficientStock
	}
	s.Reserved += qty
	return nil
}

func (r *MemoryStockRepository) Release(ctx context.Context, variantID string, qty int64) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	s.Reserved -= qty
	if s.Reserved < 0 {
		s.Reserved = 0
	}
	return nil
}

func (r *MemoryStockRepository) Commit(ctx context.Context, variantID string, qty int64) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	if qty > s.Reserved {
		return domain.ErrInvalidState
	}
	s.Quantity -= qty
	s.Reserved -= qty
	return nil
}

func (r *MemoryStockRepository) Restock(ctx context.Context, variantID string, delta int64) error {
	if delta < 1 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	s.Quantity += delta
	s.LastRestockedAt = time.Now()
	return nil
}

func (r *MemoryStockRepository) Get(ctx context.Context, variantID string) (*domain.VariantStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	copied := *s
	return &copied, nil
}

// MemoryVariantRepository 是 VariantRepository 的进程内实现。
type MemoryVariantRepository struct {
	mu       sync.RWMutex
	variants map[string]*domain.Variant
}

func NewMemoryVariantRepository() *MemoryVariantRepository {
	return &MemoryVariantRepository{variants: make(map[string]*domain.Variant)}
}

func (r *MemoryVariantRepository) Seed(v *domain.Variant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *v
	r.variants[v.ID] = &copied
}

func (r *MemoryVariantRepository) FindByID(ctx context.Context, variantID string) (*domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	copied := *v
	return &copied, nil
}
