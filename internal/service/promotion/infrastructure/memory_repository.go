package infrastructure

import (
	"context"
	"sync"

	"storefront/internal/service/promotion/domain"
)

// MemoryDiscountRepository 是 DiscountRepository 的进程内实现，测试用。
type MemoryDiscountRepository struct {
	mu        sync.Mutex
	discounts map[string]*domain.Discount
	global    map[string]int64
	perUser   map[string]int64 // key: code + "/" + userID
}

func NewMemoryDiscountRepository() *MemoryDiscountRepository {
	return &MemoryDiscountRepository{
		discounts: make(map[string]*domain.Discount),
		global:    make(map[string]int64),
		perUser:   make(map[string]int64),
	}
}

func (r *MemoryDiscountRepository) Seed(d *domain.Discount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *d
	r.discounts[d.Code] = &copied
}

func (r *MemoryDiscountRepository) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[code]
	if !ok {
		return nil, domain.ErrDiscountNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *MemoryDiscountRepository) GlobalUsage(ctx context.Context, code string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.discounts[code]; !ok {
		return 0, domain.ErrDiscountNotFound
	}
	return r.global[code], nil
}

func (r *MemoryDiscountRepository) UserUsage(ctx context.Context, code, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.perUser[code+"/"+userID], nil
}

func (r *MemoryDiscountRepository) IncrementUsage(ctx context.Context, code, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[code]
	if !ok {
		return domain.ErrDiscountNotFound
	}
	// 和 MySQL 实现一致：递增自身带上限守卫，评估和消耗之间的并发窗口在这里兜住
	if r.global[code] >= d.UsageLimitGlobal {
		return &domain.IneligibleError{Reason: domain.ReasonUsageLimitReached}
	}
	if r.perUser[code+"/"+userID] >= d.UsageLimitPerUser {
		return &domain.IneligibleError{Reason: domain.ReasonUserUsageLimit}
	}
	r.global[code]++
	r.perUser[code+"/"+userID]++
	return nil
}
