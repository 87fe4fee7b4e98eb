package infrastructure

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/inventory/domain"
)

func TestReserveReleaseCommit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStockRepository()
	repo.Seed("v1", 10, 0)

	require.NoError(t, repo.Reserve(ctx, "v1", 4))

	stock, err := repo.Get(ctx, "v1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, stock.Quantity)
	assert.EqualValues(t, 4, stock.Reserved)
	assert.EqualValues(t, 6, stock.Available())

	// Commit 同时扣减两个计数
	require.NoError(t, repo.Commit(ctx, "v1", 3))
	stock, _ = repo.Get(ctx, "v1")
	assert.EqualValues(t, 7, stock.Quantity)
	assert.EqualValues(t, 1, stock.Reserved)

	// 超出预占量的出库被拒绝
	assert.ErrorIs(t, repo.Commit(ctx, "v1", 2), domain.ErrInvalidState)

	require.NoError(t, repo.Release(ctx, "v1", 1))
	stock, _ = repo.Get(ctx, "v1")
	assert.EqualValues(t, 0, stock.Reserved)
}

func TestReserveRejectsInvalidQuantity(t *testing.T) {
	repo := NewMemoryStockRepository()
	repo.Seed("v1", 10, 0)

	assert.ErrorIs(t, repo.Reserve(context.Background(), "v1", 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, repo.Reserve(context.Background(), "v1", -3), domain.ErrInvalidQuantity)
}

func TestReleaseFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStockRepository()
	repo.Seed("v1", 10, 2)

	require.NoError(t, repo.Release(ctx, "v1", 5))
	stock, _ := repo.Get(ctx, "v1")
	assert.EqualValues(t, 0, stock.Reserved)
	assert.EqualValues(t, 10, stock.Quantity)
}

func TestRestockNeverTouchesReserved(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStockRepository()
	repo.Seed("v1", 5, 3)

	require.NoError(t, repo.Restock(ctx, "v1", 7))
	stock, _ := repo.Get(ctx, "v1")
	assert.EqualValues(t, 12, stock.Quantity)
	assert.EqualValues(t, 3, stock.Reserved)
	assert.False(t, stock.LastRestockedAt.IsZero())
}

// 两个并发预占合计超过可售量时，必须恰好一个成功。
func TestConcurrentReserveExactlyOneWins(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		repo := NewMemoryStockRepository()
		repo.Seed("v1", 10, 0)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for g, qty := range []int64{7, 6} {
			wg.Add(1)
			go func(slot int, q int64) {
				defer wg.Done()
				errs[slot] = repo.Reserve(ctx, "v1", q)
			}(g, qty)
		}
		wg.Wait()

		var failures int
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				failures++
			}
		}
		assert.Equal(t, 1, failures, "exactly one of the racing reservations must fail")

		stock, err := repo.Get(ctx, "v1")
		require.NoError(t, err)
		assert.True(t, stock.Reserved <= stock.Quantity, "invariant reserved <= quantity violated")
	}
}
