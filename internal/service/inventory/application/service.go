package application

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/inventory/domain"
)

var reserveConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "stock_reserve_conflicts_total",
	Help: "Number of reservations rejected for insufficient available stock.",
})

// StockLedgerService 是库存台账的应用服务。
// 它是系统里唯一允许改动库存计数对的组件。
type StockLedgerService struct {
	stockRepo   domain.StockRepository
	variantRepo domain.VariantRepository
	tracer      trace.Tracer
}

func NewStockLedgerService(stockRepo domain.StockRepository, variantRepo domain.VariantRepository, tracer trace.Tracer) *StockLedgerService {
	return &StockLedgerService{stockRepo: stockRepo, variantRepo: variantRepo, tracer: tracer}
}

// Reserve 为结算流程预占库存。并发超售由仓储层的原子条件更新兜底。
func (s *StockLedgerService) Reserve(ctx context.Context, variantID string, qty int64) error {
	ctx, span := s.tracer.Start(ctx, "stock.Reserve")
	defer span.End()
	span.SetAttributes(attribute.String("variant.id", variantID), attribute.Int64("qty", qty))

	if err := s.stockRepo.Reserve(ctx, variantID, qty); err != nil {
		if err == domain.ErrInsufficientStock {
			reserveConflicts.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve failed")
		return err
	}
	return nil
}

// Release 归还预占。结算中止、订单取消都走这里。
func (s *StockLedgerService) Release(ctx context.Context, variantID string, qty int64) error {
	ctx, span := s.tracer.Start(ctx, "stock.Release")
	defer span.End()
	span.SetAttributes(attribute.String("variant.id", variantID), attribute.Int64("qty", qty))

	if err := s.stockRepo.Release(ctx, variantID, qty); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Commit 在履约时把预占转为真实出库。
func (s *StockLedgerService) Commit(ctx context.Context, variantID string, qty int64) error {
	ctx, span := s.tracer.Start(ctx, "stock.Commit")
	defer span.End()
	span.SetAttributes(attribute.String("variant.id", variantID), attribute.Int64("qty", qty))

	if err := s.stockRepo.Commit(ctx, variantID, qty); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return err
	}
	return nil
}

// Restock 入库补货。
func (s *StockLedgerService) Restock(ctx context.Context, variantID string, delta int64) error {
	ctx, span := s.tracer.Start(ctx, "stock.Restock")
	defer span.End()
	span.SetAttributes(attribute.String("variant.id", variantID), attribute.Int64("delta", delta))

	if err := s.stockRepo.Restock(ctx, variantID, delta); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Str("variant_id", variantID).Int64("delta", delta).Msg("restocked")
	return nil
}

// Available 返回买家可见的可售量，购物车的提示性校验用。
func (s *StockLedgerService) Available(ctx context.Context, variantID string) (int64, error) {
	stock, err := s.stockRepo.Get(ctx, variantID)
	if err != nil {
		return 0, err
	}
	return stock.Available(), nil
}

// Variant 返回规格目录信息（上架状态与价格）。
func (s *StockLedgerService) Variant(ctx context.Context, variantID string) (*domain.Variant, error) {
	return s.variantRepo.FindByID(ctx, variantID)
}
