package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/service/cart/domain"
	"storefront/internal/service/cart/port"
)

// CartService 是购物车的应用服务。
// 写操作都包在 per-user 锁里；对库存只做提示性校验，从不预占。
type CartService struct {
	repo domain.CartRepository
	// quantityCeiling 是单个条目允许的最大数量。
	quantityCeiling int64
	stock           port.StockView
	locker          port.CartLocker
	tracer          trace.Tracer
}

func NewCartService(repo domain.CartRepository, stock port.StockView, locker port.CartLocker, quantityCeiling int64, tracer trace.Tracer) *CartService {
	return &CartService{repo: repo, stock: stock, locker: locker, quantityCeiling: quantityCeiling, tracer: tracer}
}

// AddItem 加购。同规格条目做数量合并，否则新建一行。
func (s *CartService) AddItem(ctx context.Context, userID, variantID string, qty int64) error {
	ctx, span := s.tracer.Start(ctx, "cart.AddItem")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("variant.id", variantID))

	if qty < 1 {
		return domain.ErrInvalidQuantity
	}

	active, err := s.stock.VariantActive(ctx, variantID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !active {
		return domain.ErrProductUnavailable
	}

	return s.locker.WithLock(ctx, userID, func() error {
		cart, err := s.repo.Load(ctx, userID)
		if err != nil {
			return err
		}

		target := qty
		if i, ok := cart.FindByVariant(variantID); ok {
			target = cart.Items[i].Quantity + qty
		}
		if err := s.checkQuantity(ctx, variantID, target); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "advisory availability check failed")
			return err
		}

		if i, ok := cart.FindByVariant(variantID); ok {
			cart.Items[i].Quantity = target
		} else {
			cart.Items = append(cart.Items, domain.CartItem{
				ID:        uuid.New().String(),
				VariantID: variantID,
				Quantity:  qty,
				AddedAt:   time.Now(),
			})
		}
		cart.UpdatedAt = time.Now()
		return s.repo.Save(ctx, cart)
	})
}

// ChangeQuantityDelta 增减条目数量，结果 <= 0 时删行。
func (s *CartService) ChangeQuantityDelta(ctx context.Context, userID, cartItemID string, delta int64) error {
	ctx, span := s.tracer.Start(ctx, "cart.ChangeQuantityDelta")
	defer span.End()

	return s.locker.WithLock(ctx, userID, func() error {
		cart, err := s.repo.Load(ctx, userID)
		if err != nil {
			return err
		}
		i, ok := cart.FindItem(cartItemID)
		if !ok {
			return domain.ErrCartItemNotFound
		}
		return s.applyQuantity(ctx, cart, i, cart.Items[i].Quantity+delta)
	})
}

// UpdateQuantity 绝对设置条目数量，校验同上。
func (s *CartService) UpdateQuantity(ctx context.Context, userID, cartItemID string, qty int64) error {
	ctx, span := s.tracer.Start(ctx, "cart.UpdateQuantity")
	defer span.End()

	return s.locker.WithLock(ctx, userID, func() error {
		cart, err := s.repo.Load(ctx, userID)
		if err != nil {
			return err
		}
		i, ok := cart.FindItem(cartItemID)
		if !ok {
			return domain.ErrCartItemNotFound
		}
		return s.applyQuantity(ctx, cart, i, qty)
	})
}

// RemoveItem 无条件删除条目。
func (s *CartService) RemoveItem(ctx context.Context, userID, cartItemID string) error {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveItem")
	defer span.End()

	return s.locker.WithLock(ctx, userID, func() error {
		cart, err := s.repo.Load(ctx, userID)
		if err != nil {
			return err
		}
		i, ok := cart.FindItem(cartItemID)
		if !ok {
			return domain.ErrCartItemNotFound
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		cart.UpdatedAt = time.Now()
		return s.repo.Save(ctx, cart)
	})
}

// GetCart 返回当前快照。空车正常返回。
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "cart.GetCart")
	defer span.End()
	return s.repo.Load(ctx, userID)
}

// applyQuantity 把条目 i 的数量改到 target：<= 0 删行，否则先校验再落库。
func (s *CartService) applyQuantity(ctx context.Context, cart *domain.Cart, i int, target int64) error {
	if target <= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		cart.UpdatedAt = time.Now()
		return s.repo.Save(ctx, cart)
	}
	if err := s.checkQuantity(ctx, cart.Items[i].VariantID, target); err != nil {
		return err
	}
	cart.Items[i].Quantity = target
	cart.UpdatedAt = time.Now()
	return s.repo.Save(ctx, cart)
}

func (s *CartService) checkQuantity(ctx context.Context, variantID string, target int64) error {
	if target > s.quantityCeiling {
		return domain.ErrQuantityTooLarge
	}
	available, err := s.stock.Available(ctx, variantID)
	if err != nil {
		return err
	}
	if target > available {
		return domain.ErrQuantityTooLarge
	}
	return nil
}
