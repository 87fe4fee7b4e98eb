package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redisx"
	"storefront/internal/zookeeper"

	cartapp "storefront/internal/service/cart/application"
	cartinfra "storefront/internal/service/cart/infrastructure"
	cartadapter "storefront/internal/service/cart/infrastructure/adapter"
	cartifaces "storefront/internal/service/cart/interfaces"
	inventoryapp "storefront/internal/service/inventory/application"
	inventoryinfra "storefront/internal/service/inventory/infrastructure"
	inventoryifaces "storefront/internal/service/inventory/interfaces"
	orderapp "storefront/internal/service/order/application"
	orderinfra "storefront/internal/service/order/infrastructure"
	orderadapter "storefront/internal/service/order/infrastructure/adapter"
	orderifaces "storefront/internal/service/order/interfaces"
	promotionapp "storefront/internal/service/promotion/application"
	promotioninfra "storefront/internal/service/promotion/infrastructure"
	"storefront/internal/service/promotion/infrastructure/rule"
	promotionifaces "storefront/internal/service/promotion/interfaces"
)

const serviceName = "storefront-service"

// main 是组装根：创建并装配所有依赖，然后交给 bootstrap 启动。
func main() {
	var shutdown []func(ctx context.Context)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()
			tracer := otel.Tracer(serviceName)

			db, err := gorm.Open(mysql.Open(cfg.MySQLDSN()))
			if err != nil {
				logger.Ctx(nil).Fatal().Err(err).Msg("failed to connect mysql")
			}
			if err := db.AutoMigrate(
				&inventoryinfra.VariantModel{},
				&inventoryinfra.VariantStockModel{},
				&cartinfra.CartItemModel{},
				&promotioninfra.DiscountModel{},
				&promotioninfra.DiscountUsageModel{},
				&orderinfra.OrderModel{},
				&orderinfra.OrderItemModel{},
			); err != nil {
				logger.Ctx(nil).Fatal().Err(err).Msg("failed to migrate schema")
			}

			redisClient, err := redisx.NewClient(context.Background(), cfg.Infra.Redis.Addr)
			if err != nil {
				logger.Ctx(nil).Fatal().Err(err).Msg("failed to connect redis")
			}
			shutdown = append(shutdown, func(ctx context.Context) {
				if err := redisClient.Close(); err != nil {
					logger.Ctx(ctx).Error().Err(err).Msg("redis close failed")
				}
			})

			zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, 5*time.Second)
			if err != nil {
				logger.Ctx(nil).Fatal().Err(err).Msg("failed to connect zookeeper")
			}
			shutdown = append(shutdown, func(ctx context.Context) { zkConn.Close() })

			indexWriter := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.IndexTopic)
			orderEventWriter := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderEventTopic)
			shutdown = append(shutdown, func(ctx context.Context) {
				indexWriter.Close()
				orderEventWriter.Close()
			})

			// 库存
			stockLedger := inventoryapp.NewStockLedgerService(
				inventoryinfra.NewGormStockRepository(db),
				inventoryinfra.NewGormVariantRepository(db),
				tracer,
			)
			inventoryifaces.NewStockHandler(stockLedger).RegisterRoutes(appCtx.Mux)

			// 购物车
			cartService := cartapp.NewCartService(
				cartinfra.NewGormCartRepository(db),
				cartadapter.NewLedgerStockView(stockLedger),
				cartadapter.NewZkCartLocker(zkConn),
				int64(cfg.App.CartItemCeiling),
				tracer,
			)
			cartifaces.NewCartHandler(cartService).RegisterRoutes(appCtx.Mux)

			// 折扣
			ruleEngine, err := rule.NewCELRuleEngine()
			if err != nil {
				logger.Ctx(nil).Fatal().Err(err).Msg("failed to build rule engine")
			}
			promotionService := promotionapp.NewPromotionService(
				promotioninfra.NewGormDiscountRepository(db),
				ruleEngine,
				tracer,
			)
			promotionifaces.NewPromotionHandler(promotionService).RegisterRoutes(appCtx.Mux)

			// 结算编排与订单生命周期
			stockAdapter := orderadapter.NewStockLedgerAdapter(stockLedger)
			txRunner := orderadapter.NewGormTxRunner(db)
			orderRepo := orderinfra.NewGormOrderRepository(db)
			indexNotifier := orderadapter.NewKafkaIndexNotifier(indexWriter)
			eventPublisher := orderadapter.NewKafkaEventPublisher(orderEventWriter)

			checkoutService := orderapp.NewCheckoutService(
				stockAdapter,
				stockAdapter,
				orderadapter.NewCartStoreAdapter(cartinfra.NewGormCartRepository(db)),
				orderadapter.NewDiscountAdapter(promotionService),
				txRunner,
				orderRepo,
				indexNotifier,
				eventPublisher,
				tracer,
				cfg.App.ShippingFeeCents,
				cfg.App.CheckoutRetry,
			)
			lifecycleService := orderapp.NewOrderLifecycleService(
				orderRepo,
				stockAdapter,
				txRunner,
				orderadapter.NewRedisPaymentDeduper(redisClient),
				eventPublisher,
				indexNotifier,
				tracer,
			)
			orderifaces.NewOrderHandler(checkoutService, lifecycleService).RegisterRoutes(appCtx.Mux)

			appCtx.Mux.Handle("/metrics", promhttp.Handler())
		},
		OnShutdown: []func(ctx context.Context){
			func(ctx context.Context) {
				for i := len(shutdown) - 1; i >= 0; i-- {
					shutdown[i](ctx)
				}
			},
		},
	})
}
