package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/nacos"
	"storefront/internal/tracing"
)

// AppCtx 传递给各服务的路由注册函数。
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// AppInfo 描述一个服务进程启动所需的信息。
type AppInfo struct {
	ServiceName string
	Port        int
	// RegisterHandlers 由每个服务注册自己的 HTTP 路由。
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在优雅关停时按注册顺序的逆序执行。
	OnShutdown []func(ctx context.Context)
}

// StartService 封装所有服务进程的通用启动和优雅关停逻辑：
// 配置加载、Tracer、Nacos 注册、HTTP Server、信号处理。
func StartService(info AppInfo) {
	Init()
	logger.Init(info.ServiceName)
	cfg := GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	namingClient, err := nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to initialize nacos client")
	}

	ip, err := outboundIP()
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to resolve outbound IP")
	}
	if err := namingClient.Register(info.ServiceName, ip, info.Port); err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to register service instance")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Ctx(nil).Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Ctx(nil).Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Ctx(nil).Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 清理顺序：先摘流量，再停业务组件，最后刷掉缓冲的 trace。
	if err := namingClient.Deregister(info.ServiceName, ip, info.Port); err != nil {
		logger.Ctx(nil).Error().Err(err).Msg("nacos deregister failed")
	}
	for i := len(info.OnShutdown) - 1; i >= 0; i-- {
		info.OnShutdown[i](ctx)
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Ctx(nil).Error().Err(err).Msg("http server shutdown failed")
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Ctx(nil).Error().Err(err).Msg("tracer provider shutdown failed")
	}
	logger.Ctx(nil).Info().Msg("service stopped")
}

// outboundIP 获取本机对外通信使用的 IP，用于服务注册。
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
