package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redisx"
	orderdomain "storefront/internal/service/order/domain"
)

const (
	serviceName   = "push-gateway"
	consumerGroup = "push-gateway-consumers"
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = 54 * time.Second
	sessionTTL    = 2 * time.Hour
)

var (
	nodeID   = serviceName + "-" + uuid.New().String()[:8]
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

// Hub 维护所有活跃的连接，按 UserID 索引。
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client.userID] = client
			h.lock.Unlock()
			logger.Ctx(ctx).Info().Str("user_id", client.userID).Str("node", nodeID).Msg("client registered")
		case client := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.lock.Unlock()
			logger.Ctx(ctx).Info().Str("user_id", client.userID).Msg("client unregistered")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// push 把消息投给指定用户，用户不在本节点时丢弃。
func (h *Hub) push(userID string, message []byte) {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- message:
	default:
		// 发送缓冲已满，视为连接不健康
		h.unregister <- client
	}
}

// Client 代表一个 WebSocket 连接。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, sessions *redisx.Client, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	hub.register <- client

	// 在 Redis 里记下用户挂在哪个网关节点，供跨节点路由查询
	if err := sessions.GetClient().Set(r.Context(), "gateway-session:"+userID, nodeID, sessionTTL).Err(); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("failed to store session")
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// consumeOrderEvents 消费订单生命周期事件并推送给在线用户。
func consumeOrderEvents(ctx context.Context, hub *Hub, brokers []string, topic string) error {
	reader := mq.NewReader(brokers, topic, consumerGroup)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Ctx(ctx).Error().Err(err).Msg("failed to read order event")
			continue
		}

		var event orderdomain.OrderLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("malformed order event")
			continue
		}
		hub.push(event.UserID, msg.Value)
	}
}

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	sessions, err := redisx.NewClient(context.Background(), cfg.Infra.Redis.Addr)
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to connect redis")
	}
	defer sessions.Close()

	hub := newHub()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, sessions, w, r)
	})
	server := &http.Server{Addr: ":8088", Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.run(gctx) })
	g.Go(func() error {
		return consumeOrderEvents(gctx, hub, cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderEventTopic)
	})
	g.Go(func() error {
		logger.Ctx(nil).Info().Str("addr", server.Addr).Str("node", nodeID).Msg("push gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Ctx(nil).Fatal().Err(err).Msg("push gateway exited")
	}
	logger.Ctx(nil).Info().Msg("push gateway stopped")
}
