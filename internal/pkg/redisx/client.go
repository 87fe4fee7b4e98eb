package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client 是对 go-redis 客户端的薄封装。
type Client struct {
	rdb *redis.Client
}

// NewClient 建立 Redis 连接并做一次 PING 探活。
func NewClient(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 返回底层客户端，供需要 pipeline 等高级能力的调用方使用。
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// SetNXOnce 以 SETNX 语义声明 key 的首次出现。
// 返回 true 表示本次是第一次看到该 key，可以继续处理；
// 返回 false 表示重复投递，调用方应直接跳过。
func (c *Client) SetNXOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
