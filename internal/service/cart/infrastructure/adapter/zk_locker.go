package adapter

import (
	"context"
	"sync"

	"storefront/internal/zookeeper"
)

// ZkCartLocker 用 ZooKeeper 分布式锁实现 port.CartLocker。
// 资源粒度是单个用户，互不相关的用户之间完全并行。
type ZkCartLocker struct {
	conn *zookeeper.Conn
}

func NewZkCartLocker(conn *zookeeper.Conn) *ZkCartLocker {
	return &ZkCartLocker{conn: conn}
}

func (l *ZkCartLocker) WithLock(ctx context.Context, userID string, fn func() error) error {
	lock := zookeeper.NewDistributedLock(l.conn, "cart-"+userID)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// LocalCartLocker 是进程内的 keyed mutex 实现，测试和单副本本地启动用。
type LocalCartLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalCartLocker() *LocalCartLocker {
	return &LocalCartLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalCartLocker) WithLock(ctx context.Context, userID string, fn func() error) error {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn()
}
