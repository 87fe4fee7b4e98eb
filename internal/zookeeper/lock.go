package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/storefront_locks"

// DistributedLock 是基于临时顺序节点的互斥锁。
// 同一资源（比如某个用户的购物车）的写操作通过它串行化。
type DistributedLock struct {
	conn     *Conn
	path     string
	lockNode string
}

// NewDistributedLock 创建针对 resourceID 的锁实例。
func NewDistributedLock(conn *Conn, resourceID string) *DistributedLock {
	ensureNode(conn, lockRoot)
	lockPath := lockRoot + "/" + resourceID
	ensureNode(conn, lockPath)
	return &DistributedLock{conn: conn, path: lockPath}
}

func ensureNode(conn *Conn, path string) {
	if exists, _, err := conn.Exists(path); err == nil && exists {
		return
	}
	_, err := conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		panic(fmt.Sprintf("failed to create lock node %s: %v", path, err))
	}
}

// Lock 尝试获取锁，获取不到则阻塞等待，最长等待 30 秒。
func (l *DistributedLock) Lock() error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to list lock children: %w", err)
		}
		sort.Strings(children)

		myNode := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNode == children[0] {
			return nil
		}

		// 只监听排在自己前面的节点，避免惊群
		prev := -1
		for i, child := range children {
			if child == myNode {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			return errors.New("own lock node missing from children")
		}
		prevPath := l.path + "/" + children[prev]

		_, _, eventChan, err := l.conn.ExistsW(prevPath)
		if err != nil {
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous node: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(30 * time.Second):
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
