package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 是对 zk.Conn 的薄封装，统一超时与会话参数。
type Conn struct {
	*zk.Conn
}

// Connect 建立 ZooKeeper 会话。sessionTimeout 决定临时节点的存活判定，
// 不宜设得太短，否则短暂的网络抖动会导致锁被误释放。
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}
