package websocket

import (
	"sync"

	"pulse_chat_server/internal/dto/event"

	"github.com/google/uuid"
)

// Connection 一个已认证的实时连接
type Connection struct {
	ID        string
	UserID    string
	Transport Transport

	mu        sync.RWMutex
	friendIDs []string

	// presenceMu 串行化在线列表的计算与发送
	presenceMu sync.Mutex
}

func NewConnection(userID string, t Transport) *Connection {
	return &Connection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Transport: t,
	}
}

// FriendIDs 最近一次 presence 计算时的好友快照
func (c *Connection) FriendIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.friendIDs))
	copy(out, c.friendIDs)
	return out
}

func (c *Connection) SetFriendIDs(ids []string) {
	snapshot := make([]string, len(ids))
	copy(snapshot, ids)
	c.mu.Lock()
	c.friendIDs = snapshot
	c.mu.Unlock()
}

// Emit 编码并发送一帧
func (c *Connection) Emit(name string, data any) error {
	raw, err := event.Encode(name, data)
	if err != nil {
		return err
	}
	return c.Transport.Send(raw)
}

// EmitPresence 在同一把锁内计算并发送 getOnlineUsers，后计算的视图一定后到达
func (c *Connection) EmitPresence(compute func() []string) error {
	c.presenceMu.Lock()
	defer c.presenceMu.Unlock()
	return c.Emit(event.GetOnlineUsers, compute())
}
