package websocket

import (
	"sync"

	"pulse_chat_server/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// Registry userID -> 当前连接，每个用户最多一个
// 新连接覆盖旧连接；解绑只对当前连接生效
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*Connection
	watchers map[string]map[uint64]func()
	nextID   uint64
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[string]*Connection),
		watchers: make(map[string]map[uint64]func()),
	}
}

// Bind 注册连接，返回被替换的旧连接（可能为 nil），旧连接由调用方关闭
// 旧连接被替换等同于它已断开：解绑监听在这里触发，新连接不继承旧连接上的通话
func (r *Registry) Bind(conn *Connection) *Connection {
	r.mu.Lock()
	prev := r.conns[conn.UserID]
	r.conns[conn.UserID] = conn
	var callbacks []func()
	if prev != nil {
		callbacks = r.watchersLocked(conn.UserID)
	}
	r.mu.Unlock()

	if prev == nil {
		metrics.IncWSActive()
		zap.L().Info("connection bound", zap.String("user_id", conn.UserID), zap.String("conn_id", conn.ID))
		return nil
	}
	zap.L().Info("connection replaced",
		zap.String("user_id", conn.UserID),
		zap.String("conn_id", conn.ID),
		zap.String("replaced_conn_id", prev.ID))
	runCallbacks(callbacks)
	return prev
}

// Unbind 仅当 conn 仍是该用户的当前连接时移除，并触发解绑监听
func (r *Registry) Unbind(conn *Connection) bool {
	r.mu.Lock()
	current, ok := r.conns[conn.UserID]
	if !ok || current.ID != conn.ID {
		r.mu.Unlock()
		zap.L().Debug("stale unbind ignored", zap.String("user_id", conn.UserID), zap.String("conn_id", conn.ID))
		return false
	}
	delete(r.conns, conn.UserID)
	callbacks := r.watchersLocked(conn.UserID)
	r.mu.Unlock()

	metrics.DecWSActive()
	zap.L().Info("connection unbound", zap.String("user_id", conn.UserID), zap.String("conn_id", conn.ID))
	runCallbacks(callbacks)
	return true
}

// watchersLocked 调用方需持有 r.mu
func (r *Registry) watchersLocked(userID string) []func() {
	callbacks := make([]func(), 0, len(r.watchers[userID]))
	for _, fn := range r.watchers[userID] {
		callbacks = append(callbacks, fn)
	}
	return callbacks
}

// 回调在锁外执行，允许回调内再次访问注册表
func runCallbacks(callbacks []func()) {
	for _, fn := range callbacks {
		fn()
	}
}

func (r *Registry) Lookup(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Push 向用户当前连接发送事件；发送失败原样返回，不重试
func (r *Registry) Push(userID, name string, data any) error {
	conn, ok := r.Lookup(userID)
	if !ok {
		return ErrNotConnected
	}
	if err := conn.Emit(name, data); err != nil {
		zap.L().Warn("push dropped",
			zap.String("user_id", userID),
			zap.String("conn_id", conn.ID),
			zap.String("event", name),
			zap.Error(err))
		return err
	}
	metrics.IncWSEvent("out", name)
	return nil
}

// WatchUnbind 注册 userID 当前连接解绑或被替换后执行的回调，返回取消函数
func (r *Registry) WatchUnbind(userID string, fn func()) (cancel func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	if r.watchers[userID] == nil {
		r.watchers[userID] = make(map[uint64]func())
	}
	r.watchers[userID][id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if set := r.watchers[userID]; set != nil {
				delete(set, id)
				if len(set) == 0 {
					delete(r.watchers, userID)
				}
			}
		})
	}
}
