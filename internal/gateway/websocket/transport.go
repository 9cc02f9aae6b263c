package websocket

import (
	"net/http"
	"sync"
	"time"

	"pulse_chat_server/pkg/constants"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NewUpgrader 允许 allowOrigins 中的来源，列表为空时不检查
func NewUpgrader(allowOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // 非浏览器客户端
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// WSTransport gorilla 连接 + 带缓冲的写协程
// 所有写操作都在 writePump 中进行，满足 gorilla 单写者要求
type WSTransport struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewWSTransport(conn *websocket.Conn) *WSTransport {
	t := &WSTransport{
		conn: conn,
		send: make(chan []byte, constants.CHANNEL_SIZE),
		done: make(chan struct{}),
	}
	go t.writePump()
	return t
}

// Send 非阻塞入队
func (t *WSTransport) Send(data []byte) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}
	select {
	case t.send <- data:
		return nil
	case <-t.done:
		return ErrTransportClosed
	default:
		return ErrSendBufferFull
	}
}

// Close 通知写协程发送关闭帧并断开底层连接，可重复调用
func (t *WSTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
	})
	return nil
}

// Done 在传输关闭后被关闭
func (t *WSTransport) Done() <-chan struct{} {
	return t.done
}

// ReadLoop 阻塞读取直到连接出错或关闭，每帧交给 handle 顺序处理
func (t *WSTransport) ReadLoop(handle func(raw []byte)) {
	defer t.Close()
	t.conn.SetReadLimit(constants.WSMaxMessage)
	_ = t.conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
	})

	for {
		msgType, raw, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				zap.L().Warn("ws read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(raw)
	}
}

func (t *WSTransport) writePump() {
	ticker := time.NewTicker(constants.WSPingPeriod)
	defer func() {
		ticker.Stop()
		_ = t.Close()
		_ = t.conn.Close()
	}()

	for {
		select {
		case <-t.done:
			_ = t.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case msg := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(constants.WSWriteWait))
			if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zap.L().Warn("ws write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(constants.WSWriteWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
