// Package websocket 维护在线连接注册表以及基于 gorilla/websocket 的传输层
package websocket

import "errors"

var (
	// ErrNotConnected 目标用户没有已绑定的连接
	ErrNotConnected = errors.New("user is not connected")
	// ErrSendBufferFull 写缓冲已满，帧被丢弃
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrTransportClosed 传输层已关闭
	ErrTransportClosed = errors.New("transport closed")
)

// Transport 单个客户端连接的发送与关闭能力
// 实现必须允许多个 goroutine 并发调用 Send
type Transport interface {
	Send(data []byte) error
	Close() error
}
