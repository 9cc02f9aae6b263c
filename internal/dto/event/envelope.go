// Package event 定义实时通道上的消息帧 {"event": "...", "data": {...}}
package event

import (
	"encoding/json"
	"errors"
)

// Server -> client
const (
	GetOnlineUsers      = "getOnlineUsers"
	NewMessage          = "newMessage"
	MessageDeleted      = "messageDeleted"
	FriendRequestNew    = "friendRequest:new"
	FriendRequestUpdate = "friendRequest:update"
	CallError           = "call:error"
)

// Both directions
const (
	CallOffer        = "call:offer"
	CallAnswer       = "call:answer"
	CallIceCandidate = "call:ice-candidate"
	CallDecline      = "call:decline"
	CallEnd          = "call:end"
)

// Client -> server only
const (
	CallConnected = "call:connected"
	CallFailed    = "call:failed"
)

// Inbound 客户端上行帧，data 延迟解析
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound 服务端下行帧
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

var ErrEmptyEvent = errors.New("event name is required")

// ParseInbound 解析帧头，data 由 Decode 按事件类型解析
func ParseInbound(raw []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	if in.Event == "" {
		return nil, ErrEmptyEvent
	}
	return &in, nil
}

// Encode 序列化下行帧
func Encode(name string, data any) ([]byte, error) {
	return json.Marshal(Outbound{Event: name, Data: data})
}

// IsCallEvent 判断是否为通话信令事件
func IsCallEvent(name string) bool {
	switch name {
	case CallOffer, CallAnswer, CallIceCandidate, CallDecline, CallEnd, CallConnected, CallFailed:
		return true
	}
	return false
}
