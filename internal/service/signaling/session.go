package signaling

import (
	"time"

	"pulse_chat_server/pkg/callstate"
)

// Session 一次通话，从 offer 开始到任意一方结束
type Session struct {
	ID        string
	CallerID  string
	CalleeID  string
	CallType  string
	State     callstate.State
	StartedAt time.Time

	unwatch []func()
}

// Peer 返回另一方，userID 不在会话中时返回空串
func (s *Session) Peer(userID string) string {
	switch userID {
	case s.CallerID:
		return s.CalleeID
	case s.CalleeID:
		return s.CallerID
	}
	return ""
}

// CallEnded 通话结束的领域事件
type CallEnded struct {
	CallID     string `json:"callId"`
	CallerID   string `json:"callerId"`
	CalleeID   string `json:"calleeId"`
	CallType   string `json:"callType"`
	Reason     string `json:"reason"`
	EndedBy    string `json:"endedBy"`
	State      string `json:"state"` // 结束前的状态
	DurationMs int64  `json:"durationMs"`
}
