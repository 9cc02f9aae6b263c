// Package wstest 记录所有下行帧的内存 Transport，供测试使用
package wstest

import (
	"encoding/json"
	"sync"

	ws "pulse_chat_server/internal/gateway/websocket"
)

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode 把 data 解码到 v
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Data, v)
}

type FakeTransport struct {
	mu      sync.Mutex
	frames  []Frame
	closed  bool
	SendErr error
	// BeforeSend 在记录帧之前调用（不持锁），可用来模拟慢连接
	BeforeSend func(Frame)
}

func (f *FakeTransport) Send(data []byte) error {
	var fr Frame
	if err := json.Unmarshal(data, &fr); err != nil {
		return err
	}
	if f.BeforeSend != nil {
		f.BeforeSend(fr)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	if f.closed {
		return ws.ErrTransportClosed
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *FakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *FakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeTransport) Frames() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

// Events 按发送顺序返回事件名
func (f *FakeTransport) Events() []string {
	frames := f.Frames()
	names := make([]string, len(frames))
	for i, fr := range frames {
		names[i] = fr.Event
	}
	return names
}

// Last 最近一帧名为 event 的消息
func (f *FakeTransport) Last(event string) (Frame, bool) {
	frames := f.Frames()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Event == event {
			return frames[i], true
		}
	}
	return Frame{}, false
}

func (f *FakeTransport) Count(event string) int {
	n := 0
	for _, fr := range f.Frames() {
		if fr.Event == event {
			n++
		}
	}
	return n
}

func (f *FakeTransport) Reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

// Connect 为 userID 绑定一个新的假连接
func Connect(reg *ws.Registry, userID string) (*ws.Connection, *FakeTransport) {
	t := &FakeTransport{}
	conn := ws.NewConnection(userID, t)
	reg.Bind(conn)
	return conn, t
}
