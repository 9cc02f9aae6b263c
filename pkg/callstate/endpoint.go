package callstate

import (
	"errors"
	"sync"
)

// Phase 单个客户端视角的通话阶段
//
//	主叫: idle --Dial--> calling --OnAnswer--> connecting --MediaUp--> connected
//	被叫: idle --OnOffer--> ringing --Accept--> connecting --MediaUp--> connected
//	任一阶段 --Reset--> idle
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCalling    Phase = "calling"
	PhaseRinging    Phase = "ringing"
	PhaseConnecting Phase = "connecting"
	PhaseConnected  Phase = "connected"
)

var ErrBusy = errors.New("endpoint already in a call")

// Endpoint 迟到或乱序的信令会被忽略，而不是报错
type Endpoint struct {
	mu    sync.Mutex
	phase Phase
	peer  string
}

func NewEndpoint() *Endpoint {
	return &Endpoint{phase: PhaseIdle}
}

func (e *Endpoint) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Endpoint) Peer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peer
}

// Dial 发起呼叫
func (e *Endpoint) Dial(peer string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return ErrBusy
	}
	e.phase, e.peer = PhaseCalling, peer
	return nil
}

// OnOffer 收到来电；返回 false 表示本端忙，调用方应回 decline{reason:"busy"}
func (e *Endpoint) OnOffer(peer string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return false
	}
	e.phase, e.peer = PhaseRinging, peer
	return true
}

// Accept 被叫接听
func (e *Endpoint) Accept() bool {
	return e.move(PhaseRinging, PhaseConnecting, "")
}

// OnAnswer 只接受当前呼叫对象的 answer
func (e *Endpoint) OnAnswer(peer string) bool {
	return e.move(PhaseCalling, PhaseConnecting, peer)
}

// MediaUp 媒体层连通
func (e *Endpoint) MediaUp() bool {
	return e.move(PhaseConnecting, PhaseConnected, "")
}

// Reset 回到 idle；peer 非空时只处理当前通话对象发来的 end/decline
func (e *Endpoint) Reset(peer string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseIdle || (peer != "" && peer != e.peer) {
		return false
	}
	e.phase, e.peer = PhaseIdle, ""
	return true
}

func (e *Endpoint) move(from, to Phase, peer string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != from || (peer != "" && peer != e.peer) {
		return false
	}
	e.phase = to
	return true
}
