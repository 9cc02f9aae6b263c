package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"pulse_chat_server/internal/dto/event"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/pkg/callstate"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
)

type probe struct {
	conn       *websocket.Conn
	iceServers []webrtc.ICEServer
	callType   string
	hold       time.Duration
	decline    bool
	dialing    bool

	state   *callstate.Endpoint
	writeMu sync.Mutex

	mu sync.Mutex
	pc *webrtc.PeerConnection

	done     chan struct{}
	doneOnce sync.Once
}

func newProbe(conn *websocket.Conn, iceServers []webrtc.ICEServer, callType string, hold time.Duration, decline bool) *probe {
	return &probe{
		conn:       conn,
		iceServers: iceServers,
		callType:   callType,
		hold:       hold,
		decline:    decline,
		state:      callstate.NewEndpoint(),
		done:       make(chan struct{}),
	}
}

// fetchIceServers 502 时响应体里仍有 STUN 兜底
func fetchIceServers(server, token string) []webrtc.ICEServer {
	req, err := http.NewRequest(http.MethodGet, server+"/api/webrtc/ice", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		zap.L().Warn("ice request failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	var body struct {
		Msg  any                `json:"msg"`
		Data respond.IceRespond `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		zap.L().Warn("ice response unreadable", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil
	}
	zap.L().Info("ice servers",
		zap.Int("status", resp.StatusCode),
		zap.Int("count", len(body.Data.IceServers)),
		zap.Bool("cached", body.Data.Cached),
		zap.String("warning", body.Data.Warning))
	return body.Data.IceServers
}

func (p *probe) send(name string, data any) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.WriteJSON(event.Outbound{Event: name, Data: data}); err != nil {
		zap.L().Warn("send failed", zap.String("event", name), zap.Error(err))
	}
}

func (p *probe) call(target string) error {
	if err := p.state.Dial(target); err != nil {
		return err
	}
	pc, err := p.newPeer(target)
	if err != nil {
		p.state.Reset("")
		return err
	}
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return err
	}
	zap.L().Info("calling", zap.String("target", target), zap.String("type", p.callType))
	p.send(event.CallOffer, event.CallOfferPayload{TargetUserID: target, Offer: &offer, CallType: p.callType})
	return nil
}

func (p *probe) newPeer(peer string) (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: p.iceServers})
	if err != nil {
		return nil, err
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio); err != nil {
		_ = pc.Close()
		return nil, err
	}
	if p.callType == event.CallTypeVideo {
		if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		cand := c.ToJSON()
		p.send(event.CallIceCandidate, event.CallIceCandidatePayload{TargetUserID: peer, Candidate: &cand})
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		zap.L().Info("peer connection state", zap.String("state", s.String()))
		switch s {
		case webrtc.PeerConnectionStateConnected:
			if p.state.MediaUp() {
				p.send(event.CallConnected, event.CallTargetPayload{TargetUserID: peer})
				time.AfterFunc(p.hold, func() { p.hangup("ended") })
			}
		case webrtc.PeerConnectionStateFailed:
			if p.state.Reset(peer) {
				p.send(event.CallFailed, event.CallTargetPayload{TargetUserID: peer, Reason: "failed"})
				p.closePeer()
				p.finish()
			}
		}
	})

	p.mu.Lock()
	p.pc = pc
	p.mu.Unlock()
	return pc, nil
}

func (p *probe) peerConn() *webrtc.PeerConnection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pc
}

func (p *probe) closePeer() {
	p.mu.Lock()
	pc := p.pc
	p.pc = nil
	p.mu.Unlock()
	if pc != nil {
		_ = pc.Close()
	}
}

// hangup 本端主动挂断
func (p *probe) hangup(reason string) {
	peer := p.state.Peer()
	if p.state.Reset("") {
		p.send(event.CallEnd, event.CallTargetPayload{TargetUserID: peer, Reason: reason})
		zap.L().Info("hung up", zap.String("peer", peer), zap.String("reason", reason))
	}
	p.closePeer()
	p.finish()
}

// finish 主叫模式下一通电话结束即退出；被叫模式继续等待来电
func (p *probe) finish() {
	if !p.dialing {
		return
	}
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *probe) readLoop() {
	defer p.doneOnce.Do(func() { close(p.done) })
	for {
		var in event.Inbound
		if err := p.conn.ReadJSON(&in); err != nil {
			zap.L().Info("connection closed", zap.Error(err))
			return
		}
		p.handle(in)
	}
}

func (p *probe) handle(in event.Inbound) {
	switch in.Event {
	case event.GetOnlineUsers:
		var online []string
		_ = json.Unmarshal(in.Data, &online)
		zap.L().Info("online friends", zap.Strings("ids", online))

	case event.CallOffer:
		var out event.CallOfferOut
		if err := json.Unmarshal(in.Data, &out); err != nil || out.Offer == nil {
			zap.L().Warn("bad offer", zap.Error(err))
			return
		}
		p.onOffer(out)

	case event.CallAnswer:
		var out event.CallAnswerOut
		if err := json.Unmarshal(in.Data, &out); err != nil || out.Answer == nil {
			zap.L().Warn("bad answer", zap.Error(err))
			return
		}
		pc := p.peerConn()
		if pc == nil || !p.state.OnAnswer(p.state.Peer()) {
			zap.L().Debug("stray answer ignored", zap.String("call_id", out.CallID))
			return
		}
		if err := pc.SetRemoteDescription(*out.Answer); err != nil {
			zap.L().Warn("set remote answer failed", zap.Error(err))
			p.hangup("failed")
		}

	case event.CallIceCandidate:
		var out event.CallIceCandidateOut
		if err := json.Unmarshal(in.Data, &out); err != nil || out.Candidate == nil {
			return
		}
		if pc := p.peerConn(); pc != nil {
			if err := pc.AddICECandidate(*out.Candidate); err != nil {
				zap.L().Debug("add candidate failed", zap.Error(err))
			}
		}

	case event.CallDecline, event.CallEnd:
		var out event.CallReasonOut
		_ = json.Unmarshal(in.Data, &out)
		zap.L().Info("call over", zap.String("event", in.Event), zap.String("reason", out.Reason))
		p.state.Reset("")
		p.closePeer()
		p.finish()

	case event.CallError:
		var out event.CallErrorOut
		_ = json.Unmarshal(in.Data, &out)
		zap.L().Warn("call error", zap.String("message", out.Message))
		if p.state.Phase() == callstate.PhaseCalling {
			p.state.Reset("")
			p.closePeer()
			p.finish()
		}

	default:
		zap.L().Info("event", zap.String("name", in.Event), zap.ByteString("data", in.Data))
	}
}

func (p *probe) onOffer(out event.CallOfferOut) {
	caller := out.Caller.ID
	if !p.state.OnOffer(caller) {
		p.send(event.CallDecline, event.CallTargetPayload{TargetUserID: caller, Reason: "busy"})
		return
	}
	zap.L().Info("incoming call", zap.String("from", caller), zap.String("name", out.Caller.FullName),
		zap.String("type", out.CallType))
	if p.decline {
		p.state.Reset(caller)
		p.send(event.CallDecline, event.CallTargetPayload{TargetUserID: caller, Reason: "declined"})
		return
	}

	if out.CallType != "" {
		p.callType = out.CallType
	}
	pc, err := p.newPeer(caller)
	if err == nil {
		err = pc.SetRemoteDescription(*out.Offer)
	}
	var answer webrtc.SessionDescription
	if err == nil {
		answer, err = pc.CreateAnswer(nil)
	}
	if err == nil {
		err = pc.SetLocalDescription(answer)
	}
	if err != nil {
		zap.L().Warn("answer failed", zap.Error(err))
		p.state.Reset(caller)
		p.closePeer()
		p.send(event.CallDecline, event.CallTargetPayload{TargetUserID: caller, Reason: "failed"})
		return
	}
	p.state.Accept()
	p.send(event.CallAnswer, event.CallAnswerPayload{TargetUserID: caller, Answer: &answer})
}
