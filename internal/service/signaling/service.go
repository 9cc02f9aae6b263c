// Package signaling 通话信令中转
// 服务端维护 CallSession：记录谁在和谁通话，处理忙线、离线、掉线
package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"pulse_chat_server/internal/dto/event"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/infrastructure/metrics"
	"pulse_chat_server/internal/infrastructure/mq"
	"pulse_chat_server/pkg/callstate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgOffline       = "User is offline"
	msgAlreadyInCall = "You are already in a call"
	msgCallSelf      = "You cannot call yourself"
	msgUnreachable   = "Could not reach user"
	unknownCaller    = "Unknown caller"
)

// 结束原因，同时作为 calls_ended_total 的 reason 标签
const (
	ReasonDeclined = "declined"
	ReasonEnded    = "ended"
	ReasonOffline  = "offline"
	ReasonFailed   = "failed"
	ReasonBusy     = "busy"
)

type Service struct {
	registry  *ws.Registry
	publisher mq.Publisher

	mu     sync.Mutex
	byID   map[string]*Session
	byUser map[string]*Session
}

func NewService(registry *ws.Registry, publisher mq.Publisher) *Service {
	return &Service{
		registry:  registry,
		publisher: publisher,
		byID:      make(map[string]*Session),
		byUser:    make(map[string]*Session),
	}
}

// Handle 处理一条来自 from 的通话事件，所有失败都以事件形式推回客户端
func (s *Service) Handle(ctx context.Context, from event.CallerInfo, name string, data json.RawMessage) {
	switch name {
	case event.CallOffer:
		s.offer(ctx, from, data)
	case event.CallAnswer:
		s.answer(from.ID, data)
	case event.CallIceCandidate:
		s.iceCandidate(from.ID, data)
	case event.CallDecline:
		s.decline(from.ID, data)
	case event.CallEnd:
		s.end(from.ID, data)
	case event.CallConnected:
		s.connected(from.ID, data)
	case event.CallFailed:
		s.failed(from.ID, data)
	default:
		s.sendError(from.ID, "Unknown event: "+name)
	}
}

func (s *Service) offer(_ context.Context, from event.CallerInfo, data json.RawMessage) {
	var p event.CallOfferPayload
	if err := event.Decode(data, &p); err != nil {
		s.sendError(from.ID, err.Error())
		return
	}
	if p.TargetUserID == from.ID {
		s.sendError(from.ID, msgCallSelf)
		return
	}
	if !s.registry.IsOnline(p.TargetUserID) {
		s.sendError(from.ID, msgOffline)
		return
	}

	s.mu.Lock()
	if _, busy := s.byUser[from.ID]; busy {
		s.mu.Unlock()
		s.sendError(from.ID, msgAlreadyInCall)
		return
	}
	if _, busy := s.byUser[p.TargetUserID]; busy {
		s.mu.Unlock()
		s.push(from.ID, event.CallDecline, event.CallReasonOut{Reason: ReasonBusy})
		return
	}
	sess := &Session{
		ID:        uuid.NewString(),
		CallerID:  from.ID,
		CalleeID:  p.TargetUserID,
		CallType:  p.CallType,
		State:     callstate.Ringing,
		StartedAt: time.Now(),
	}
	s.byID[sess.ID] = sess
	s.byUser[sess.CallerID] = sess
	s.byUser[sess.CalleeID] = sess
	s.mu.Unlock()

	metrics.IncCallStarted()
	s.watch(sess)

	out := event.CallOfferOut{
		Offer:    p.Offer,
		CallType: p.CallType,
		CallID:   sess.ID,
		Caller:   callerInfo(from, p.Caller),
	}
	if err := s.registry.Push(sess.CalleeID, event.CallOffer, out); err != nil {
		s.finish(sess.ID, from.ID, ReasonFailed)
		s.sendError(from.ID, msgUnreachable)
	}
}

// watch 双方任一掉线都结束会话；注册之后再确认一次在线状态，避免错过注册前的解绑
func (s *Service) watch(sess *Session) {
	unwatch := make([]func(), 0, 2)
	for _, uid := range []string{sess.CallerID, sess.CalleeID} {
		unwatch = append(unwatch, s.registry.WatchUnbind(uid, func() {
			s.participantGone(sess.ID, uid)
		}))
	}

	s.mu.Lock()
	_, alive := s.byID[sess.ID]
	if alive {
		sess.unwatch = unwatch
	}
	s.mu.Unlock()
	if !alive {
		for _, fn := range unwatch {
			fn()
		}
		return
	}

	for _, uid := range []string{sess.CallerID, sess.CalleeID} {
		if !s.registry.IsOnline(uid) {
			s.participantGone(sess.ID, uid)
			return
		}
	}
}

func (s *Service) participantGone(callID, userID string) {
	sess := s.finish(callID, userID, ReasonOffline)
	if sess == nil {
		return
	}
	zap.L().Info("call participant disconnected", zap.String("call_id", callID), zap.String("user_id", userID))
	s.push(sess.Peer(userID), event.CallEnd, event.CallReasonOut{Reason: ReasonOffline})
}

func (s *Service) answer(from string, data json.RawMessage) {
	var p event.CallAnswerPayload
	if err := event.Decode(data, &p); err != nil {
		s.sendError(from, err.Error())
		return
	}
	if !s.registry.IsOnline(p.TargetUserID) {
		s.sendError(from, msgOffline)
		return
	}

	s.mu.Lock()
	sess := s.pairSession(from, p.TargetUserID)
	if sess == nil || sess.CalleeID != from {
		s.mu.Unlock()
		zap.L().Debug("stray call answer ignored", zap.String("user_id", from), zap.String("target", p.TargetUserID))
		return
	}
	next, err := sess.State.Next(callstate.Answer)
	if err != nil {
		s.mu.Unlock()
		zap.L().Debug("call answer ignored", zap.String("call_id", sess.ID), zap.Error(err))
		return
	}
	sess.State = next
	callID := sess.ID
	s.mu.Unlock()

	s.push(p.TargetUserID, event.CallAnswer, event.CallAnswerOut{Answer: p.Answer, CallID: callID})
}

func (s *Service) iceCandidate(from string, data json.RawMessage) {
	var p event.CallIceCandidatePayload
	if err := event.Decode(data, &p); err != nil {
		s.sendError(from, err.Error())
		return
	}
	s.mu.Lock()
	sess := s.pairSession(from, p.TargetUserID)
	s.mu.Unlock()
	if sess == nil || !s.registry.IsOnline(p.TargetUserID) {
		return
	}
	s.push(p.TargetUserID, event.CallIceCandidate, event.CallIceCandidateOut{Candidate: p.Candidate})
}

func (s *Service) decline(from string, data json.RawMessage) {
	var p event.CallTargetPayload
	if err := event.Decode(data, &p); err != nil {
		s.sendError(from, err.Error())
		return
	}
	s.finishPair(from, p.TargetUserID, ReasonDeclined)
	if s.registry.IsOnline(p.TargetUserID) {
		s.push(p.TargetUserID, event.CallDecline, event.CallReasonOut{Reason: orDefault(p.Reason, ReasonDeclined)})
	}
}

func (s *Service) end(from string, data json.RawMessage) {
	var p event.CallTargetPayload
	if err := event.Decode(data, &p); err != nil {
		s.sendError(from, err.Error())
		return
	}
	s.finishPair(from, p.TargetUserID, ReasonEnded)
	if s.registry.IsOnline(p.TargetUserID) {
		s.push(p.TargetUserID, event.CallEnd, event.CallReasonOut{Reason: orDefault(p.Reason, ReasonEnded)})
		return
	}
	s.push(from, event.CallEnd, event.CallReasonOut{Reason: ReasonOffline})
}

func (s *Service) connected(from string, data json.RawMessage) {
	var p event.CallTargetPayload
	if err := event.Decode(data, &p); err != nil {
		s.sendError(from, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.pairSession(from, p.TargetUserID)
	if sess == nil {
		return
	}
	if next, err := sess.State.Next(callstate.Establish); err == nil {
		sess.State = next
	}
}

func (s *Service) failed(from string, data json.RawMessage) {
	var p event.CallTargetPayload
	if err := event.Decode(data, &p); err != nil {
		s.sendError(from, err.Error())
		return
	}
	if sess := s.finishPair(from, p.TargetUserID, ReasonFailed); sess == nil {
		return
	}
	s.push(p.TargetUserID, event.CallEnd, event.CallReasonOut{Reason: ReasonFailed})
}

// pairSession 调用方需持有 s.mu
func (s *Service) pairSession(a, b string) *Session {
	sess := s.byUser[a]
	if sess == nil || sess.Peer(a) != b {
		return nil
	}
	return sess
}

func (s *Service) finishPair(from, target, reason string) *Session {
	s.mu.Lock()
	sess := s.pairSession(from, target)
	s.mu.Unlock()
	if sess == nil {
		return nil
	}
	return s.finish(sess.ID, from, reason)
}

// finish 移除会话并取消掉线监听；会话已结束时返回 nil
func (s *Service) finish(callID, endedBy, reason string) *Session {
	s.mu.Lock()
	sess, ok := s.byID[callID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	prev := sess.State
	delete(s.byID, callID)
	if s.byUser[sess.CallerID] == sess {
		delete(s.byUser, sess.CallerID)
	}
	if s.byUser[sess.CalleeID] == sess {
		delete(s.byUser, sess.CalleeID)
	}
	sess.State, _ = sess.State.Next(callstate.Hangup)
	unwatch := sess.unwatch
	sess.unwatch = nil
	s.mu.Unlock()

	for _, fn := range unwatch {
		fn()
	}

	metrics.IncCallEnded(reason)
	mq.PublishAsync(s.publisher, mq.EventCallEnded, CallEnded{
		CallID:     sess.ID,
		CallerID:   sess.CallerID,
		CalleeID:   sess.CalleeID,
		CallType:   sess.CallType,
		Reason:     reason,
		EndedBy:    endedBy,
		State:      string(prev),
		DurationMs: time.Since(sess.StartedAt).Milliseconds(),
	})
	zap.L().Info("call ended", zap.String("call_id", callID), zap.String("reason", reason), zap.String("state", string(prev)))
	return sess
}

// SessionOf 返回用户当前会话的副本
func (s *Service) SessionOf(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return Session{}, false
	}
	cp := *sess
	cp.unwatch = nil
	return cp, true
}

func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Service) sendError(userID, msg string) {
	s.push(userID, event.CallError, event.CallErrorOut{Message: msg})
}

func (s *Service) push(userID, name string, data any) {
	if err := s.registry.Push(userID, name, data); err != nil && !errors.Is(err, ws.ErrNotConnected) {
		zap.L().Warn("call event dropped", zap.String("user_id", userID), zap.String("event", name), zap.Error(err))
	}
}

// callerInfo 优先使用连接时加载的资料，客户端上报的 caller 只补缺
func callerInfo(from event.CallerInfo, claimed *event.CallerInfo) event.CallerInfo {
	out := from
	if claimed != nil {
		if out.FullName == "" {
			out.FullName = claimed.FullName
		}
		if out.ProfilePic == "" {
			out.ProfilePic = claimed.ProfilePic
		}
	}
	if strings.TrimSpace(out.FullName) == "" {
		out.FullName = unknownCaller
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
