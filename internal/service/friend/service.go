// Package friend 好友关系：好友申请、处理申请、好友列表
package friend

import (
	"context"
	"errors"
	"strings"

	"pulse_chat_server/internal/dao/mysql/repository"
	"pulse_chat_server/internal/dto/event"
	"pulse_chat_server/internal/dto/respond"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/infrastructure/mq"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// Pusher 实时推送，由 websocket Registry 实现
type Pusher interface {
	Push(userID, name string, data any) error
}

// PresenceNotifier 好友关系变化后刷新双方在线视图
type PresenceNotifier interface {
	OnFriendshipChanged(ctx context.Context, a, b string)
}

type Service struct {
	repos     *repository.Repositories
	ids       *IDReader
	pusher    Pusher
	presence  PresenceNotifier
	publisher mq.Publisher
}

func NewService(repos *repository.Repositories, ids *IDReader, pusher Pusher, presence PresenceNotifier, publisher mq.Publisher) *Service {
	return &Service{repos: repos, ids: ids, pusher: pusher, presence: presence, publisher: publisher}
}

// SendRequest 发起好友申请；已拒绝或已接受的旧申请会被复用并重置为 pending
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID string) (*respond.FriendRequestRespond, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "receiverId is required")
	}
	if receiverID == senderID {
		return nil, errorx.New(errorx.CodeInvalidParam, "You cannot send a friend request to yourself")
	}

	if _, err := s.repos.User.FindByUuid(ctx, receiverID); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "User not found")
		}
		return nil, err
	}

	friends, err := s.repos.Friendship.Exists(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, errorx.ErrAlreadyFriends
	}

	reverse, err := s.repos.FriendRequest.FindByPair(ctx, receiverID, senderID)
	if err != nil && !errorx.IsNotFound(err) {
		return nil, err
	}
	if reverse != nil && reverse.IsPending() {
		return nil, errorx.ErrReverseRequestExists
	}

	req, err := s.repos.FriendRequest.FindByPair(ctx, senderID, receiverID)
	switch {
	case err == nil && req.IsPending():
		return nil, errorx.ErrDuplicatePending
	case err == nil:
		revived, err := s.repos.FriendRequest.Revive(ctx, req)
		if err != nil {
			return nil, err
		}
		// 并发下另一次发送已经完成重置
		if !revived {
			return nil, errorx.ErrDuplicatePending
		}
	case errorx.IsNotFound(err):
		req = &model.FriendRequest{
			Uuid:       snowflake.WithPrefix("R"),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     model.FriendRequestPending,
		}
		if err := s.repos.FriendRequest.Create(ctx, req); err != nil {
			// 并发下另一条相同申请先写入
			if errorx.GetCode(err) == errorx.CodeConflict {
				return nil, errorx.ErrDuplicatePending
			}
			return nil, err
		}
	default:
		return nil, err
	}

	sender, err := s.repos.User.FindByUuid(ctx, senderID)
	if err != nil {
		zap.L().Warn("load friend request sender failed", zap.String("sender_id", senderID), zap.Error(err))
	} else {
		req.Sender = sender
	}

	out := respond.NewFriendRequestRespond(req)
	s.push(receiverID, event.FriendRequestNew, out)
	mq.PublishAsync(s.publisher, mq.EventFriendRequestSent, out)
	return out, nil
}

// Respond 接受或拒绝申请，只有接收方可以处理
func (s *Service) Respond(ctx context.Context, responderID, requestID, action string) (*respond.RespondFriendResult, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != ActionAccept && action != ActionDecline {
		return nil, errorx.New(errorx.CodeInvalidParam, "action must be accept or decline")
	}

	req, err := s.repos.FriendRequest.FindByUuid(ctx, requestID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "Friend request not found")
		}
		return nil, err
	}
	if req.ReceiverID != responderID {
		return nil, errorx.New(errorx.CodeForbidden, "You can only respond to requests sent to you")
	}
	if !req.IsPending() {
		return nil, errorx.ErrAlreadyHandled
	}

	if action == ActionDecline {
		return s.decline(ctx, req)
	}
	return s.accept(ctx, req)
}

func (s *Service) accept(ctx context.Context, req *model.FriendRequest) (*respond.RespondFriendResult, error) {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		ok, err := tx.FriendRequest.UpdateStatusIfPending(ctx, req.Uuid, model.FriendRequestAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return errorx.ErrAlreadyHandled
		}
		return tx.Friendship.CreatePair(ctx, req.SenderID, req.ReceiverID)
	})
	if err != nil {
		return nil, err
	}

	s.ids.Invalidate(ctx, req.SenderID, req.ReceiverID)

	users, err := s.repos.User.FindByUuids(ctx, []string{req.SenderID, req.ReceiverID})
	if err != nil {
		zap.L().Warn("load users after accept failed", zap.String("request_id", req.Uuid), zap.Error(err))
	}
	var senderView, receiverView *respond.UserRespond
	for i := range users {
		switch users[i].Uuid {
		case req.SenderID:
			senderView = respond.NewUserRespond(&users[i])
		case req.ReceiverID:
			receiverView = respond.NewUserRespond(&users[i])
		}
	}

	update := event.FriendRequestUpdateOut{RequestID: req.Uuid, Status: model.FriendRequestAccepted}
	if receiverView != nil {
		update.Friend = receiverView
	}
	s.push(req.SenderID, event.FriendRequestUpdate, update)

	if s.presence != nil {
		s.presence.OnFriendshipChanged(ctx, req.SenderID, req.ReceiverID)
	}
	mq.PublishAsync(s.publisher, mq.EventFriendAccepted, update)

	return &respond.RespondFriendResult{Status: model.FriendRequestAccepted, Friend: senderView}, nil
}

func (s *Service) decline(ctx context.Context, req *model.FriendRequest) (*respond.RespondFriendResult, error) {
	ok, err := s.repos.FriendRequest.UpdateStatusIfPending(ctx, req.Uuid, model.FriendRequestDeclined)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorx.ErrAlreadyHandled
	}
	s.push(req.SenderID, event.FriendRequestUpdate, event.FriendRequestUpdateOut{
		RequestID: req.Uuid,
		Status:    model.FriendRequestDeclined,
	})
	return &respond.RespondFriendResult{Status: model.FriendRequestDeclined}, nil
}

// ListFriends 好友的公开资料，按成为好友的先后顺序
func (s *Service) ListFriends(ctx context.Context, userID string) ([]*respond.UserRespond, error) {
	ids, err := s.ids.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*respond.UserRespond{}, nil
	}
	users, err := s.repos.User.FindByUuids(ctx, ids)
	if err != nil {
		return nil, err
	}
	return respond.NewUserList(users), nil
}

func (s *Service) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	return s.ids.FriendIDs(ctx, userID)
}

func (s *Service) IsFriend(ctx context.Context, a, b string) (bool, error) {
	return s.repos.Friendship.Exists(ctx, a, b)
}

// ListPending 收到的待处理申请，最新在前
func (s *Service) ListPending(ctx context.Context, userID string) ([]*respond.FriendRequestRespond, error) {
	reqs, err := s.repos.FriendRequest.ListPendingForReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*respond.FriendRequestRespond, 0, len(reqs))
	if len(reqs) == 0 {
		return out, nil
	}

	senderIDs := make([]string, 0, len(reqs))
	for _, r := range reqs {
		senderIDs = append(senderIDs, r.SenderID)
	}
	senders, err := s.repos.User.FindByUuids(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.UserInfo, len(senders))
	for i := range senders {
		byID[senders[i].Uuid] = &senders[i]
	}

	for i := range reqs {
		reqs[i].Sender = byID[reqs[i].SenderID]
		out = append(out, respond.NewFriendRequestRespond(&reqs[i]))
	}
	return out, nil
}

func (s *Service) push(userID, name string, data any) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(userID, name, data); err != nil && !errors.Is(err, ws.ErrNotConnected) {
		zap.L().Warn("realtime push failed", zap.String("user_id", userID), zap.String("event", name), zap.Error(err))
	}
}
