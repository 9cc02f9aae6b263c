// Package presence 计算并推送"在线好友"视图
// 视图只发给拥有者本人，内容是其好友中当前已绑定连接的用户，按好友列表顺序
package presence

import (
	"context"

	"pulse_chat_server/internal/dto/event"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/infrastructure/metrics"
	"pulse_chat_server/internal/infrastructure/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// FriendLister 好友 id 读取接口，由好友服务的读路径实现
type FriendLister interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

type Service struct {
	registry *ws.Registry
	friends  FriendLister
}

func NewService(registry *ws.Registry, friends FriendLister) *Service {
	return &Service{registry: registry, friends: friends}
}

// PublishPresence 重新读取好友列表，更新连接上的快照并推送 getOnlineUsers
// 用户不在线时什么也不做
func (s *Service) PublishPresence(ctx context.Context, userID string) {
	conn, ok := s.registry.Lookup(userID)
	if !ok {
		return
	}

	// 计算和发送不能分开：并发的两轮推送必须按计算顺序到达
	err := conn.EmitPresence(func() []string {
		friendIDs := s.lookupFriends(ctx, userID)
		conn.SetFriendIDs(friendIDs)

		online := make([]string, 0, len(friendIDs))
		for _, id := range friendIDs {
			if s.registry.IsOnline(id) {
				online = append(online, id)
			}
		}
		return online
	})
	if err != nil {
		zap.L().Debug("presence push skipped", zap.String("user_id", userID), zap.Error(err))
		return
	}
	metrics.IncWSEvent("out", event.GetOnlineUsers)
}

// NotifyFriendsOf 为 userID 的每个在线好友重新计算视图
// friendIDs 为 nil 时使用连接快照，没有快照则重新查询
func (s *Service) NotifyFriendsOf(ctx context.Context, userID string, friendIDs []string) {
	ctx, span := tracing.Start(ctx, "presence.notify_friends", trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	if friendIDs == nil {
		if conn, ok := s.registry.Lookup(userID); ok {
			friendIDs = conn.FriendIDs()
		}
		if len(friendIDs) == 0 {
			friendIDs = s.lookupFriends(ctx, userID)
		}
	}

	notified := 0
	for _, id := range friendIDs {
		if s.registry.IsOnline(id) {
			s.PublishPresence(ctx, id)
			notified++
		}
	}
	span.SetAttributes(attribute.Int("friends_notified", notified))
}

// OnConnect 新连接绑定后：先推送自己的视图，再通知好友
func (s *Service) OnConnect(ctx context.Context, conn *ws.Connection) {
	s.PublishPresence(ctx, conn.UserID)
	s.NotifyFriendsOf(ctx, conn.UserID, conn.FriendIDs())
}

// OnDisconnect 连接解绑后按断开连接的快照通知好友
func (s *Service) OnDisconnect(ctx context.Context, conn *ws.Connection) {
	snapshot := conn.FriendIDs()
	if len(snapshot) == 0 {
		snapshot = nil
	}
	s.NotifyFriendsOf(ctx, conn.UserID, snapshot)
}

// OnFriendshipChanged 新建好友关系后刷新双方视图
func (s *Service) OnFriendshipChanged(ctx context.Context, a, b string) {
	s.PublishPresence(ctx, a)
	s.PublishPresence(ctx, b)
}

// lookupFriends 查询失败时降级为空列表，本轮视图为空
func (s *Service) lookupFriends(ctx context.Context, userID string) []string {
	ids, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		metrics.IncPresenceLookupFailure()
		zap.L().Warn("presence friend lookup failed, using empty list",
			zap.String("user_id", userID), zap.Error(err))
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}
