// Package chat 实时通道的连接生命周期
// 1. 升级 HTTP 连接 (Upgrade) 并绑定到 Registry，同一用户的旧连接被关闭
// 2. 绑定/解绑时驱动在线状态推送
// 3. 读协程按到达顺序把通话事件交给信令服务
package chat

import (
	"context"
	"net/http"
	"strings"

	"pulse_chat_server/internal/dto/event"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/infrastructure/metrics"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/internal/service/presence"
	"pulse_chat_server/internal/service/signaling"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ProfileLoader 连接建立时加载用户资料，用作来电显示
type ProfileLoader interface {
	Profile(ctx context.Context, userID string) (*model.UserInfo, error)
}

type Gateway struct {
	registry  *ws.Registry
	presence  *presence.Service
	signaling *signaling.Service
	profiles  ProfileLoader
	upgrader  *websocket.Upgrader
}

func NewGateway(registry *ws.Registry, presenceSvc *presence.Service, signalingSvc *signaling.Service,
	profiles ProfileLoader, allowOrigins []string) *Gateway {
	return &Gateway{
		registry:  registry,
		presence:  presenceSvc,
		signaling: signalingSvc,
		profiles:  profiles,
		upgrader:  ws.NewUpgrader(allowOrigins),
	}
}

// ServeWS 用户资料加载失败时不升级直接返回错误；成功升级后阻塞到连接关闭
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	ctx := context.WithoutCancel(r.Context())
	profile, err := g.profiles.Profile(ctx, userID)
	if err != nil {
		return err
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		zap.L().Warn("ws upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}

	transport := ws.NewWSTransport(conn)
	c := g.Attach(ctx, userID, transport)
	caller := event.CallerInfo{ID: userID, FullName: profile.FullName, ProfilePic: profile.ProfilePic}
	transport.ReadLoop(func(raw []byte) {
		g.Dispatch(ctx, caller, raw)
	})
	g.Detach(ctx, c)
	return nil
}

// Attach 绑定连接并推送在线状态，被替换的旧连接会被关闭
func (g *Gateway) Attach(ctx context.Context, userID string, t ws.Transport) *ws.Connection {
	c := ws.NewConnection(userID, t)
	if prev := g.registry.Bind(c); prev != nil {
		_ = prev.Transport.Close()
	}
	g.presence.OnConnect(ctx, c)
	return c
}

// Detach 仅当 c 仍是当前连接时才解绑并通知好友
func (g *Gateway) Detach(ctx context.Context, c *ws.Connection) {
	_ = c.Transport.Close()
	if g.registry.Unbind(c) {
		g.presence.OnDisconnect(ctx, c)
	}
}

// Dispatch 处理一帧上行消息
func (g *Gateway) Dispatch(ctx context.Context, from event.CallerInfo, raw []byte) {
	in, err := event.ParseInbound(raw)
	if err != nil {
		zap.L().Debug("malformed frame dropped", zap.String("user_id", from.ID), zap.Error(err))
		return
	}
	if event.IsCallEvent(in.Event) {
		metrics.IncWSEvent("in", in.Event)
	} else {
		metrics.IncWSEvent("in", "unknown")
	}

	if strings.HasPrefix(in.Event, "call:") {
		g.signaling.Handle(ctx, from, in.Event, in.Data)
		return
	}
	zap.L().Debug("unknown event dropped", zap.String("user_id", from.ID), zap.String("event", in.Event))
}
