// Package handler 提供 HTTP 请求处理器
// 通过构造函数注入 Service 依赖，Router 层通过 Handlers 访问各个 Handler
package handler

import (
	"pulse_chat_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Friend  *FriendHandler
	Message *MessageHandler
	AI      *AIHandler
	Ice     *IceHandler
	Ws      *WsHandler
}

// NewHandlers secureCookie 控制 jwt cookie 的 Secure 属性
func NewHandlers(svc *service.Services, secureCookie bool) *Handlers {
	return &Handlers{
		Auth:    NewAuthHandler(svc.User, svc.Auth, secureCookie),
		User:    NewUserHandler(svc.User),
		Friend:  NewFriendHandler(svc.Friend),
		Message: NewMessageHandler(svc.Message, svc.Friend),
		AI:      NewAIHandler(svc.AI),
		Ice:     NewIceHandler(svc.Ice),
		Ws:      NewWsHandler(svc.Gateway),
	}
}
