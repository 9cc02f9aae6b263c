// Package service 定义 Handler 层依赖的业务接口，并负责装配各个 Service
package service

import (
	"context"
	"net/http"

	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
)

// UserService 账号与资料
type UserService interface {
	Signup(ctx context.Context, req request.SignupRequest) (*respond.AuthRespond, error)
	Login(ctx context.Context, req request.LoginRequest) (*respond.AuthRespond, error)
	Logout(ctx context.Context, userID string)
	Me(ctx context.Context, userID string) (*respond.UserRespond, error)
	UpdateProfilePic(ctx context.Context, userID, dataURL string) (*respond.UserRespond, error)
	UpdateName(ctx context.Context, userID, fullName string) (*respond.UserRespond, error)
	// Search 空查询返回 CodeInvalidParam，无结果返回 CodeNotFound
	Search(ctx context.Context, userID, query string) ([]*respond.UserRespond, error)
}

type AuthService interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// FriendService 好友申请与好友列表
type FriendService interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (*respond.FriendRequestRespond, error)
	Respond(ctx context.Context, responderID, requestID, action string) (*respond.RespondFriendResult, error)
	ListFriends(ctx context.Context, userID string) ([]*respond.UserRespond, error)
	ListPending(ctx context.Context, userID string) ([]*respond.FriendRequestRespond, error)
}

// MessageService 一对一消息
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID, text, image string) (*respond.MessageRespond, error)
	Delete(ctx context.Context, requesterID, messageID string) (*respond.MessageRespond, error)
	List(ctx context.Context, userID, otherID string) ([]*respond.MessageRespond, error)
}

// IceService 出错时仍返回可用的兜底结果
type IceService interface {
	Servers(ctx context.Context) (*respond.IceRespond, error)
}

type AIService interface {
	SuggestReply(ctx context.Context, userID, friendID, tone string) (string, error)
}

// RealtimeGateway 升级并服务一个已认证用户的 websocket 连接
type RealtimeGateway interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}
