package handler

import (
	"context"
	"net/http"

	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"

	"github.com/stretchr/testify/mock"
)

type UserServiceMock struct {
	mock.Mock
}

func (m *UserServiceMock) Signup(ctx context.Context, req request.SignupRequest) (*respond.AuthRespond, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*respond.AuthRespond), args.Error(1)
}

func (m *UserServiceMock) Login(ctx context.Context, req request.LoginRequest) (*respond.AuthRespond, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*respond.AuthRespond), args.Error(1)
}

func (m *UserServiceMock) Logout(ctx context.Context, userID string) {
	m.Called(ctx, userID)
}

func (m *UserServiceMock) Me(ctx context.Context, userID string) (*respond.UserRespond, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*respond.UserRespond), args.Error(1)
}

func (m *UserServiceMock) UpdateProfilePic(ctx context.Context, userID, dataURL string) (*respond.UserRespond, error) {
	args := m.Called(ctx, userID, dataURL)
	return args.Get(0).(*respond.UserRespond), args.Error(1)
}

func (m *UserServiceMock) UpdateName(ctx context.Context, userID, fullName string) (*respond.UserRespond, error) {
	args := m.Called(ctx, userID, fullName)
	return args.Get(0).(*respond.UserRespond), args.Error(1)
}

func (m *UserServiceMock) Search(ctx context.Context, userID, query string) ([]*respond.UserRespond, error) {
	args := m.Called(ctx, userID, query)
	return args.Get(0).([]*respond.UserRespond), args.Error(1)
}

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

type FriendServiceMock struct {
	mock.Mock
}

func (m *FriendServiceMock) SendRequest(ctx context.Context, senderID, receiverID string) (*respond.FriendRequestRespond, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Get(0).(*respond.FriendRequestRespond), args.Error(1)
}

func (m *FriendServiceMock) Respond(ctx context.Context, responderID, requestID, action string) (*respond.RespondFriendResult, error) {
	args := m.Called(ctx, responderID, requestID, action)
	return args.Get(0).(*respond.RespondFriendResult), args.Error(1)
}

func (m *FriendServiceMock) ListFriends(ctx context.Context, userID string) ([]*respond.UserRespond, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*respond.UserRespond), args.Error(1)
}

func (m *FriendServiceMock) ListPending(ctx context.Context, userID string) ([]*respond.FriendRequestRespond, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*respond.FriendRequestRespond), args.Error(1)
}

type MessageServiceMock struct {
	mock.Mock
}

func (m *MessageServiceMock) Send(ctx context.Context, senderID, receiverID, text, image string) (*respond.MessageRespond, error) {
	args := m.Called(ctx, senderID, receiverID, text, image)
	return args.Get(0).(*respond.MessageRespond), args.Error(1)
}

func (m *MessageServiceMock) Delete(ctx context.Context, requesterID, messageID string) (*respond.MessageRespond, error) {
	args := m.Called(ctx, requesterID, messageID)
	return args.Get(0).(*respond.MessageRespond), args.Error(1)
}

func (m *MessageServiceMock) List(ctx context.Context, userID, otherID string) ([]*respond.MessageRespond, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Get(0).([]*respond.MessageRespond), args.Error(1)
}

type IceServiceMock struct {
	mock.Mock
}

func (m *IceServiceMock) Servers(ctx context.Context) (*respond.IceRespond, error) {
	args := m.Called(ctx)
	return args.Get(0).(*respond.IceRespond), args.Error(1)
}

type AIServiceMock struct {
	mock.Mock
}

func (m *AIServiceMock) SuggestReply(ctx context.Context, userID, friendID, tone string) (string, error) {
	args := m.Called(ctx, userID, friendID, tone)
	return args.String(0), args.Error(1)
}

type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}
