package handler

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/infrastructure/middleware"
	"pulse_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友与好友申请
type FriendHandler struct {
	friendSvc service.FriendService
}

func NewFriendHandler(friendSvc service.FriendService) *FriendHandler {
	return &FriendHandler{friendSvc: friendSvc}
}

// List GET /api/friends
func (h *FriendHandler) List(c *gin.Context) {
	data, err := h.friendSvc.ListFriends(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Pending 待处理的收到的申请
// GET /api/friends/requests
func (h *FriendHandler) Pending(c *gin.Context) {
	data, err := h.friendSvc.ListPending(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// SendRequest POST /api/friends/request
// 响应: 201 respond.FriendRequestRespond
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req request.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.friendSvc.SendRequest(c.Request.Context(), middleware.UserID(c), req.ReceiverID)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// Respond POST /api/friends/respond
// action: accept | decline
func (h *FriendHandler) Respond(c *gin.Context) {
	var req request.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.friendSvc.Respond(c.Request.Context(), middleware.UserID(c), req.RequestID, req.Action)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
