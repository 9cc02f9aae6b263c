package handler

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/infrastructure/middleware"
	"pulse_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler 一对一消息；侧边栏联系人即好友列表
type MessageHandler struct {
	messageSvc service.MessageService
	friendSvc  service.FriendService
}

func NewMessageHandler(messageSvc service.MessageService, friendSvc service.FriendService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc, friendSvc: friendSvc}
}

// Sidebar GET /api/messages/users
func (h *MessageHandler) Sidebar(c *gin.Context) {
	data, err := h.friendSvc.ListFriends(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Conversation 与 :id 的全部消息，时间升序
// GET /api/messages/:id
func (h *MessageHandler) Conversation(c *gin.Context) {
	data, err := h.messageSvc.List(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Send POST /api/messages/send/:id
// 响应: 201 respond.MessageRespond
func (h *MessageHandler) Send(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.messageSvc.Send(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Text, req.Image)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// Delete 墓碑删除，重复调用返回同一结果
// DELETE /api/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	data, err := h.messageSvc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
