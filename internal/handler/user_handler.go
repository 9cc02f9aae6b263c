package handler

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/infrastructure/middleware"
	"pulse_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户查询
type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Search 按邮箱或昵称模糊搜索，不包含自己
// GET /api/users/search?query=xxx
func (h *UserHandler) Search(c *gin.Context) {
	var req request.SearchUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Search(c.Request.Context(), middleware.UserID(c), req.Query)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
