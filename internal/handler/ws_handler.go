package handler

import (
	"net/http"

	"pulse_chat_server/internal/infrastructure/middleware"
	"pulse_chat_server/internal/service"
	"pulse_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// WsHandler 把已认证的请求升级为实时连接
type WsHandler struct {
	gateway service.RealtimeGateway
}

func NewWsHandler(gateway service.RealtimeGateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// Connect GET /ws
// 阻塞直到连接关闭；token 对应的用户不存在时拒绝握手
func (h *WsHandler) Connect(c *gin.Context) {
	err := h.gateway.ServeWS(c.Writer, c.Request, middleware.UserID(c))
	if err == nil {
		return
	}
	if errorx.IsNotFound(err) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ResponseData{
			Code: errorx.CodeUnauthorized,
			Msg:  "Unauthorized - User not found",
		})
		return
	}
	HandleError(c, err)
}
