package handler

import (
	"pulse_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

type IceHandler struct {
	iceSvc service.IceService
}

func NewIceHandler(iceSvc service.IceService) *IceHandler {
	return &IceHandler{iceSvc: iceSvc}
}

// Servers GET /api/webrtc/ice
// TURN 服务失败时返回 502，data 中仍带 STUN 兜底列表
func (h *IceHandler) Servers(c *gin.Context) {
	data, err := h.iceSvc.Servers(c.Request.Context())
	if err != nil {
		HandleErrorWithData(c, err, data)
		return
	}
	HandleSuccess(c, data)
}
