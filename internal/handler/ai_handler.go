package handler

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/internal/infrastructure/middleware"
	"pulse_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	aiSvc service.AIService
}

func NewAIHandler(aiSvc service.AIService) *AIHandler {
	return &AIHandler{aiSvc: aiSvc}
}

// SuggestReply POST /api/ai/suggest-reply/:id
func (h *AIHandler) SuggestReply(c *gin.Context) {
	var req request.SuggestReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	suggestion, err := h.aiSvc.SuggestReply(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Tone)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.SuggestReplyRespond{Suggestion: suggestion})
}
