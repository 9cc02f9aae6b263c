package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 静态的 /users 优先于 /:id 匹配
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/messages")
	{
		messageGroup.GET("/users", rt.handlers.Message.Sidebar)
		messageGroup.GET("/:id", rt.handlers.Message.Conversation)
		messageGroup.POST("/send/:id", rt.handlers.Message.Send)
		messageGroup.DELETE("/:id", rt.handlers.Message.Delete)
	}
}

func (rt *Router) RegisterAIRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai/suggest-reply/:id", rt.handlers.AI.SuggestReply)
}

func (rt *Router) RegisterWebRTCRoutes(rg *gin.RouterGroup) {
	rg.GET("/webrtc/ice", rt.handlers.Ice.Servers)
}
