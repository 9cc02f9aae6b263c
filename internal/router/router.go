// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"pulse_chat_server/internal/handler"
	"pulse_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// Router 持有 Handler 聚合，各子模块的注册方法挂在它上面
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes /api 下为业务接口，/ws 为实时通道
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	rt.RegisterAuthRoutes(api)

	authed := api.Group("")
	authed.Use(middleware.JWTAuth())
	{
		rt.RegisterUserRoutes(authed)
		rt.RegisterFriendRoutes(authed)
		rt.RegisterMessageRoutes(authed)
		rt.RegisterAIRoutes(authed)
		rt.RegisterWebRTCRoutes(authed)
	}

	rt.RegisterWebSocketRoutes(r.Group("", middleware.JWTAuth()))
}
