package router

import (
	"pulse_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册、登录、刷新公开；其余需要登录
func (rt *Router) RegisterAuthRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/signup", rt.handlers.Auth.Signup)
		authGroup.POST("/login", rt.handlers.Auth.Login)
		authGroup.POST("/refresh", rt.handlers.Auth.Refresh)
	}

	authed := authGroup.Group("", middleware.JWTAuth())
	{
		authed.POST("/logout", rt.handlers.Auth.Logout)
		authed.GET("/check", rt.handlers.Auth.Check)
		authed.PUT("/update-profile", rt.handlers.Auth.UpdateProfile)
		authed.PUT("/update-name", rt.handlers.Auth.UpdateName)
	}
}
