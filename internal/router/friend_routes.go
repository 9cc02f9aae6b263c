package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterFriendRoutes 好友列表与好友申请
func (rt *Router) RegisterFriendRoutes(rg *gin.RouterGroup) {
	friendGroup := rg.Group("/friends")
	{
		friendGroup.GET("", rt.handlers.Friend.List)
		friendGroup.GET("/requests", rt.handlers.Friend.Pending)
		friendGroup.POST("/request", rt.handlers.Friend.SendRequest)
		friendGroup.POST("/respond", rt.handlers.Friend.Respond)
	}
}
