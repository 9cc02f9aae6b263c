package router

import (
	"github.com/gin-gonic/gin"
)

func (rt *Router) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/search", rt.handlers.User.Search)
}
