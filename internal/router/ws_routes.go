package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 实时通道入口
// 浏览器无法自定义握手头，token 可以通过 jwt cookie 或 ?token= 传递
// 请求示例: ws://host:port/ws?token=xxx
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", rt.handlers.Ws.Connect)
}
