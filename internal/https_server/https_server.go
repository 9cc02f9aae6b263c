// Package https_server 创建 Gin 引擎并配置中间件、静态资源和路由
package https_server

import (
	"net/http"
	"time"

	"pulse_chat_server/internal/config"
	"pulse_chat_server/internal/handler"
	"pulse_chat_server/internal/infrastructure/logger"
	"pulse_chat_server/internal/infrastructure/metrics"
	"pulse_chat_server/internal/infrastructure/middleware"
	"pulse_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Init 配置顺序：
//  1. 日志、恢复、tracing、metrics 中间件
//  2. CORS（允许携带 jwt cookie）
//  3. TLS 重定向（启用 TLS 时）
//  4. 静态资源、健康检查、/metrics
//  5. 业务路由
func Init(conf *config.Config, handlers *handler.Handlers) *gin.Engine {
	if conf.MainConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))
	engine.Use(otelgin.Middleware(conf.TracingConfig.ServiceName))
	engine.Use(metrics.HTTPMetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.CorsConfig.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	engine.Use(cors.New(corsConfig))

	if conf.TLSConfig.Enabled {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	// /static/avatars -> 头像；/static/images -> 消息图片
	engine.Static("/static/avatars", conf.StaticAvatarPath)
	engine.Static("/static/images", conf.StaticImagePath)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	engine.GET("/metrics", metrics.Handler())

	router.NewRouter(handlers).RegisterRoutes(engine)
	return engine
}
