package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse_chat_server/internal/config"
	dao "pulse_chat_server/internal/dao/mysql"
	myredis "pulse_chat_server/internal/dao/redis"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/handler"
	"pulse_chat_server/internal/https_server"
	"pulse_chat_server/internal/infrastructure/logger"
	"pulse_chat_server/internal/infrastructure/mq"
	"pulse_chat_server/internal/infrastructure/storage"
	"pulse_chat_server/internal/infrastructure/tracing"
	"pulse_chat_server/internal/service"
	"pulse_chat_server/internal/service/ai"
	"pulse_chat_server/pkg/util/jwt"
	"pulse_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (defaults to the search paths)")
	flag.Parse()

	// 1. 加载配置
	conf := config.GetConfig()
	if *configPath != "" {
		c, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
		conf = c
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer zap.L().Sync()

	// 3. 初始化 tracing
	shutdownTracing, err := tracing.Init(context.Background(), conf.TracingConfig)
	if err != nil {
		zap.L().Fatal("init tracing failed", zap.Error(err))
	}

	// 4. 初始化 ID 生成器与 JWT
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)

	// 5. 初始化数据库
	repos, _, err := dao.Init(conf.DatabaseConfig)
	if err != nil {
		zap.L().Fatal("init database failed", zap.Error(err))
	}
	zap.L().Info("数据库初始化成功", zap.String("driver", conf.DatabaseConfig.Driver))

	// 6. 初始化 Redis，失败时按无缓存运行
	deps := service.Deps{Config: conf, Repos: repos}
	redisCache, err := myredis.Init(conf.RedisConfig)
	if err != nil {
		zap.L().Warn("redis unavailable, running without cache", zap.Error(err))
	}
	if redisCache != nil {
		deps.Cache = redisCache
		defer redisCache.Close()
	}

	// 7. 领域事件发布
	publisher := mq.NewPublisher(conf.MQConfig)
	defer publisher.Close()
	zap.L().Info("event publisher ready", zap.String("mode", mq.PublisherMode(publisher)))
	deps.Publisher = publisher

	// 8. 图片存储与 AI
	deps.Avatars = storage.NewLocalImageStore(conf.StaticAvatarPath, "/static/avatars")
	deps.Images = storage.NewLocalImageStore(conf.StaticImagePath, "/static/images")
	if conf.AIConfig.GeminiAPIKey != "" {
		gen, err := ai.NewGeminiGenerator(context.Background(), conf.AIConfig.GeminiAPIKey)
		if err != nil {
			zap.L().Warn("gemini client unavailable, ai suggestions disabled", zap.Error(err))
		} else {
			deps.Generator = gen
			defer gen.Close()
		}
	}

	// 9. Service 与 Handler (依赖注入)
	deps.Registry = ws.NewRegistry()
	svc := service.NewServices(deps)
	if err := handler.InitTrans("en"); err != nil {
		zap.L().Fatal("init validator translator failed", zap.Error(err))
	}
	engine := https_server.Init(conf, handler.NewHandlers(svc, conf.JWTConfig.SecureCookie))

	// 10. 启动服务
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zap.L().Info("server listening", zap.String("addr", srv.Addr), zap.Bool("tls", conf.TLSConfig.Enabled))
		var err error
		if conf.TLSConfig.Enabled {
			err = srv.ListenAndServeTLS(conf.TLSConfig.CertFile, conf.TLSConfig.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// websocket 连接已被 hijack，Shutdown 不会等待它们
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		zap.L().Warn("tracing shutdown failed", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
}
