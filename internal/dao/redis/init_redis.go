package redis

import (
	"context"
	"strconv"
	"time"

	"pulse_chat_server/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Init 建立 Redis 连接并启动缓存 Worker
// 未启用或连接失败时返回 nil，调用方按无缓存运行
func Init(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		zap.L().Info("redis disabled, running without cache")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.Db,
		PoolSize:     50,
		MinIdleConns: 15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	workers, size := cfg.Workers, cfg.TaskSize
	if workers <= 0 {
		workers = 15
	}
	if size <= 0 {
		size = 3000
	}
	return NewRedisCache(client, workers, size), nil
}
