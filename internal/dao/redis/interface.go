// Package redis 定义缓存服务接口及其 Redis 实现
// Service 层依赖接口，缓存不可用时允许传入 nil
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
type CacheService interface {
	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 键不存在返回空字符串和 nil
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// Incr 自增计数器并返回新值，键不存在时从 0 开始
	Incr(ctx context.Context, key string) (int64, error)

	// SetList 原子替换整个列表并设置过期时间，保持元素顺序
	SetList(ctx context.Context, key string, values []string, ttl time.Duration) error
	// GetList 返回列表内容，hit=false 表示键不存在
	GetList(ctx context.Context, key string) (values []string, hit bool, err error)
}

// AsyncCacheService 附带异步任务提交能力，用于非阻塞的缓存回写
type AsyncCacheService interface {
	CacheService
	SubmitTask(action func())
}
