package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"pulse_chat_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache 同时实现 CacheService 与 AsyncCacheService
// 模块按需声明最小接口
type RedisCache struct {
	client       *redis.Client
	taskChan     chan func()
	workerNum    int
	taskChanSize int
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

func NewRedisCache(client *redis.Client, workerNum, taskChanSize int) *RedisCache {
	rc := &RedisCache{
		client:       client,
		taskChan:     make(chan func(), taskChanSize),
		workerNum:    workerNum,
		taskChanSize: taskChanSize,
	}
	rc.wg.Add(workerNum)
	for i := 0; i < workerNum; i++ {
		go func() {
			defer rc.wg.Done()
			rc.startWorker()
		}()
	}
	zap.L().Info("Redis Cache Workers started", zap.Int("workers", workerNum), zap.Int("buffer", taskChanSize))
	return rc
}

// startWorker 消费任务，单个任务 panic 不会终止 worker
func (r *RedisCache) startWorker() {
	for task := range r.taskChan {
		r.runTask(task)
	}
}

func (r *RedisCache) runTask(task func()) {
	if task == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("Redis Worker panic", zap.Any("recover", rec))
		}
	}()
	task()
}

// ==================== String 操作 ====================

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

func (r *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errorx.Wrapf(err, errorx.CodeCacheError, "redis incr key %s", key)
	}
	return n, nil
}

// ==================== Key 操作 ====================

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Unlink(ctx, key).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink key %s", key)
	}
	return nil
}

// ==================== List 操作 ====================

func (r *RedisCache) SetList(ctx context.Context, key string, values []string, ttl time.Duration) error {
	members := make([]interface{}, len(values))
	for i, v := range values {
		members[i] = v
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.RPush(ctx, key, members...)
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis replace list %s", key)
	}
	return nil
}

func (r *RedisCache) GetList(ctx context.Context, key string) ([]string, bool, error) {
	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, false, errorx.Wrapf(err, errorx.CodeCacheError, "redis lrange key %s", key)
	}
	// 空列表在 Redis 中不存在，等价于未命中
	return values, len(values) > 0, nil
}

// ==================== 异步任务 ====================

// SubmitTask 提交异步缓存任务，队列已满时同步执行
func (r *RedisCache) SubmitTask(action func()) {
	select {
	case r.taskChan <- action:
	default:
		zap.L().Warn("Redis cache task channel full, executing synchronously")
		r.runTask(action)
	}
}

// Close 等待排队任务执行完毕后关闭连接
func (r *RedisCache) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.taskChan)
		r.wg.Wait()
		err = r.client.Close()
	})
	return err
}

var _ AsyncCacheService = (*RedisCache)(nil)
