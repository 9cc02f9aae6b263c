package friend

import (
	"context"
	"strconv"
	"time"

	"pulse_chat_server/internal/dao/mysql/repository"
	myredis "pulse_chat_server/internal/dao/redis"
	"pulse_chat_server/pkg/constants"

	"go.uber.org/zap"
)

// IDReader 好友 id 读路径：Redis 列表缓存 friend_ids:<uid>:<ver>，未命中回源数据库并异步回写
// 版本号 friend_ids_ver:<uid> 在好友关系变化时自增，晚到的回写只会落在旧版本的键上
// presence 和好友服务共用
type IDReader struct {
	repo  repository.FriendshipRepository
	cache myredis.AsyncCacheService // 可为 nil
}

func NewIDReader(repo repository.FriendshipRepository, cache myredis.AsyncCacheService) *IDReader {
	return &IDReader{repo: repo, cache: cache}
}

func cacheKey(userID, version string) string {
	return constants.FriendIDsKeyPrefix + userID + ":" + version
}

func versionKey(userID string) string {
	return constants.FriendIDsVerPrefix + userID
}

// FriendIDs 按成为好友的先后顺序返回
func (r *IDReader) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	version := ""
	if r.cache != nil {
		if v, err := r.version(ctx, userID); err != nil {
			zap.L().Warn("friend id cache version read failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			version = v
			ids, hit, err := r.cache.GetList(ctx, cacheKey(userID, version))
			if err == nil && hit {
				return ids, nil
			}
			if err != nil {
				zap.L().Warn("friend id cache read failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	ids, err := r.repo.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 版本在查库之前读取：查库期间发生的失效会让这次回写落到旧键上
	if version != "" && len(ids) > 0 {
		key := cacheKey(userID, version)
		snapshot := append([]string(nil), ids...)
		r.cache.SubmitTask(func() {
			bg, cancel := context.WithTimeout(context.Background(), time.Duration(constants.REDIS_TIMEOUT)*time.Minute)
			defer cancel()
			if err := r.cache.SetList(bg, key, snapshot, constants.FriendIDsCacheTTL); err != nil {
				zap.L().Warn("friend id cache write-back failed", zap.String("user_id", userID), zap.Error(err))
			}
		})
	}
	return ids, nil
}

// Invalidate 版本号自增并删除旧版本的缓存，好友关系变化后调用
func (r *IDReader) Invalidate(ctx context.Context, userIDs ...string) {
	if r.cache == nil {
		return
	}
	for _, id := range userIDs {
		next, err := r.cache.Incr(ctx, versionKey(id))
		if err != nil {
			zap.L().Warn("friend id cache invalidate failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		if err := r.cache.Delete(ctx, cacheKey(id, strconv.FormatInt(next-1, 10))); err != nil {
			zap.L().Debug("stale friend id cache not removed", zap.String("user_id", id), zap.Error(err))
		}
	}
}

func (r *IDReader) version(ctx context.Context, userID string) (string, error) {
	v, err := r.cache.Get(ctx, versionKey(userID))
	if err != nil {
		return "", err
	}
	if v == "" {
		return "0", nil
	}
	return v, nil
}
