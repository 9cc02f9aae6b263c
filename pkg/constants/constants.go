package constants

import "time"

const (
	CHANNEL_SIZE  = 100     // 通道大小
	FILE_MAX_SIZE = 5 << 20 // image upload limit in bytes
	REDIS_TIMEOUT = 1       // redis timeout (分钟)
)

const (
	FriendIDsKeyPrefix  = "friend_ids:"
	FriendIDsVerPrefix  = "friend_ids_ver:"
	UserTokenKeyPrefix  = "user_token:"
	FriendIDsCacheTTL   = 24 * time.Hour
	AuthCookieName      = "jwt"
	ContextUserIDKey    = "user_id"
	RecentMessageWindow = 20
)

// realtime ping/pong timing
const (
	WSWriteWait  = 10 * time.Second
	WSPongWait   = 60 * time.Second
	WSPingPeriod = (WSPongWait * 9) / 10
	WSMaxMessage = 64 << 10
)
