package service

import (
	"pulse_chat_server/internal/config"
	"pulse_chat_server/internal/dao/mysql/repository"
	myredis "pulse_chat_server/internal/dao/redis"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/infrastructure/mq"
	"pulse_chat_server/internal/infrastructure/storage"
	"pulse_chat_server/internal/service/ai"
	"pulse_chat_server/internal/service/auth"
	"pulse_chat_server/internal/service/chat"
	"pulse_chat_server/internal/service/friend"
	"pulse_chat_server/internal/service/ice"
	"pulse_chat_server/internal/service/message"
	"pulse_chat_server/internal/service/presence"
	"pulse_chat_server/internal/service/signaling"
	"pulse_chat_server/internal/service/user"
)

// Deps 装配 Service 所需的基础设施，Cache 和 Generator 可为 nil
type Deps struct {
	Config    *config.Config
	Repos     *repository.Repositories
	Cache     myredis.AsyncCacheService
	Registry  *ws.Registry
	Publisher mq.Publisher
	Images    storage.ImageStore
	Avatars   storage.ImageStore
	Generator ai.Generator
}

// Services 聚合所有 Service 实例，Router 通过它构造 Handler
type Services struct {
	User    UserService
	Auth    AuthService
	Friend  FriendService
	Message MessageService
	Ice     IceService
	AI      AIService
	Gateway RealtimeGateway

	Presence  *presence.Service
	Signaling *signaling.Service
}

// NewServices 依赖注入顺序：好友读路径 -> presence -> 好友服务 -> 其余
func NewServices(d Deps) *Services {
	friendIDs := friend.NewIDReader(d.Repos.Friendship, d.Cache)
	presenceSvc := presence.NewService(d.Registry, friendIDs)
	signalingSvc := signaling.NewService(d.Registry, d.Publisher)

	var cache myredis.CacheService
	if d.Cache != nil {
		cache = d.Cache
	}
	authSvc := auth.NewAuthService(cache)
	userSvc := user.NewUserService(d.Repos, authSvc, d.Avatars)

	return &Services{
		User:      userSvc,
		Auth:      authSvc,
		Friend:    friend.NewService(d.Repos, friendIDs, d.Registry, presenceSvc, d.Publisher),
		Message:   message.NewService(d.Repos, d.Images, d.Registry, d.Publisher),
		Ice:       ice.NewService(d.Config.IceConfig),
		AI:        ai.NewService(d.Repos, d.Generator, d.Config.AIConfig.GeminiModel),
		Gateway:   chat.NewGateway(d.Registry, presenceSvc, signalingSvc, userSvc, d.Config.CorsConfig.AllowOrigins),
		Presence:  presenceSvc,
		Signaling: signalingSvc,
	}
}

var (
	_ UserService     = (*user.Service)(nil)
	_ AuthService     = (*auth.Service)(nil)
	_ FriendService   = (*friend.Service)(nil)
	_ MessageService  = (*message.Service)(nil)
	_ IceService      = (*ice.Service)(nil)
	_ AIService       = (*ai.Service)(nil)
	_ RealtimeGateway = (*chat.Gateway)(nil)
)
