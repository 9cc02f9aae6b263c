// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
package repository

import (
	"context"
	"time"

	"pulse_chat_server/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error)
	FindByEmail(ctx context.Context, email string) (*model.UserInfo, error)
	// FindByUuids 结果按 uuids 的顺序返回，不存在的 uuid 被跳过
	FindByUuids(ctx context.Context, uuids []string) ([]model.UserInfo, error)
	// Search 邮箱或姓名大小写不敏感的子串匹配，排除 excludeUuid
	Search(ctx context.Context, query, excludeUuid string, limit int) ([]model.UserInfo, error)
	Create(ctx context.Context, user *model.UserInfo) error
	Update(ctx context.Context, user *model.UserInfo) error
}

// FriendRequestRepository 好友申请数据访问接口
type FriendRequestRepository interface {
	FindByUuid(ctx context.Context, uuid string) (*model.FriendRequest, error)
	FindByPair(ctx context.Context, senderID, receiverID string) (*model.FriendRequest, error)
	Create(ctx context.Context, req *model.FriendRequest) error
	// Revive 将已处理的申请重置为 pending，返回是否由本次调用完成重置
	Revive(ctx context.Context, req *model.FriendRequest) (bool, error)
	// UpdateStatusIfPending 仅当状态仍为 pending 时更新，返回是否命中
	UpdateStatusIfPending(ctx context.Context, uuid, status string) (bool, error)
	// ListPendingForReceiver 收到的待处理申请，最新在前
	ListPendingForReceiver(ctx context.Context, receiverID string) ([]model.FriendRequest, error)
}

// FriendshipRepository 好友关系数据访问接口
type FriendshipRepository interface {
	// CreatePair 写入双向关系，已存在的行被忽略
	CreatePair(ctx context.Context, a, b string) error
	Exists(ctx context.Context, userID, friendID string) (bool, error)
	// FriendIDs 按成为好友的先后顺序返回
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByUuid(ctx context.Context, uuid string) (*model.Message, error)
	// ListBetween 两人之间的全部消息，created_at, id 升序
	ListBetween(ctx context.Context, a, b string) ([]model.Message, error)
	// RecentBetween 最近 n 条，仍按升序返回
	RecentBetween(ctx context.Context, a, b string, n int) ([]model.Message, error)
	// Tombstone 仅当消息未删除时置为墓碑，返回是否命中
	Tombstone(ctx context.Context, uuid, deletedBy string, at time.Time) (bool, error)
}
