package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories 聚合所有 Repository，作为 Service 层依赖注入的入口
type Repositories struct {
	db            *gorm.DB
	User          UserRepository
	FriendRequest FriendRequestRepository
	Friendship    FriendshipRepository
	Message       MessageRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		User:          NewUserRepository(db),
		FriendRequest: NewFriendRequestRepository(db),
		Friendship:    NewFriendshipRepository(db),
		Message:       NewMessageRepository(db),
	}
}

// Transaction 在事务中执行 fn，fn 返回错误时整体回滚
func (r *Repositories) Transaction(ctx context.Context, fn func(txRepos *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
