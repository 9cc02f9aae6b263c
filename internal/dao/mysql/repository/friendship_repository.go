package repository

import (
	"context"

	"pulse_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) CreatePair(ctx context.Context, a, b string) error {
	rows := []model.Friendship{
		{UserID: a, FriendID: b},
		{UserID: b, FriendID: a},
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return wrapDBErrorf(err, "create friendship %s <-> %s", a, b)
	}
	return nil
}

func (r *friendshipRepository) Exists(ctx context.Context, userID, friendID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return false, wrapDBError(err, "check friendship")
	}
	return count > 0, nil
}

func (r *friendshipRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "list friend ids user=%s", userID)
	}
	return ids, nil
}
