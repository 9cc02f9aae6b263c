package repository

import (
	"context"
	"time"

	"pulse_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return wrapDBError(err, "create message")
	}
	return nil
}

func (r *messageRepository) FindByUuid(ctx context.Context, uuid string) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).First(&msg, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "find message uuid=%s", uuid)
	}
	return &msg, nil
}

func (r *messageRepository) pair(ctx context.Context, a, b string) *gorm.DB {
	return r.db.WithContext(ctx).Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		a, b, b, a,
	)
}

func (r *messageRepository) ListBetween(ctx context.Context, a, b string) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.pair(ctx, a, b).Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, wrapDBError(err, "list messages")
	}
	return msgs, nil
}

func (r *messageRepository) RecentBetween(ctx context.Context, a, b string, n int) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.pair(ctx, a, b).Order("created_at DESC, id DESC").Limit(n).Find(&msgs).Error; err != nil {
		return nil, wrapDBError(err, "list recent messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *messageRepository) Tombstone(ctx context.Context, uuid, deletedBy string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("uuid = ? AND is_deleted = ?", uuid, false).
		Updates(map[string]any{
			"text":       "",
			"image":      nil,
			"is_deleted": true,
			"deleted_at": at,
			"deleted_by": deletedBy,
		})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "tombstone message uuid=%s", uuid)
	}
	return res.RowsAffected == 1, nil
}
