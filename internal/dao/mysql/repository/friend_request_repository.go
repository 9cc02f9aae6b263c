package repository

import (
	"context"
	"time"

	"pulse_chat_server/internal/model"

	"gorm.io/gorm"
)

type friendRequestRepository struct {
	db *gorm.DB
}

func NewFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &friendRequestRepository{db: db}
}

func (r *friendRequestRepository) FindByUuid(ctx context.Context, uuid string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.db.WithContext(ctx).First(&req, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "find friend request uuid=%s", uuid)
	}
	return &req, nil
}

func (r *friendRequestRepository) FindByPair(ctx context.Context, senderID, receiverID string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		First(&req).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "find friend request %s -> %s", senderID, receiverID)
	}
	return &req, nil
}

func (r *friendRequestRepository) Create(ctx context.Context, req *model.FriendRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return wrapDBError(err, "create friend request")
	}
	return nil
}

func (r *friendRequestRepository) Revive(ctx context.Context, req *model.FriendRequest) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("uuid = ? AND status <> ?", req.Uuid, model.FriendRequestPending).
		Updates(map[string]any{"status": model.FriendRequestPending, "updated_at": now})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "revive friend request uuid=%s", req.Uuid)
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	req.Status = model.FriendRequestPending
	req.UpdatedAt = now
	return true, nil
}

func (r *friendRequestRepository) UpdateStatusIfPending(ctx context.Context, uuid, status string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("uuid = ? AND status = ?", uuid, model.FriendRequestPending).
		Update("status", status)
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "update friend request uuid=%s", uuid)
	}
	return res.RowsAffected == 1, nil
}

func (r *friendRequestRepository) ListPendingForReceiver(ctx context.Context, receiverID string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, model.FriendRequestPending).
		Order("updated_at DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, wrapDBError(err, "list pending friend requests")
	}
	return reqs, nil
}
