package model

import "gorm.io/gorm"

// FriendRequest 状态
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestDeclined = "declined"
)

// FriendRequest 好友申请，对应 friend_request 表
// 同一 (sender, receiver) 只有一行，被拒绝或已处理的申请重新发送时复用该行
type FriendRequest struct {
	gorm.Model

	Uuid       string `gorm:"column:uuid;uniqueIndex;type:varchar(24);not null"`
	SenderID   string `gorm:"column:sender_id;uniqueIndex:idx_friend_request_pair;type:varchar(24);not null"`
	ReceiverID string `gorm:"column:receiver_id;uniqueIndex:idx_friend_request_pair;index;type:varchar(24);not null"`
	Status     string `gorm:"column:status;type:varchar(16);not null;default:pending"`

	// Sender 仅用于返回给前端，不落库
	Sender *UserInfo `gorm:"-"`
}

func (FriendRequest) TableName() string {
	return "friend_request"
}

func (r *FriendRequest) IsPending() bool {
	return r.Status == FriendRequestPending
}
