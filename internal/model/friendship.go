package model

import "time"

// Friendship 好友关系，每个方向一行：(A,B) 与 (B,A)
type Friendship struct {
	ID        uint      `gorm:"primarykey"`
	UserID    string    `gorm:"column:user_id;uniqueIndex:idx_friendship_pair;type:varchar(24);not null"`
	FriendID  string    `gorm:"column:friend_id;uniqueIndex:idx_friendship_pair;type:varchar(24);not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Friendship) TableName() string {
	return "friendship"
}
