package model

import "time"

// Message 单聊消息，对应 message 表
// 删除为墓碑：清空 Text/Image 并记录删除人与时间，行保留
type Message struct {
	ID         uint       `gorm:"primarykey"`
	Uuid       string     `gorm:"column:uuid;uniqueIndex;type:varchar(24);not null"`
	SenderID   string     `gorm:"column:sender_id;index:idx_message_pair;type:varchar(24);not null"`
	ReceiverID string     `gorm:"column:receiver_id;index:idx_message_pair;type:varchar(24);not null"`
	Text       string     `gorm:"column:text;type:text"`
	Image      *string    `gorm:"column:image;type:varchar(255)"`
	IsDeleted  bool       `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
	DeletedBy  *string    `gorm:"column:deleted_by;type:varchar(24)"`
	CreatedAt  time.Time  `gorm:"column:created_at;index"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (Message) TableName() string {
	return "message"
}
