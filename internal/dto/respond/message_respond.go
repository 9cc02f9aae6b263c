package respond

import (
	"time"

	"pulse_chat_server/internal/model"
)

type MessageRespond struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	Text       string     `json:"text"`
	Image      *string    `json:"image"`
	IsDeleted  bool       `json:"isDeleted"`
	DeletedAt  *time.Time `json:"deletedAt"`
	DeletedBy  *string    `json:"deletedBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewMessageRespond(m *model.Message) *MessageRespond {
	return &MessageRespond{
		ID:         m.Uuid,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		Image:      m.Image,
		IsDeleted:  m.IsDeleted,
		DeletedAt:  m.DeletedAt,
		DeletedBy:  m.DeletedBy,
		CreatedAt:  m.CreatedAt,
	}
}

func NewMessageList(msgs []model.Message) []*MessageRespond {
	out := make([]*MessageRespond, 0, len(msgs))
	for i := range msgs {
		out = append(out, NewMessageRespond(&msgs[i]))
	}
	return out
}

type SuggestReplyRespond struct {
	Suggestion string `json:"suggestion"`
}
