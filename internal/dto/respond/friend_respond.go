package respond

import (
	"time"

	"pulse_chat_server/internal/model"
)

type FriendRequestRespond struct {
	ID         string       `json:"id"`
	SenderID   string       `json:"senderId"`
	ReceiverID string       `json:"receiverId"`
	Status     string       `json:"status"`
	Sender     *UserRespond `json:"sender,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func NewFriendRequestRespond(r *model.FriendRequest) *FriendRequestRespond {
	return &FriendRequestRespond{
		ID:         r.Uuid,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Status:     r.Status,
		Sender:     NewUserRespond(r.Sender),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// RespondFriendResult accept 时携带新好友信息
type RespondFriendResult struct {
	Status string       `json:"status"`
	Friend *UserRespond `json:"friend,omitempty"`
}
