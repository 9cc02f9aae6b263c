package request

type SendFriendRequestRequest struct {
	ReceiverID string `json:"receiverId" binding:"required,notblank"`
}

// RespondFriendRequestRequest action 为 accept 或 decline
type RespondFriendRequestRequest struct {
	RequestID string `json:"requestId" binding:"required"`
	Action    string `json:"action" binding:"required"`
}
