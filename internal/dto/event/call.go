package event

import (
	"github.com/pion/webrtc/v4"
)

const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"
)

// CallerInfo 来电方展示信息
type CallerInfo struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
}

// ==================== 上行 ====================

type CallOfferPayload struct {
	TargetUserID string                     `json:"targetUserId" validate:"required"`
	Offer        *webrtc.SessionDescription `json:"offer" validate:"required"`
	CallType     string                     `json:"callType" validate:"required,oneof=audio video"`
	Caller       *CallerInfo                `json:"caller"`
}

type CallAnswerPayload struct {
	TargetUserID string                     `json:"targetUserId" validate:"required"`
	Answer       *webrtc.SessionDescription `json:"answer" validate:"required"`
}

type CallIceCandidatePayload struct {
	TargetUserID string                   `json:"targetUserId" validate:"required"`
	Candidate    *webrtc.ICECandidateInit `json:"candidate" validate:"required"`
}

// CallTargetPayload 用于 decline / end / connected / failed
type CallTargetPayload struct {
	TargetUserID string `json:"targetUserId" validate:"required"`
	Reason       string `json:"reason" validate:"max=64"`
}

// ==================== 下行 ====================

type CallOfferOut struct {
	Offer    *webrtc.SessionDescription `json:"offer"`
	CallType string                     `json:"callType"`
	CallID   string                     `json:"callId"`
	Caller   CallerInfo                 `json:"caller"`
}

type CallAnswerOut struct {
	Answer *webrtc.SessionDescription `json:"answer"`
	CallID string                     `json:"callId"`
}

type CallIceCandidateOut struct {
	Candidate *webrtc.ICECandidateInit `json:"candidate"`
}

type CallReasonOut struct {
	Reason string `json:"reason"`
}

type CallErrorOut struct {
	Message string `json:"message"`
}

// FriendRequestUpdateOut friend 仅在 accepted 时携带
type FriendRequestUpdateOut struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Friend    any    `json:"friend,omitempty"`
}
