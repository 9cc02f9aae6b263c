package request

// SendMessageRequest text 与 image 至少有一个；image 为 data URL
type SendMessageRequest struct {
	Text  string `json:"text" binding:"max=5000"`
	Image string `json:"image"`
}

type SuggestReplyRequest struct {
	Tone string `json:"tone"`
}
