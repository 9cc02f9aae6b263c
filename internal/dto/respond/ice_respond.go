package respond

import "github.com/pion/webrtc/v4"

// IceRespond 缓存命中时只有 iceServers 与 cached
type IceRespond struct {
	IceServers []webrtc.ICEServer `json:"iceServers"`
	Cached     bool               `json:"cached"`
	TTLMs      *int64             `json:"ttlMs,omitempty"`
	Warning    string             `json:"warning,omitempty"`
}
