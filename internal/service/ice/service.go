// Package ice 为 WebRTC 提供 ICE 服务器列表
// 配置了 Xirsys 凭证时向其申请 TURN 凭证并按 ttl 缓存，否则退回公共 STUN
package ice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"pulse_chat_server/internal/config"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/pkg/errorx"

	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
)

const (
	WarningNotConfigured = "TURN not configured"
	WarningFallback      = "Falling back to STUN servers"
)

func fallbackServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{{
		URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"},
	}}
}

type Service struct {
	cfg    config.IceConfig
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	cached    []webrtc.ICEServer
	expiresAt time.Time
}

func NewService(cfg config.IceConfig) *Service {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 60
	}
	if cfg.XirsysChannel == "" {
		cfg.XirsysChannel = "default"
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (s *Service) Configured() bool {
	return s.cfg.XirsysIdent != "" && s.cfg.XirsysSecret != ""
}

// Servers 返回 ICE 列表；上游失败时同时返回 STUN 兜底结果和 CodeUnavailable 错误
func (s *Service) Servers(ctx context.Context) (*respond.IceRespond, error) {
	if !s.Configured() {
		ttl := int64(0)
		return &respond.IceRespond{IceServers: fallbackServers(), TTLMs: &ttl, Warning: WarningNotConfigured}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != nil && now.Before(s.expiresAt) {
		return &respond.IceRespond{IceServers: s.cached, Cached: true}, nil
	}

	servers, ttl, err := s.fetch(ctx)
	if err != nil {
		s.cached = nil
		s.expiresAt = time.Time{}
		zap.L().Error("fetch ICE servers failed", zap.Error(err))
		return &respond.IceRespond{IceServers: fallbackServers(), Warning: WarningFallback},
			errorx.Wrap(err, errorx.CodeUnavailable, WarningFallback)
	}

	s.cached = servers
	s.expiresAt = now.Add(ttl)
	ttlMs := ttl.Milliseconds()
	return &respond.IceRespond{IceServers: servers, TTLMs: &ttlMs}, nil
}

type xirsysResponse struct {
	S string          `json:"s"`
	V json.RawMessage `json:"v"`
}

type xirsysValue struct {
	IceServers json.RawMessage `json:"iceServers"`
	TTL        json.RawMessage `json:"ttl"`
}

// rawServer urls 可能是字符串也可能是数组
type rawServer struct {
	URLs       json.RawMessage `json:"urls"`
	Username   string          `json:"username"`
	Credential string          `json:"credential"`
}

func (s *Service) fetch(ctx context.Context) ([]webrtc.ICEServer, time.Duration, error) {
	url := strings.TrimRight(s.cfg.XirsysEndpoint, "/") + "/" + s.cfg.XirsysChannel
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBufferString(`{"format":"urls"}`))
	if err != nil {
		return nil, 0, err
	}
	req.SetBasicAuth(s.cfg.XirsysIdent, s.cfg.XirsysSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, fmt.Errorf("xirsys responded with %d: %s", resp.StatusCode, body)
	}

	var payload xirsysResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode xirsys response: %w", err)
	}
	if payload.S != "" && payload.S != "ok" {
		return nil, 0, fmt.Errorf("xirsys responded with status %s: %s", payload.S, payload.V)
	}

	var v xirsysValue
	if err := json.Unmarshal(payload.V, &v); err != nil {
		return nil, 0, fmt.Errorf("decode xirsys value: %w", err)
	}
	servers, err := parseServers(v.IceServers)
	if err != nil {
		return nil, 0, err
	}
	if len(servers) == 0 {
		return nil, 0, fmt.Errorf("xirsys response missing iceServers: %s", body)
	}

	ttl := time.Duration(s.cfg.DefaultTTL) * time.Second
	if secs, ok := parseTTL(v.TTL); ok {
		ttl = time.Duration(secs * float64(time.Second))
	}
	return servers, ttl, nil
}

// parseServers 兼容单个对象和数组两种形式
func parseServers(raw json.RawMessage) ([]webrtc.ICEServer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var list []rawServer
	if raw[0] == '{' {
		var one rawServer
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("decode iceServers: %w", err)
		}
		list = []rawServer{one}
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode iceServers: %w", err)
	}

	out := make([]webrtc.ICEServer, 0, len(list))
	for _, r := range list {
		urls, err := parseURLs(r.URLs)
		if err != nil {
			return nil, err
		}
		if len(urls) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: urls, Username: r.Username}
		if r.Credential != "" {
			srv.Credential = r.Credential
		}
		out = append(out, srv)
	}
	return out, nil
}

// parseTTL 接受数字或数字字符串，非正数视为缺失
func parseTTL(raw json.RawMessage) (float64, bool) {
	str := strings.Trim(string(bytes.TrimSpace(raw)), `"`)
	secs, err := strconv.ParseFloat(str, 64)
	if err != nil || secs <= 0 || math.IsInf(secs, 0) {
		return 0, false
	}
	return secs, true
}

func parseURLs(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '"' {
		var one string
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("decode urls: %w", err)
	}
	return many, nil
}
