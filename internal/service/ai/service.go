// Package ai 根据最近的聊天记录生成回复建议
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pulse_chat_server/internal/dao/mysql/repository"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/constants"
	"pulse_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

var tones = map[string]bool{
	"friendly":     true,
	"professional": true,
	"casual":       true,
	"empathetic":   true,
	"encouraging":  true,
}

var fallbackModels = []string{
	"models/gemini-1.5-flash-latest",
	"models/gemini-1.5-flash",
	"models/gemini-1.5-pro-latest",
	"models/gemini-1.5-pro",
	"models/gemini-pro",
}

type Service struct {
	repos  *repository.Repositories
	gen    Generator // nil 表示未配置
	models []string
}

func NewService(repos *repository.Repositories, gen Generator, configuredModel string) *Service {
	return &Service{repos: repos, gen: gen, models: modelOrder(configuredModel)}
}

// modelOrder 配置的模型优先，其余按固定顺序去重
func modelOrder(configured string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(fallbackModels)+1)
	for _, m := range append([]string{strings.TrimSpace(configured)}, fallbackModels...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func (s *Service) Configured() bool {
	return s.gen != nil
}

// SuggestReply 为 userID 起草一条发给 friendID 的回复
func (s *Service) SuggestReply(ctx context.Context, userID, friendID, tone string) (string, error) {
	if s.gen == nil {
		return "", errorx.New(errorx.CodeNotConfigured, "AI features are not configured")
	}
	tone = strings.ToLower(strings.TrimSpace(tone))
	if !tones[tone] {
		return "", errorx.New(errorx.CodeInvalidParam, "Tone is required")
	}

	ok, err := s.repos.Friendship.Exists(ctx, userID, friendID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errorx.New(errorx.CodeForbidden, "You can only request suggestions for friends")
	}
	friend, err := s.repos.User.FindByUuid(ctx, friendID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return "", errorx.New(errorx.CodeNotFound, "Friend not found")
		}
		return "", err
	}

	recent, err := s.repos.Message.RecentBetween(ctx, userID, friendID, constants.RecentMessageWindow)
	if err != nil {
		return "", err
	}

	systemPrompt, userPrompt := BuildPrompts(recent, userID, friend.FullName, tone)
	return s.generate(ctx, systemPrompt, userPrompt)
}

func (s *Service) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for _, m := range s.models {
		text, err := s.gen.Generate(ctx, m, systemPrompt, userPrompt)
		if err != nil {
			if errors.Is(err, ErrModelNotFound) {
				zap.L().Warn("gemini model unavailable, trying next", zap.String("model", m), zap.Error(err))
				lastErr = err
				continue
			}
			zap.L().Error("generate suggestion failed", zap.String("model", m), zap.Error(err))
			return "", errorx.Wrap(err, errorx.CodeUnavailable, "Failed to generate suggestion")
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
	}
	if lastErr != nil {
		return "", errorx.Wrap(lastErr, errorx.CodeNotConfigured,
			"Requested Gemini model is unavailable. Please update GEMINI_MODEL or try again later.")
	}
	return "", errorx.New(errorx.CodeUnavailable, "AI did not return a valid suggestion")
}

// BuildPrompts 最近消息按时间升序，墓碑消息跳过
func BuildPrompts(recent []model.Message, userID, friendName, tone string) (systemPrompt, userPrompt string) {
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		if line := formatLine(m, userID); line != "" {
			lines = append(lines, line)
		}
	}

	summary := fmt.Sprintf("There has been no prior conversation. You are helping the user message %s.", friendName)
	if len(lines) > 0 {
		summary = "Conversation so far:\n" + strings.Join(lines, "\n")
	}

	systemPrompt = fmt.Sprintf("You are an assistant that drafts %s replies for a messaging application.\n"+
		"The reply should be actionable, concise (under 120 words), and must sound like a real person.\n"+
		"Do not include explanations or meta commentary. Return only the suggested message text.", tone)
	userPrompt = fmt.Sprintf("%s\n\nWrite a single %s reply that the user could send next.", summary, tone)
	return systemPrompt, userPrompt
}

func formatLine(m model.Message, userID string) string {
	if m.IsDeleted {
		return ""
	}
	parts := make([]string, 0, 2)
	if m.Text != "" {
		parts = append(parts, m.Text)
	}
	if m.Image != nil && *m.Image != "" {
		parts = append(parts, "[Image shared]")
	}
	if len(parts) == 0 {
		return ""
	}
	speaker := "Friend"
	if m.SenderID == userID {
		speaker = "You"
	}
	return speaker + ": " + strings.Join(parts, " ")
}
