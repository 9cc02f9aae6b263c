// Package auth 签发和刷新双 Token
// Refresh Token 的 id 存在 Redis user_token:<uid>，新登录覆盖旧 id 实现单点互踢
package auth

import (
	"context"

	myredis "pulse_chat_server/internal/dao/redis"
	"pulse_chat_server/pkg/constants"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
)

// Service 认证服务；cache 为 nil 时只校验 token 签名
type Service struct {
	cache myredis.CacheService
}

func NewAuthService(cache myredis.CacheService) *Service {
	return &Service{cache: cache}
}

// Tokens 一次登录签发的双 Token
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

func tokenKey(userID string) string {
	return constants.UserTokenKeyPrefix + userID
}

// Issue 签发双 Token 并记录 Refresh Token id
func (s *Service) Issue(ctx context.Context, userID string) (*Tokens, error) {
	access, err := jwt.GenerateAccessToken(userID)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	refresh, tokenID, err := jwt.GenerateRefreshToken(userID)
	if err != nil {
		zap.L().Error("生成 Refresh Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tokenKey(userID), tokenID, jwt.RefreshTokenExpiry()); err != nil {
			// 不阻塞登录流程，仅记录日志
			zap.L().Error("存储 Token ID 失败", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh 校验 Refresh Token 并签发新的 Access Token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := jwt.ParseToken(refreshToken)
	if err != nil {
		return "", errorx.New(errorx.CodeUnauthorized, "Refresh token expired or invalid, please log in again")
	}
	if claims.Subject != jwt.SubjectRefreshToken {
		return "", errorx.New(errorx.CodeUnauthorized, "A refresh token is required")
	}

	if s.cache != nil {
		ok, err := s.ValidateTokenID(ctx, claims.UserID, claims.TokenID)
		if err != nil {
			zap.L().Error("读取 Token ID 失败", zap.String("user_id", claims.UserID), zap.Error(err))
			return "", errorx.ErrServerBusy
		}
		if !ok {
			return "", errorx.New(errorx.CodeUnauthorized, "Session is no longer valid, please log in again")
		}
	}

	access, err := jwt.GenerateAccessToken(claims.UserID)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return "", errorx.ErrServerBusy
	}
	return access, nil
}

// ValidateTokenID 比对 Redis 中最新的 Token ID
func (s *Service) ValidateTokenID(ctx context.Context, userID, tokenID string) (bool, error) {
	if s.cache == nil {
		return true, nil
	}
	valid, err := s.cache.Get(ctx, tokenKey(userID))
	if err != nil {
		return false, err
	}
	return valid != "" && valid == tokenID, nil
}

// Revoke 退出登录，已签发的 Refresh Token 随之失效
func (s *Service) Revoke(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, tokenKey(userID)); err != nil {
		zap.L().Warn("删除 Token ID 失败", zap.String("user_id", userID), zap.Error(err))
	}
}
