// Package handler 提供 HTTP 请求处理器
// 本文件处理注册、登录和当前用户资料相关的 API 请求
package handler

import (
	"net/http"

	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/internal/infrastructure/middleware"
	"pulse_chat_server/internal/service"
	"pulse_chat_server/pkg/constants"
	"pulse_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	userSvc      service.UserService
	authSvc      service.AuthService
	secureCookie bool
}

func NewAuthHandler(userSvc service.UserService, authSvc service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{userSvc: userSvc, authSvc: authSvc, secureCookie: secureCookie}
}

// Signup 注册
// POST /api/auth/signup
// 响应: 201 respond.AuthRespond，同时写入 jwt cookie
func (h *AuthHandler) Signup(c *gin.Context) {
	var req request.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Signup(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.setCookie(c, data.AccessToken)
	HandleCreated(c, data)
}

// Login 邮箱密码登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Login(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.setCookie(c, data.AccessToken)
	HandleSuccess(c, data)
}

// Logout 清除 cookie 并作废 refresh token
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.userSvc.Logout(c.Request.Context(), middleware.UserID(c))
	h.clearCookie(c)
	HandleSuccess(c, gin.H{"message": "Logged out successfully"})
}

// Refresh 刷新 Access Token
// POST /api/auth/refresh
// 用户在其他设备登录后旧的 refresh token 会被拒绝（单点互踢）
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	token, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.setCookie(c, token)
	HandleSuccess(c, respond.RefreshTokenRespond{AccessToken: token})
}

// Check 返回当前登录用户
// GET /api/auth/check
func (h *AuthHandler) Check(c *gin.Context) {
	data, err := h.userSvc.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateProfile 更新头像
// PUT /api/auth/update-profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req request.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.UpdateProfilePic(c.Request.Context(), middleware.UserID(c), req.ProfilePic)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateName PUT /api/auth/update-name
func (h *AuthHandler) UpdateName(c *gin.Context) {
	var req request.UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.UpdateName(c.Request.Context(), middleware.UserID(c), req.FullName)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

func (h *AuthHandler) setCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constants.AuthCookieName, token, int(jwt.AccessTokenExpiry().Seconds()), "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constants.AuthCookieName, "", -1, "/", "", h.secureCookie, true)
}
