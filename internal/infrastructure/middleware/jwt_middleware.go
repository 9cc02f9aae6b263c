package middleware

import (
	"net/http"
	"strings"

	"pulse_chat_server/pkg/constants"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// JWTAuth 验证 Access Token 并把 user_id 写入上下文
// Token 来源依次为 Authorization 头、jwt cookie、?token= 查询参数（浏览器 websocket 无法自定义头）
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ExtractToken(c)
		if !ok {
			abortUnauthorized(c, "Unauthorized - No token provided")
			return
		}

		claims, err := jwt.ParseToken(token)
		if err != nil {
			abortUnauthorized(c, "Unauthorized - Invalid token")
			return
		}
		if claims.Subject != jwt.SubjectAccessToken {
			abortUnauthorized(c, "Unauthorized - Access token required")
			return
		}

		c.Set(constants.ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// ExtractToken 返回原始 token 以及是否携带
func ExtractToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}
	if cookie, err := c.Cookie(constants.AuthCookieName); err == nil && cookie != "" {
		return cookie, true
	}
	if q := c.Query("token"); q != "" {
		return q, true
	}
	return "", false
}

// UserID 读取 JWTAuth 写入的用户 id
func UserID(c *gin.Context) string {
	return c.GetString(constants.ContextUserIDKey)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
	})
}
