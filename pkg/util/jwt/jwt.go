package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer              = "pulse_chat"
	SubjectAccessToken  = "access_token"
	SubjectRefreshToken = "refresh_token"
)

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

var jwtConfig *JWTConfig

var errNotInitialized = errors.New("jwt: Init has not been called")

func Init(secret string, accessExpiryMinutes, refreshExpiryHours int) {
	jwtConfig = &JWTConfig{
		Secret:             secret,
		AccessTokenExpiry:  time.Duration(accessExpiryMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshExpiryHours) * time.Hour,
	}
}

// AccessTokenExpiry 同时作为认证 cookie 的 max-age
func AccessTokenExpiry() time.Duration {
	if jwtConfig == nil {
		return 0
	}
	return jwtConfig.AccessTokenExpiry
}

// RefreshTokenExpiry Redis 中 refresh token id 的存活时间
func RefreshTokenExpiry() time.Duration {
	if jwtConfig == nil {
		return 0
	}
	return jwtConfig.RefreshTokenExpiry
}

type Claims struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id,omitempty"` // refresh tokens only
	jwt.RegisteredClaims
}

func GenerateAccessToken(userID string) (string, error) {
	if jwtConfig == nil {
		return "", errNotInitialized
	}
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtConfig.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
			Subject:   SubjectAccessToken,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.Secret))
}

func GenerateRefreshToken(userID string) (tokenString string, tokenID string, err error) {
	if jwtConfig == nil {
		return "", "", errNotInitialized
	}
	tokenID = uuid.NewString()
	claims := Claims{
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtConfig.RefreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
			Subject:   SubjectRefreshToken,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(jwtConfig.Secret))
	return
}

func ParseToken(tokenString string) (*Claims, error) {
	if jwtConfig == nil {
		return nil, errNotInitialized
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtConfig.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
