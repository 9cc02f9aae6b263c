package request

// SignupRequest 注册
type SignupRequest struct {
	FullName string `json:"fullName" binding:"required,notblank,max=64"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest 邮箱密码登录
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest profilePic 为 data URL (data:image/png;base64,...)
type UpdateProfileRequest struct {
	ProfilePic string `json:"profilePic" binding:"required"`
}

type UpdateNameRequest struct {
	FullName string `json:"fullName" binding:"required,notblank,max=64"`
}

type SearchUsersRequest struct {
	Query string `form:"query"`
}
