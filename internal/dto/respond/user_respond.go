package respond

import (
	"time"

	"pulse_chat_server/internal/model"
)

// UserRespond 用户公开信息，不含密码
type UserRespond struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewUserRespond(u *model.UserInfo) *UserRespond {
	if u == nil {
		return nil
	}
	return &UserRespond{
		ID:         u.Uuid,
		FullName:   u.FullName,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

func NewUserList(users []model.UserInfo) []*UserRespond {
	out := make([]*UserRespond, 0, len(users))
	for i := range users {
		out = append(out, NewUserRespond(&users[i]))
	}
	return out
}

// AuthRespond 注册/登录结果
type AuthRespond struct {
	*UserRespond
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRespond struct {
	AccessToken string `json:"access_token"`
}
