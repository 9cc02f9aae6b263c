// Package user 账号：注册、登录、资料修改、搜索
package user

import (
	"context"
	"strings"

	"pulse_chat_server/internal/dao/mysql/repository"
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/internal/infrastructure/storage"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/internal/service/auth"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

const searchLimit = 20

type Service struct {
	repos   *repository.Repositories
	auth    *auth.Service
	avatars storage.ImageStore
}

func NewUserService(repos *repository.Repositories, authSvc *auth.Service, avatars storage.ImageStore) *Service {
	return &Service{repos: repos, auth: authSvc, avatars: avatars}
}

// Signup 注册并直接登录
func (s *Service) Signup(ctx context.Context, req request.SignupRequest) (*respond.AuthRespond, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "Please fill all the fields")
	}

	_, err := s.repos.User.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errorx.New(errorx.CodeUserExist, "User already exists")
	case !errorx.IsNotFound(err):
		return nil, err
	}

	u := &model.UserInfo{
		Uuid:        snowflake.WithPrefix("U"),
		FullName:    fullName,
		Email:       email,
		RawPassword: req.Password,
	}
	if err := s.repos.User.Create(ctx, u); err != nil {
		if errorx.GetCode(err) == errorx.CodeConflict {
			return nil, errorx.New(errorx.CodeUserExist, "User already exists")
		}
		return nil, err
	}
	zap.L().Info("user signed up", zap.String("user_id", u.Uuid))
	return s.login(ctx, u)
}

// Login 邮箱密码登录；用户不存在和密码错误返回同一提示
func (s *Service) Login(ctx context.Context, req request.LoginRequest) (*respond.AuthRespond, error) {
	u, err := s.repos.User.FindByEmail(ctx, req.Email)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeInvalidPassword, "Invalid credentials")
		}
		return nil, err
	}
	if !u.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "Invalid credentials")
	}
	return s.login(ctx, u)
}

func (s *Service) login(ctx context.Context, u *model.UserInfo) (*respond.AuthRespond, error) {
	tokens, err := s.auth.Issue(ctx, u.Uuid)
	if err != nil {
		return nil, err
	}
	return &respond.AuthRespond{
		UserRespond:  respond.NewUserRespond(u),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (s *Service) Logout(ctx context.Context, userID string) {
	s.auth.Revoke(ctx, userID)
}

// Profile 加载用户实体，实时通道用它填充来电者信息
func (s *Service) Profile(ctx context.Context, userID string) (*model.UserInfo, error) {
	u, err := s.repos.User.FindByUuid(ctx, userID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "User not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*respond.UserRespond, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return respond.NewUserRespond(u), nil
}

// UpdateProfilePic 保存 data URL 头像并更新地址
func (s *Service) UpdateProfilePic(ctx context.Context, userID, dataURL string) (*respond.UserRespond, error) {
	if strings.TrimSpace(dataURL) == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "Profile pic is required")
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.avatars == nil {
		return nil, errorx.New(errorx.CodeNotConfigured, "image upload is not available")
	}
	url, err := s.avatars.SaveDataURL(ctx, dataURL)
	if err != nil {
		return nil, err
	}
	u.ProfilePic = url
	if err := s.repos.User.Update(ctx, u); err != nil {
		return nil, err
	}
	return respond.NewUserRespond(u), nil
}

func (s *Service) UpdateName(ctx context.Context, userID, fullName string) (*respond.UserRespond, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "Full name is required")
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.FullName = fullName
	if err := s.repos.User.Update(ctx, u); err != nil {
		return nil, err
	}
	return respond.NewUserRespond(u), nil
}

// Search 按邮箱或姓名子串搜索，不区分大小写，排除自己
func (s *Service) Search(ctx context.Context, userID, query string) ([]*respond.UserRespond, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "Search query is required")
	}
	users, err := s.repos.User.Search(ctx, query, userID, searchLimit)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errorx.New(errorx.CodeNotFound, "No users found")
	}
	return respond.NewUserList(users), nil
}
