package repository

import (
	"context"
	"strings"

	"pulse_chat_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "find user uuid=%s", uuid)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, wrapDBErrorf(err, "find user email=%s", email)
	}
	return &user, nil
}

func (r *userRepository) FindByUuids(ctx context.Context, uuids []string) ([]model.UserInfo, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	var users []model.UserInfo
	if err := r.db.WithContext(ctx).Where("uuid IN ?", uuids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "find users by uuids")
	}
	byID := make(map[string]model.UserInfo, len(users))
	for _, u := range users {
		byID[u.Uuid] = u
	}
	ordered := make([]model.UserInfo, 0, len(users))
	for _, id := range uuids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

func (r *userRepository) Search(ctx context.Context, query, excludeUuid string, limit int) ([]model.UserInfo, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var users []model.UserInfo
	err := r.db.WithContext(ctx).
		Where("uuid <> ?", excludeUuid).
		Where("(LOWER(email) LIKE ? ESCAPE '!' OR LOWER(full_name) LIKE ? ESCAPE '!')", pattern, pattern).
		Order("full_name ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, wrapDBError(err, "search users")
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.UserInfo) error {
	user.Email = strings.ToLower(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapDBError(err, "create user")
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.UserInfo) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return wrapDBError(err, "update user")
	}
	return nil
}

// escapeLike 转义 LIKE 通配符，搜索词按字面匹配
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
