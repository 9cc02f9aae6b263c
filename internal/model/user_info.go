// Package model 定义数据库实体模型
package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserInfo 用户信息，对应 user_info 表
type UserInfo struct {
	gorm.Model

	// Uuid 对外暴露的用户 id，格式 "U" + 雪花 id
	Uuid string `gorm:"column:uuid;uniqueIndex;type:varchar(24);not null"`

	FullName string `gorm:"column:full_name;type:varchar(64);not null"`

	// Email 登录凭证，唯一
	Email string `gorm:"column:email;uniqueIndex;type:varchar(128);not null"`

	// Password bcrypt 哈希，永不返回给前端
	Password string `gorm:"column:password;type:varchar(100);not null"`

	// ProfilePic 头像地址，可为空
	ProfilePic string `gorm:"column:profile_pic;type:varchar(255);not null;default:''"`

	// RawPassword 明文密码，在 BeforeSave 中加密后清空
	RawPassword string `gorm:"-" json:"-"`
}

func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave 将 RawPassword 加密写入 Password
func (u *UserInfo) BeforeSave(tx *gorm.DB) (err error) {
	if u.RawPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
		u.RawPassword = ""
	}
	return nil
}

// CheckPassword 校验明文密码
func (u *UserInfo) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}
