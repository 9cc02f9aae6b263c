// Package mysql 负责建立数据库连接、自动迁移表结构并构造 Repository 层
// 生产环境使用 MySQL，本地开发和测试可切换为 SQLite
package mysql

import (
	"fmt"
	"time"

	"pulse_chat_server/internal/config"
	"pulse_chat_server/internal/dao/mysql/repository"
	"pulse_chat_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Init 打开数据库、迁移表结构并返回 Repository 集合
func Init(cfg config.DatabaseConfig) (*repository.Repositories, *gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, nil, err
	}
	zap.L().Info("database ready", zap.String("driver", cfg.Driver))
	return repository.NewRepositories(db), db, nil
}

// Open 根据 driver 选择方言，不做迁移
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverMySQL:
		// user:password@tcp(host:port)/database?params
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DatabaseName)
		dialector = mysqldriver.Open(dsn)
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.SqlitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true, // 唯一键冲突 -> gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverMySQL {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite 只允许单写者
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate 自动迁移表结构，不会删除已有字段
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UserInfo{},
		&model.FriendRequest{},
		&model.Friendship{},
		&model.Message{},
	)
}
