// Package mysqltest 为测试打开相互隔离的内存数据库
package mysqltest

import (
	"testing"

	"pulse_chat_server/internal/config"
	"pulse_chat_server/internal/dao/mysql"
	"pulse_chat_server/internal/dao/mysql/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New 返回 t 独享、已迁移的 sqlite 数据库
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := mysql.Open(config.DatabaseConfig{
		Driver:     mysql.DriverSQLite,
		SqlitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRepositories 在 New 的基础上包装成仓储集合
func NewRepositories(t testing.TB) *repository.Repositories {
	return repository.NewRepositories(New(t))
}
