package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
)

// ErrNotFound 按 id / slug / 用户名查找失败
var ErrNotFound = errors.New("record not found")

// Models 需要迁移的全部表，按依赖顺序
func Models() []any {
	return []any{&model.User{}, &model.Group{}, &model.Post{}, &model.Comment{}, &model.Follow{}}
}

// Migrate 初始化数据库表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
