// Package testutil 测试共用的数据库、上传与应用装配工具
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

var dbSeq atomic.Int64

// OpenDB 每个测试一个独立的内存 SQLite（开启外键）并完成迁移
func OpenDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:yatube_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(tb, err)
	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(tb, repository.Migrate(db))
	return db
}

// CreateUser 直接落库一个用户，密码哈希为占位值
func CreateUser(tb testing.TB, db *gorm.DB, username string) *model.User {
	tb.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "-"}
	require.NoError(tb, repository.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func CreateGroup(tb testing.TB, db *gorm.DB, slug string) *model.Group {
	tb.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(tb, repository.NewGroupRepository(db).Create(context.Background(), g))
	return g
}

func CreatePost(tb testing.TB, db *gorm.DB, author *model.User, text string, group *model.Group) *model.Post {
	tb.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(tb, repository.NewPostRepository(db).Create(context.Background(), p))
	return p
}
