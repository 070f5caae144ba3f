package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/yatube/internal/model"
)

func setupTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// :memory: 每个连接是一个独立库
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	if err := Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedPost(t *testing.T, db *gorm.DB, author *model.User, text string, group *model.Group) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	leo := seedUser(t, db, "leo")
	got, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, leo.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := repo.ExistsUsername(ctx, "LEO")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Error(t, repo.Create(ctx, &model.User{Username: "leo", PasswordHash: "x"}))
}

func TestUserDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	users, comments, follows := NewUserRepository(db), NewCommentRepository(db), NewFollowRepository(db)

	leo := seedUser(t, db, "leo")
	anna := seedUser(t, db, "anna")
	leoPost := seedPost(t, db, leo, "war", nil)
	annaPost := seedPost(t, db, anna, "peace", nil)

	require.NoError(t, comments.Create(ctx, &model.Comment{Text: "anna on leo", PostID: &leoPost.ID, AuthorID: anna.ID}))
	require.NoError(t, comments.Create(ctx, &model.Comment{Text: "leo on anna", PostID: &annaPost.ID, AuthorID: leo.ID}))
	require.NoError(t, follows.Create(ctx, leo.ID, anna.ID))
	require.NoError(t, follows.Create(ctx, anna.ID, leo.ID))

	require.NoError(t, users.Delete(ctx, leo.ID))
	assert.ErrorIs(t, users.Delete(ctx, leo.ID), ErrNotFound)

	var cnt int64
	db.Model(&model.Post{}).Where("author_id = ?", leo.ID).Count(&cnt)
	assert.Zero(t, cnt)
	db.Model(&model.Follow{}).Count(&cnt)
	assert.Zero(t, cnt)

	var left []model.Comment
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "anna on leo", left[0].Text)
	assert.Nil(t, left[0].PostID)
}

func TestGroupDeleteNullsPosts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)

	g := &model.Group{Title: "Cats", Slug: "cats", Description: "meow"}
	require.NoError(t, groups.Create(ctx, g))
	assert.Error(t, groups.Create(ctx, &model.Group{Title: "Cats 2", Slug: "cats"}))

	got, err := groups.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", got.Title)
	_, err = groups.GetBySlug(ctx, "dogs")
	assert.ErrorIs(t, err, ErrNotFound)

	p := seedPost(t, db, seedUser(t, db, "leo"), "purr", g)
	require.NoError(t, groups.Delete(ctx, g.ID))
	assert.ErrorIs(t, groups.Delete(ctx, g.ID), ErrNotFound)

	reloaded, err := posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.GroupID)
	assert.Nil(t, reloaded.Group)
}

func TestPostRepositoryPages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	leo := seedUser(t, db, "leo")
	anna := seedUser(t, db, "anna")
	g := &model.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, NewGroupRepository(db).Create(ctx, g))

	for i := 0; i < 12; i++ {
		seedPost(t, db, leo, fmt.Sprintf("leo post %02d", i), g)
	}
	seedPost(t, db, anna, "Anna writes 100% about CATS_and_dogs", nil)

	all, err := repo.Page(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 13, all.Count)
	assert.Len(t, all.Items, 10)
	assert.Equal(t, "Anna writes 100% about CATS_and_dogs", all.Items[0].Text)
	require.NotNil(t, all.Items[0].Author)
	assert.Equal(t, "anna", all.Items[0].Author.Username)

	second, err := repo.Page(ctx, "", 2, 10)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, "leo post 00", second.Items[2].Text)

	found, err := repo.Page(ctx, "cats_", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, found.Count)
	found, err = repo.Page(ctx, "100%", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, found.Count)
	found, err = repo.Page(ctx, "LEO POST", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 12, found.Count)

	byGroup, err := repo.PageByGroup(ctx, g.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 12, byGroup.Count)
	require.NotNil(t, byGroup.Items[0].Group)
	assert.Equal(t, "cats", byGroup.Items[0].Group.Slug)

	byAuthor, err := repo.PageByAuthor(ctx, anna.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, byAuthor.Count)

	none, err := repo.PageByAuthors(ctx, nil, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, none.Count)
	both, err := repo.PageByAuthors(ctx, []uint{leo.ID, anna.ID}, 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 13, both.Count)
	assert.Len(t, both.Items, 3)
}

func TestPostUpdateTouchesOnlyTarget(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	leo := seedUser(t, db, "leo")
	a := seedPost(t, db, leo, "first", nil)
	b := seedPost(t, db, leo, "second", nil)

	pub := a.PubDate
	a.Text = "first edited"
	a.PubDate = time.Now().Add(time.Hour)
	require.NoError(t, repo.Update(ctx, a))

	gotA, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "first edited", gotA.Text)
	assert.WithinDuration(t, pub, gotA.PubDate, time.Second)
	assert.Equal(t, "second", gotB.Text)

	assert.ErrorIs(t, repo.Update(ctx, &model.Post{ID: 999, Text: "x"}), ErrNotFound)
}

func TestPostDeleteCommentPolicy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	posts, comments := NewPostRepository(db), NewCommentRepository(db)
	leo := seedUser(t, db, "leo")

	orphaned := seedPost(t, db, leo, "orphan me", nil)
	cascaded := seedPost(t, db, leo, "take them with you", nil)
	require.NoError(t, comments.Create(ctx, &model.Comment{Text: "stay", PostID: &orphaned.ID, AuthorID: leo.ID}))
	require.NoError(t, comments.Create(ctx, &model.Comment{Text: "go", PostID: &cascaded.ID, AuthorID: leo.ID}))

	require.NoError(t, posts.Delete(ctx, orphaned.ID, false))
	require.NoError(t, posts.Delete(ctx, cascaded.ID, true))
	assert.ErrorIs(t, posts.Delete(ctx, cascaded.ID, true), ErrNotFound)

	var left []model.Comment
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "stay", left[0].Text)
	assert.Nil(t, left[0].PostID)
}

func TestCommentsOrderedByCreation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewCommentRepository(db)
	leo := seedUser(t, db, "leo")
	p := seedPost(t, db, leo, "post", nil)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, &model.Comment{Text: text, PostID: &p.ID, AuthorID: leo.ID}))
	}
	list, err := repo.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{list[0].Text, list[1].Text, list[2].Text})
	assert.Equal(t, "leo", list[0].Author.Username)

	cnt, err := repo.CountByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, cnt)
}

func TestFollowRepositoryIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewFollowRepository(db)
	leo := seedUser(t, db, "leo")
	anna := seedUser(t, db, "anna")
	ivan := seedUser(t, db, "ivan")

	require.NoError(t, repo.Create(ctx, anna.ID, leo.ID))
	require.NoError(t, repo.Create(ctx, anna.ID, leo.ID))
	require.NoError(t, repo.Create(ctx, anna.ID, ivan.ID))

	var cnt int64
	db.Model(&model.Follow{}).Where("user_id = ? AND author_id = ?", anna.ID, leo.ID).Count(&cnt)
	assert.EqualValues(t, 1, cnt)

	ok, err := repo.Exists(ctx, anna.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, leo.ID, anna.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := repo.ListAuthorIDs(ctx, anna.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{leo.ID, ivan.ID}, ids)

	followings, err := repo.ListFollowings(ctx, anna.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followings, 2)
	assert.Equal(t, "leo", followings[0].Author.Username)

	followers, err := repo.ListFollowers(ctx, leo.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "anna", followers[0].User.Username)

	n, err := repo.CountFollowings(ctx, anna.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = repo.CountFollowers(ctx, leo.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Delete(ctx, anna.ID, leo.ID))
	require.NoError(t, repo.Delete(ctx, anna.ID, leo.ID))
	ok, _ = repo.Exists(ctx, anna.ID, leo.ID)
	assert.False(t, ok)
}
