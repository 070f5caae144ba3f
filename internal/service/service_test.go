package service_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/testutil"
	"github.com/d60-Lab/yatube/pkg/storage"
)

type fixture struct {
	db       *gorm.DB
	store    *storage.Local
	posts    service.PostService
	comments service.CommentService
	rel      service.RelationshipService
	users    service.UserService
}

func newFixture(t *testing.T, cascade bool) *fixture {
	db := testutil.OpenDB(t)
	store := storage.NewLocal(t.TempDir(), "/media/")
	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	return &fixture{
		db:    db,
		store: store,
		posts: service.NewPostService(postRepo, repository.NewGroupRepository(db), userRepo, store,
			service.PostServiceOptions{PageSize: 10, CascadeComments: cascade}),
		comments: service.NewCommentService(repository.NewCommentRepository(db)),
		rel:      service.NewRelationshipService(repository.NewFollowRepository(db), postRepo, nil, 10),
		users:    service.NewUserService(userRepo, bcrypt.MinCost),
	}
}

func TestPostCreateWithMedia(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	g := testutil.CreateGroup(t, f.db, "cats")
	title := "purr"

	p, err := f.posts.Create(ctx, leo.ID, &service.PostInput{
		Text:       "hello",
		GroupID:    &g.ID,
		Image:      testutil.FileHeader(t, "cat.png", testutil.PNG(t)),
		Audio:      testutil.FileHeader(t, "purr.mp3", []byte("ID3 not really audio")),
		AudioTitle: &title,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^posts/.+\.png$`, p.Image)
	assert.Regexp(t, `^musics/`, p.Audio)
	_, err = os.Stat(filepath.Join(f.store.Root(), p.Image))
	assert.NoError(t, err)

	got, err := f.posts.Get(ctx, "leo", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "cats", got.Group.Slug)
	assert.Equal(t, "purr", *got.AudioTitle)
	assert.WithinDuration(t, time.Now(), got.PubDate, time.Minute)
}

func TestPostCreateUnknownGroup(t *testing.T) {
	f := newFixture(t, false)
	leo := testutil.CreateUser(t, f.db, "leo")
	missing := uint(42)

	_, err := f.posts.Create(context.Background(), leo.ID, &service.PostInput{Text: "x", GroupID: &missing})
	assert.ErrorIs(t, err, service.ErrUnknownGroup)

	var cnt int64
	f.db.Model(&model.Post{}).Count(&cnt)
	assert.Zero(t, cnt)
}

func TestPostGetAuthorMismatch(t *testing.T) {
	f := newFixture(t, false)
	leo := testutil.CreateUser(t, f.db, "leo")
	testutil.CreateUser(t, f.db, "anna")
	p := testutil.CreatePost(t, f.db, leo, "mine", nil)

	_, err := f.posts.Get(context.Background(), "anna", p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.posts.Get(context.Background(), "leo", p.ID+1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostUpdateAuthorOnly(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	anna := testutil.CreateUser(t, f.db, "anna")
	p := testutil.CreatePost(t, f.db, leo, "original", nil)
	other := testutil.CreatePost(t, f.db, leo, "untouched", nil)

	_, err := f.posts.Update(ctx, anna.ID, p.ID, &service.PostInput{Text: "hijacked"})
	assert.ErrorIs(t, err, service.ErrNotAuthor)
	got, _ := f.posts.GetByID(ctx, p.ID)
	assert.Equal(t, "original", got.Text)

	_, err = f.posts.Update(ctx, leo.ID, p.ID, &service.PostInput{Text: "edited"})
	require.NoError(t, err)
	got, _ = f.posts.GetByID(ctx, p.ID)
	assert.Equal(t, "edited", got.Text)
	got, _ = f.posts.GetByID(ctx, other.ID)
	assert.Equal(t, "untouched", got.Text)
}

func TestPostUpdateReplacesImage(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	p, err := f.posts.Create(ctx, leo.ID, &service.PostInput{Text: "pic", Image: testutil.FileHeader(t, "a.png", testutil.PNG(t))})
	require.NoError(t, err)
	old := p.Image

	kept, err := f.posts.Update(ctx, leo.ID, p.ID, &service.PostInput{Text: "pic, same image"})
	require.NoError(t, err)
	assert.Equal(t, old, kept.Image)

	replaced, err := f.posts.Update(ctx, leo.ID, p.ID, &service.PostInput{Text: "new pic", Image: testutil.FileHeader(t, "b.png", testutil.PNG(t))})
	require.NoError(t, err)
	assert.NotEqual(t, old, replaced.Image)
	_, err = os.Stat(filepath.Join(f.store.Root(), old))
	assert.True(t, os.IsNotExist(err))
}

func TestPostDelete(t *testing.T) {
	for _, cascade := range []bool{false, true} {
		t.Run(fmt.Sprintf("cascade=%v", cascade), func(t *testing.T) {
			f := newFixture(t, cascade)
			ctx := context.Background()
			leo := testutil.CreateUser(t, f.db, "leo")
			anna := testutil.CreateUser(t, f.db, "anna")
			p := testutil.CreatePost(t, f.db, leo, "bye", nil)
			_, err := f.comments.Add(ctx, anna.ID, p, "nice")
			require.NoError(t, err)

			assert.ErrorIs(t, f.posts.Delete(ctx, anna.ID, p.ID), service.ErrForbidden)
			assert.ErrorIs(t, f.posts.Delete(ctx, leo.ID, p.ID+100), repository.ErrNotFound)
			require.NoError(t, f.posts.Delete(ctx, leo.ID, p.ID))

			_, err = f.posts.GetByID(ctx, p.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
			var cnt int64
			f.db.Model(&model.Comment{}).Count(&cnt)
			if cascade {
				assert.Zero(t, cnt)
			} else {
				assert.EqualValues(t, 1, cnt)
			}
		})
	}
}

func TestPostLists(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	g := testutil.CreateGroup(t, f.db, "cats")
	for i := 0; i < 11; i++ {
		testutil.CreatePost(t, f.db, leo, fmt.Sprintf("post %d", i), g)
	}

	page, err := f.posts.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.NumPages)

	group, byGroup, err := f.posts.ListByGroup(ctx, "cats", 1)
	require.NoError(t, err)
	assert.Equal(t, g.ID, group.ID)
	assert.Len(t, byGroup.Items, 10)
	_, _, err = f.posts.ListByGroup(ctx, "dogs", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	author, byAuthor, err := f.posts.ListByAuthor(ctx, "leo", 1)
	require.NoError(t, err)
	assert.Equal(t, leo.ID, author.ID)
	assert.EqualValues(t, 11, byAuthor.Count)
	_, _, err = f.posts.ListByAuthor(ctx, "ghost", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestComments(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	p := testutil.CreatePost(t, f.db, leo, "post", nil)

	_, err := f.comments.Add(ctx, leo.ID, p, "first")
	require.NoError(t, err)
	_, err = f.comments.Add(ctx, leo.ID, p, "second")
	require.NoError(t, err)

	list, err := f.comments.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "leo", list[1].Author.Username)
}

func TestFollowAndFeed(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	reader := testutil.CreateUser(t, f.db, "reader")
	leo := testutil.CreateUser(t, f.db, "leo")
	anna := testutil.CreateUser(t, f.db, "anna")
	stranger := testutil.CreateUser(t, f.db, "stranger")

	empty, err := f.rel.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.Number)

	assert.ErrorIs(t, f.rel.Follow(ctx, reader.ID, reader.ID), service.ErrFollowSelf)
	require.NoError(t, f.rel.Follow(ctx, reader.ID, leo.ID))
	require.NoError(t, f.rel.Follow(ctx, reader.ID, leo.ID))
	require.NoError(t, f.rel.Follow(ctx, reader.ID, anna.ID))
	require.NoError(t, f.rel.Unfollow(ctx, reader.ID, stranger.ID))

	first := testutil.CreatePost(t, f.db, leo, "leo first", nil)
	testutil.CreatePost(t, f.db, stranger, "stranger", nil)
	last := testutil.CreatePost(t, f.db, anna, "anna last", nil)

	feed, err := f.rel.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, last.ID, feed.Items[0].ID)
	assert.Equal(t, first.ID, feed.Items[1].ID)

	strangerFeed, err := f.rel.Feed(ctx, stranger.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, strangerFeed.Items)

	ok, err := f.rel.IsFollowing(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.rel.IsFollowing(ctx, 0, leo.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	following, err := f.rel.ListFollowing(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, following, 2)
	fans, err := f.rel.ListFans(ctx, leo.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, fans, 1)
	assert.Equal(t, "reader", fans[0].Username)

	st, err := f.rel.Stats(ctx, reader.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Following)
	assert.Zero(t, st.Followers)

	require.NoError(t, f.rel.Unfollow(ctx, reader.ID, leo.ID))
	feed, err = f.rel.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	assert.Len(t, feed.Items, 1)
}

func TestStatsCacheInvalidatedOnFollow(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rel := service.NewRelationshipService(repository.NewFollowRepository(db), repository.NewPostRepository(db),
		service.NewStatsCache(client, time.Minute), 10)
	leo := testutil.CreateUser(t, db, "leo")
	anna := testutil.CreateUser(t, db, "anna")

	st, err := rel.Stats(ctx, leo.ID)
	require.NoError(t, err)
	assert.Zero(t, st.Followers)
	assert.True(t, mr.Exists(fmt.Sprintf("relstats:%d", leo.ID)))

	require.NoError(t, rel.Follow(ctx, anna.ID, leo.ID))
	assert.False(t, mr.Exists(fmt.Sprintf("relstats:%d", leo.ID)))

	st, err = rel.Stats(ctx, leo.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Followers)
}

func TestUserRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	u, err := f.users.Register(ctx, &service.RegisterInput{Username: "leo", Email: "leo@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	_, err = f.users.Register(ctx, &service.RegisterInput{Username: "Leo", Password: "another-pass"})
	assert.ErrorIs(t, err, service.ErrUsernameTaken)

	got, err := f.users.Authenticate(ctx, "leo", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.users.Authenticate(ctx, "leo", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.users.Authenticate(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestGroupAndContactServices(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	groups := service.NewGroupService(repository.NewGroupRepository(db))

	_, err := groups.Create(ctx, "Cats", "cats", "")
	require.NoError(t, err)
	_, err = groups.Create(ctx, "Again", "cats", "")
	assert.Error(t, err)
	list, err := groups.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	contact := service.NewContactService()
	assert.NoError(t, contact.Send(ctx, &service.ContactMessage{Subject: "hi", Message: "hello", Sender: "a@b.c"}))
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, contact.Send(cancelled, &service.ContactMessage{}))
}
