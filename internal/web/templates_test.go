package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/pagination"
	"github.com/d60-Lab/yatube/pkg/storage"
)

func init() { gin.SetMode(gin.TestMode) }

type pageFixture struct {
	leo     *model.User
	group   *model.Group
	post    *model.Post
	page    *pagination.Page[*model.Post]
	groups  []*model.Group
	comment *model.Comment
}

func newPageFixture() *pageFixture {
	leo := &model.User{ID: 1, Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}
	group := &model.Group{ID: 3, Title: "Classics", Slug: "classics", Description: "old books"}
	title := "Overture"
	post := &model.Post{
		ID: 7, Text: "Happy families\nare all alike", PubDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		AuthorID: leo.ID, Author: leo, GroupID: &group.ID, Group: group,
		Image: "posts/a.png", Audio: "musics/b.mp3", AudioTitle: &title,
	}
	page := pagination.New[*model.Post](25, 2, 10)
	page.Items = []*model.Post{post}
	return &pageFixture{
		leo:     leo,
		group:   group,
		post:    post,
		page:    page,
		groups:  []*model.Group{group},
		comment: &model.Comment{ID: 9, Text: "Agreed", Created: post.PubDate, AuthorID: leo.ID, Author: leo},
	}
}

func (f *pageFixture) data(name string) gin.H {
	errs := func(field string) form.Errors { return form.Errors{field: {"bad " + field}} }
	switch name {
	case "index.html":
		return gin.H{"page": f.page, "groups": f.groups, "search": "families", "query": url.Values{"search": {"families"}}}
	case "group.html":
		return gin.H{"group": f.group, "page": f.page, "groups": f.groups}
	case "follow.html":
		return gin.H{"page": f.page, "groups": f.groups}
	case "profile.html":
		reader := &model.User{ID: 2, Username: "reader"}
		return gin.H{"author": f.leo, "page": f.page, "following": true, "stats": &service.RelationStats{Following: 2, Followers: 5}, "user": reader}
	case "post.html":
		return gin.H{"author": f.leo, "post": f.post, "comments": []*model.Comment{f.comment}, "form": &form.CommentForm{Errors: errs("text")}}
	case "new_post.html":
		pf := form.PostFormFrom(f.post)
		pf.Errors = errs("text")
		return gin.H{"form": pf, "post": f.post, "groups": f.groups}
	case "contact.html":
		return gin.H{"form": &form.ContactForm{Subject: "Hi", Errors: errs("sender")}}
	case "contact_done.html":
		return gin.H{"subject": "Hi"}
	case "auth/login.html":
		return gin.H{"form": &form.LoginForm{Next: "/follow/", Errors: errs(form.NonField)}}
	case "auth/signup.html":
		return gin.H{"form": &form.SignupForm{Username: "newbie", Errors: errs("username")}}
	case "misc/404.html":
		return gin.H{"path": "/missing/"}
	}
	return gin.H{}
}

// 每个页面都用内置模板真实渲染，且能看到公共片段的输出
func TestEmbeddedPagesRender(t *testing.T) {
	r, err := NewRenderer(storage.NewLocal(t.TempDir(), "/media/"))
	require.NoError(t, err)
	f := newPageFixture()

	want := map[string][]string{
		"index.html":                        {"Happy families<br>", "/group/classics/", "?page=1&amp;search=families", "Classics"},
		"group.html":                        {"old books", "Happy families<br>", "?page=3"},
		"follow.html":                       {"Happy families<br>", "Classics"},
		"profile.html":                      {"Leo Tolstoy", "/leo/7/", "/leo/unfollow/", "Followers: 5"},
		"post.html":                         {"/media/posts/a.png", "/media/musics/b.mp3", "Overture", "Agreed", "bad text", "/leo/7/edit/", "/delete/7/"},
		"new_post.html":                     {"/leo/7/edit/", "Classics", "bad text"},
		"contact.html":                      {"bad sender"},
		"contact_done.html":                 {"Hi"},
		"auth/login.html":                   {"bad __all__", "/follow/"},
		"auth/signup.html":                  {"bad username", "newbie"},
		"misc/403.html":                     {"Error 403"},
		"misc/404.html":                     {"Error 404", "/missing/"},
		"misc/500.html":                     {"Error 500"},
		"misc/self_subscription_error.html": {"You cannot follow yourself"},
	}

	var pages []string
	require.NoError(t, fs.WalkDir(templateFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			pages = append(pages, strings.TrimPrefix(p, "templates/pages/"))
		}
		return err
	}))
	require.Len(t, pages, len(want))

	for _, name := range pages {
		t.Run(name, func(t *testing.T) {
			require.Contains(t, want, name)
			data := f.data(name)
			if _, ok := data["user"]; !ok {
				data["user"] = f.leo
			}
			viewer := data["user"].(*model.User)

			w := httptest.NewRecorder()
			require.NoError(t, r.Instance(name, data).Render(w))
			body := w.Body.String()
			assert.Contains(t, body, "</html>")
			assert.Contains(t, body, `<a href="/`+viewer.Username+`/">`+viewer.Username+`</a>`)
			for _, s := range want[name] {
				assert.Contains(t, body, s)
			}
		})
	}
}

func TestEmbeddedIncludesPresent(t *testing.T) {
	for _, name := range []string{"_errors.html", "_groups.html", "_paginator.html", "_post_card.html", "_post_list.html"} {
		_, err := fs.Stat(templateFS, "templates/includes/"+name)
		assert.NoError(t, err, name)
	}
}

func TestRenderFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })

	r, err := NewRenderer(storage.NewLocal(t.TempDir(), "/media/"))
	require.NoError(t, err)
	engine := gin.New()
	engine.HTMLRender = r
	v := &Views{}
	engine.GET("/broken/", func(c *gin.Context) { v.render(c, http.StatusOK, "nope.html", nil) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken/", nil))

	entries := logs.FilterMessage("render page failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "nope.html", entries[0].ContextMap()["template"])
	assert.Equal(t, "/broken/", entries[0].ContextMap()["path"])
}
