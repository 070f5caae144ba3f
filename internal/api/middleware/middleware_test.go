package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/cache"
)

func init() { gin.SetMode(gin.TestMode) }

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(func(c *gin.Context) { c.String(http.StatusInternalServerError, "oops page") }))
	r.GET("/boom", func(c *gin.Context) { panic(errors.New("boom")) })
	r.GET("/bare", func(c *gin.Context) { panic("bare") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "oops page", w.Body.String())

	r2 := gin.New()
	r2.Use(Recovery(nil))
	r2.GET("/bare", func(c *gin.Context) { panic("bare") })
	w = httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bare", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func withUser(u *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u != nil {
			c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
		}
		c.Next()
	}
}

func TestRequireLogin(t *testing.T) {
	r := gin.New()
	r.GET("/new/", RequireLogin("/auth/login/"), func(c *gin.Context) { c.String(http.StatusOK, "form") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/new/?x=1", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fnew%2F%3Fx%3D1", w.Header().Get("Location"))

	r2 := gin.New()
	r2.Use(withUser(&model.User{ID: 1}))
	r2.GET("/new/", RequireLogin("/auth/login/"), func(c *gin.Context) { c.String(http.StatusOK, "form") })
	w = httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/new/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireUser(t *testing.T) {
	r := gin.New()
	r.GET("/feed", RequireUser(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearer(t *testing.T) {
	assert.Equal(t, "tok", bearer("Bearer tok"))
	assert.Equal(t, "tok", bearer("bearer tok"))
	assert.Empty(t, bearer("Basic abc"))
	assert.Empty(t, bearer("Bearer "))
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(0.001, 2)))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPageCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewPageStore(client, "page")

	var hits atomic.Int32
	var viewer *model.User
	r := gin.New()
	r.Use(func(c *gin.Context) { withUser(viewer)(c) })
	r.GET("/", PageCache(store, time.Second), func(c *gin.Context) {
		n := hits.Add(1)
		c.String(http.StatusOK, "render %d", n)
	})
	r.GET("/missing", PageCache(store, time.Second), func(c *gin.Context) { c.String(http.StatusNotFound, "nope") })

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/")
	assert.Equal(t, "render 1", w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
	w = get("/")
	assert.Equal(t, "render 1", w.Body.String())
	assert.Equal(t, "HIT", w.Header().Get(CacheStatusHeader))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

	// 查询串不同即不同页面
	assert.Equal(t, "render 2", get("/?page=2").Body.String())

	// 登录用户不共享匿名缓存
	viewer = &model.User{ID: 9}
	assert.Equal(t, "render 3", get("/").Body.String())
	viewer = nil

	mr.FastForward(2 * time.Second)
	assert.Equal(t, "render 4", get("/").Body.String())

	get("/missing")
	assert.Equal(t, http.StatusNotFound, get("/missing").Code)
	assert.False(t, mr.Exists("page:GET:/missing:anon"))
}

func TestPageCacheDisabled(t *testing.T) {
	var hits int
	r := gin.New()
	r.GET("/", PageCache(nil, time.Second), func(c *gin.Context) { hits++; c.Status(http.StatusOK) })
	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	require.Equal(t, 2, hits)
}
