// Package router 装配 gin 引擎：中间件、页面路由、JSON API 与文档
package router

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/web"
	"github.com/d60-Lab/yatube/pkg/cache"
	"github.com/d60-Lab/yatube/pkg/response"
	"github.com/d60-Lab/yatube/pkg/storage"
)

const apiPrefix = "/api/"

// Deps 外部依赖；Redis 为 nil 时不启用页面缓存与计数缓存
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Storage *storage.Local
}

// New 构建完整的 HTTP 引擎
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config

	var (
		rdb       redis.Cmdable
		pageStore *cache.PageStore
		stats     *service.StatsCache
	)
	if d.Redis != nil {
		rdb = d.Redis
		pageStore = cache.NewPageStore(d.Redis, "page")
		stats = service.NewStatsCache(d.Redis, time.Minute)
	}

	svc := service.New(d.DB, d.Storage, stats, cfg)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	renderer, err := web.NewRenderer(d.Storage)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	views := web.New(svc, tokens, web.Options{
		LoginURL:       cfg.Auth.LoginURL,
		CookieName:     cfg.Auth.CookieName,
		SecureCookie:   cfg.Auth.SecureCookie,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	})
	h := handler.New(svc, tokens, d.Storage, d.DB, rdb)

	r := gin.New()
	r.HTMLRender = renderer
	if cfg.Media.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.Media.MaxUploadBytes
	}

	mediaURL := "/" + strings.Trim(cfg.Media.URL, "/") + "/"
	r.Use(middleware.RequestID(), middleware.Logger())
	r.Use(middleware.Recovery(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
			response.Error(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}
		views.ServerError(c)
	}))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{mediaURL})))
	r.Use(middleware.Authenticate(tokens, svc.Users, cfg.Auth.CookieName))

	limit := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	login := middleware.RequireLogin(cfg.Auth.LoginURL)

	r.GET("/healthz", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.Static(mediaURL, d.Storage.Root())

	registerAPI(r.Group("/api/v1"), h, limit)
	registerPages(r, views, pageStore, cfg.Cache.PageTTL, login, limit)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
			response.NotFound(c, "not found")
			return
		}
		views.NotFound(c)
	})
	return r, nil
}

func registerAPI(api *gin.RouterGroup, h *handler.Handler, limit gin.HandlerFunc) {
	api.POST("/auth/token", limit, h.IssueToken)
	api.GET("/posts", h.ListPosts)
	api.GET("/posts/:id", h.GetPost)
	api.GET("/groups/:slug/posts", h.ListGroupPosts)
	api.GET("/relations/:username/following", h.ListFollowing)
	api.GET("/relations/:username/followers", h.ListFollowers)

	authed := api.Group("", middleware.RequireUser())
	authed.GET("/feed", h.Feed)
	authed.POST("/relations/follow", h.Follow)
	authed.POST("/relations/unfollow", h.Unfollow)
}

func registerPages(r *gin.Engine, v *web.Views, store *cache.PageStore, ttl time.Duration, login, limit gin.HandlerFunc) {
	r.GET("/", middleware.PageCache(store, ttl), v.Index)
	r.GET("/group/:slug/", v.GroupPosts)
	r.GET("/new/", login, v.NewPost)
	r.POST("/new/", login, v.NewPost)
	r.GET("/follow/", login, v.FollowIndex)
	r.POST("/delete/:post_id/", login, v.PostDelete)
	r.GET("/contact/", v.Contact)
	r.POST("/contact/", limit, v.Contact)

	accounts := r.Group("/auth")
	accounts.GET("/login/", v.Login)
	accounts.POST("/login/", limit, v.Login)
	accounts.GET("/logout/", v.Logout)
	accounts.POST("/logout/", v.Logout)
	accounts.GET("/signup/", v.Signup)
	accounts.POST("/signup/", limit, v.Signup)

	r.GET("/:username/", v.Profile)
	r.GET("/:username/follow/", login, v.ProfileFollow)
	r.GET("/:username/unfollow/", login, v.ProfileUnfollow)
	r.GET("/:username/:post_id/", v.PostView)
	r.GET("/:username/:post_id/edit/", login, v.PostEdit)
	r.POST("/:username/:post_id/edit/", login, v.PostEdit)
	r.GET("/:username/:post_id/comment/", v.CommentRedirect)
	r.POST("/:username/:post_id/comment/", login, v.AddComment)
}
