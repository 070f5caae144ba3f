// Package web 页面路由的处理函数
package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/pagination"
)

// Options 页面层配置
type Options struct {
	LoginURL       string
	CookieName     string
	SecureCookie   bool
	MaxUploadBytes int64
}

// Views 页面处理函数
type Views struct {
	svc    *service.Services
	tokens *auth.TokenManager
	opts   Options
}

func New(svc *service.Services, tokens *auth.TokenManager, opts Options) *Views {
	if opts.LoginURL == "" {
		opts.LoginURL = "/auth/login/"
	}
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	return &Views{svc: svc, tokens: tokens, opts: opts}
}

func currentUser(c *gin.Context) (*model.User, bool) {
	return auth.UserFrom(c.Request.Context())
}

// render 统一注入当前用户
func (v *Views) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	u, _ := currentUser(c)
	data["user"] = u
	n := len(c.Errors)
	c.HTML(status, name, data)
	// 状态码已写出，只能记录
	for _, e := range c.Errors[n:] {
		logger.Error("render page failed",
			zap.String("template", name),
			zap.String("path", c.Request.URL.Path),
			zap.Error(e.Err),
		)
	}
}

// NotFound 404 页面，显示请求路径
func (v *Views) NotFound(c *gin.Context) {
	v.render(c, http.StatusNotFound, "misc/404.html", gin.H{"path": c.Request.URL.Path})
}

func (v *Views) forbidden(c *gin.Context) {
	v.render(c, http.StatusForbidden, "misc/403.html", nil)
	c.Abort()
}

// ServerError 500 页面，也作为 panic 恢复后的输出
func (v *Views) ServerError(c *gin.Context) {
	v.render(c, http.StatusInternalServerError, "misc/500.html", nil)
	c.Abort()
}

// fail 按错误类型输出 404/403/500
func (v *Views) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		v.NotFound(c)
	case errors.Is(err, service.ErrForbidden):
		v.forbidden(c)
	default:
		logger.Error("page handler failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		)
		_ = c.Error(err)
		v.ServerError(c)
	}
}

func pageNumber(c *gin.Context) int { return pagination.ParseNumber(c.Query("page")) }

// postID 路径中的帖子 ID；非法值按不存在处理
func postID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("post id %q: %w", c.Param("post_id"), repository.ErrNotFound)
	}
	return uint(id), nil
}

func profileURL(username string) string { return "/" + url.PathEscape(username) + "/" }

func postURL(username string, id uint) string {
	return profileURL(username) + strconv.FormatUint(uint64(id), 10) + "/"
}

// safeNext 只允许站内路径
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
