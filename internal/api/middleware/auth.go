package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Authenticate 从 session cookie 或 Bearer 头解析当前用户；无效凭证按匿名处理
func Authenticate(tokens *auth.TokenManager, users service.UserService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(cookieName)
		}
		if raw == "" {
			c.Next()
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			logger.Debug("ignore invalid token", zap.Error(err))
			c.Next()
			return
		}
		id, err := claims.UserID()
		if err != nil {
			c.Next()
			return
		}
		u, err := users.GetByID(c.Request.Context(), id)
		if err != nil {
			logger.Debug("token user not found", zap.Uint("user_id", id), zap.Error(err))
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
		c.Next()
	}
}

func bearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// RequireLogin 页面路由：匿名请求重定向到登录页并带上 next
func RequireLogin(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.UserFrom(c.Request.Context()); ok {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginRedirect(loginURL, c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// LoginRedirect 登录页地址，next 为登录后返回的路径
func LoginRedirect(loginURL, next string) string {
	return loginURL + "?" + url.Values{"next": {next}}.Encode()
}

// RequireUser API 路由：匿名请求返回 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.UserFrom(c.Request.Context()); !ok {
			response.Unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}
