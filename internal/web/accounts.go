package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// startSession 签发令牌写入 HttpOnly cookie
func (v *Views) startSession(c *gin.Context, u *model.User) error {
	token, _, err := v.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(v.opts.CookieName, token, int(v.tokens.TTL().Seconds()), "/", "", v.opts.SecureCookie, true)
	return nil
}

func (v *Views) Login(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		v.render(c, http.StatusOK, "auth/login.html", gin.H{
			"form": &form.LoginForm{Next: c.Query("next"), Errors: form.Errors{}},
		})
		return
	}
	f := &form.LoginForm{}
	if err := c.ShouldBind(f); err != nil || !f.Validate() {
		if f.Errors == nil {
			f.Errors = form.Errors{}
		}
		v.render(c, http.StatusOK, "auth/login.html", gin.H{"form": f})
		return
	}
	u, err := v.svc.Users.Authenticate(c.Request.Context(), f.Username, f.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logger.Warn("login failed", zap.String("username", f.Username), zap.String("client_ip", c.ClientIP()))
			f.InvalidCredentials()
			v.render(c, http.StatusOK, "auth/login.html", gin.H{"form": f})
			return
		}
		v.fail(c, err)
		return
	}
	if err := v.startSession(c, u); err != nil {
		v.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, safeNext(f.Next))
}

// Logout 清除会话 cookie
func (v *Views) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(v.opts.CookieName, "", -1, "/", "", v.opts.SecureCookie, true)
	c.Redirect(http.StatusFound, "/")
}

// Signup 注册成功后直接登录
func (v *Views) Signup(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		v.render(c, http.StatusOK, "auth/signup.html", gin.H{"form": &form.SignupForm{Errors: form.Errors{}}})
		return
	}
	f := &form.SignupForm{}
	if err := c.ShouldBind(f); err != nil || !f.Validate() {
		if f.Errors == nil {
			f.Errors = form.Errors{}
		}
		v.render(c, http.StatusOK, "auth/signup.html", gin.H{"form": f})
		return
	}
	u, err := v.svc.Users.Register(c.Request.Context(), f.Input())
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			f.UsernameTaken()
			v.render(c, http.StatusOK, "auth/signup.html", gin.H{"form": f})
			return
		}
		v.fail(c, err)
		return
	}
	if err := v.startSession(c, u); err != nil {
		v.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
