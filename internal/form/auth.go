package form

import (
	"strings"

	"github.com/d60-Lab/yatube/internal/service"
)

// reservedUsernames 与站点一级路径冲突的用户名
var reservedUsernames = map[string]bool{
	"new": true, "follow": true, "group": true, "delete": true, "media": true,
	"auth": true, "api": true, "swagger": true, "contact": true, "healthz": true,
}

// SignupForm 注册
type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,email"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required"`
	Errors    Errors `form:"-"`
}

func (f *SignupForm) Validate() bool {
	f.Errors = Errors{}
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	check(f, f.Errors)

	if f.Password1 != "" && f.Password2 != "" && f.Password1 != f.Password2 {
		f.Errors.Add("password2", "The two password fields didn't match.")
	}
	if reservedUsernames[strings.ToLower(f.Username)] {
		f.Errors.Add("username", "This username is reserved.")
	}
	if f.Password1 != "" && isNumeric(f.Password1) {
		f.Errors.Add("password1", "This password is entirely numeric.")
	}
	return !f.Errors.Any()
}

// UsernameTaken 用户名已存在时由调用方回填
func (f *SignupForm) UsernameTaken() {
	f.Errors.Add("username", "A user with that username already exists.")
}

func (f *SignupForm) Input() *service.RegisterInput {
	return &service.RegisterInput{
		Username:  f.Username,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Password:  f.Password1,
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// LoginForm 登录
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
	Errors   Errors `form:"-"`
}

func (f *LoginForm) Validate() bool {
	f.Errors = Errors{}
	f.Username = strings.TrimSpace(f.Username)
	check(f, f.Errors)
	return !f.Errors.Any()
}

// InvalidCredentials 用户名或密码错误
func (f *LoginForm) InvalidCredentials() {
	f.Errors.Add(NonField, "Please enter a correct username and password. Note that both fields may be case-sensitive.")
}
