package service

import "errors"

var (
	ErrFollowSelf         = errors.New("cannot follow self")
	ErrForbidden          = errors.New("forbidden")
	ErrNotAuthor          = errors.New("only the author can edit this post")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUnknownGroup       = errors.New("unknown group")
)
