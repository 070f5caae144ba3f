package auth

import (
	"context"

	"github.com/d60-Lab/yatube/internal/model"
)

type userKey struct{}

// WithUser 把当前用户放入请求 context
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom 取当前用户；匿名请求返回 nil, false
func UserFrom(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey{}).(*model.User)
	return u, ok && u != nil
}

// UserID 当前用户 ID，匿名为 0
func UserID(ctx context.Context) uint {
	if u, ok := UserFrom(ctx); ok {
		return u.ID
	}
	return 0
}
