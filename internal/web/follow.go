package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/service"
)

// FollowIndex 关注作者的帖子流
func (v *Views) FollowIndex(c *gin.Context) {
	ctx := c.Request.Context()
	u, _ := currentUser(c)
	page, err := v.svc.Relations.Feed(ctx, u.ID, pageNumber(c))
	if err != nil {
		v.fail(c, err)
		return
	}
	groups, err := v.svc.Groups.List(ctx)
	if err != nil {
		v.fail(c, err)
		return
	}
	v.render(c, http.StatusOK, "follow.html", gin.H{"page": page, "groups": groups})
}

// ProfileFollow 关注后回到作者主页；关注自己显示错误页
func (v *Views) ProfileFollow(c *gin.Context) {
	ctx := c.Request.Context()
	u, _ := currentUser(c)
	author, err := v.svc.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		v.fail(c, err)
		return
	}
	if err := v.svc.Relations.Follow(ctx, u.ID, author.ID); err != nil {
		if errors.Is(err, service.ErrFollowSelf) {
			v.render(c, http.StatusOK, "misc/self_subscription_error.html", nil)
			return
		}
		v.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow 未关注时为空操作
func (v *Views) ProfileUnfollow(c *gin.Context) {
	ctx := c.Request.Context()
	u, _ := currentUser(c)
	author, err := v.svc.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		v.fail(c, err)
		return
	}
	if err := v.svc.Relations.Unfollow(ctx, u.ID, author.ID); err != nil {
		v.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(author.Username))
}
