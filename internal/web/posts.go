package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

// Index 首页，支持 ?search= 按正文搜索
func (v *Views) Index(c *gin.Context) {
	ctx := c.Request.Context()
	search := strings.TrimSpace(c.Query("search"))
	page, err := v.svc.Posts.List(ctx, search, pageNumber(c))
	if err != nil {
		v.fail(c, err)
		return
	}
	groups, err := v.svc.Groups.List(ctx)
	if err != nil {
		v.fail(c, err)
		return
	}
	var query url.Values
	if search != "" {
		query = url.Values{"search": {search}}
	}
	v.render(c, http.StatusOK, "index.html", gin.H{
		"page":   page,
		"groups": groups,
		"search": search,
		"query":  query,
	})
}

func (v *Views) GroupPosts(c *gin.Context) {
	ctx := c.Request.Context()
	group, page, err := v.svc.Posts.ListByGroup(ctx, c.Param("slug"), pageNumber(c))
	if err != nil {
		v.fail(c, err)
		return
	}
	groups, err := v.svc.Groups.List(ctx)
	if err != nil {
		v.fail(c, err)
		return
	}
	v.render(c, http.StatusOK, "group.html", gin.H{"group": group, "page": page, "groups": groups})
}

// bindPostForm 绑定文本字段与上传文件
func (v *Views) bindPostForm(c *gin.Context) (*form.PostForm, error) {
	f := &form.PostForm{MaxUploadBytes: v.opts.MaxUploadBytes}
	if err := c.ShouldBind(f); err != nil {
		return nil, err
	}
	if fh, err := c.FormFile("image"); err == nil {
		f.Image = fh
	}
	if fh, err := c.FormFile("audio"); err == nil {
		f.Audio = fh
	}
	return f, nil
}

func (v *Views) renderPostForm(c *gin.Context, f *form.PostForm, post *model.Post) {
	groups, err := v.svc.Groups.List(c.Request.Context())
	if err != nil {
		v.fail(c, err)
		return
	}
	v.render(c, http.StatusOK, "new_post.html", gin.H{"form": f, "post": post, "groups": groups})
}

// NewPost GET 展示表单，POST 创建后回到首页
func (v *Views) NewPost(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		v.renderPostForm(c, &form.PostForm{Errors: form.Errors{}}, nil)
		return
	}
	u, _ := currentUser(c)
	f, err := v.bindPostForm(c)
	if err != nil {
		f = &form.PostForm{Errors: form.Errors{form.NonField: {err.Error()}}}
		v.renderPostForm(c, f, nil)
		return
	}
	if !f.Validate() {
		v.renderPostForm(c, f, nil)
		return
	}
	if _, err := v.svc.Posts.Create(c.Request.Context(), u.ID, f.Input()); err != nil {
		if errors.Is(err, service.ErrUnknownGroup) {
			f.UnknownGroup()
			v.renderPostForm(c, f, nil)
			return
		}
		v.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Profile 作者主页
func (v *Views) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, page, err := v.svc.Posts.ListByAuthor(ctx, c.Param("username"), pageNumber(c))
	if err != nil {
		v.fail(c, err)
		return
	}
	var viewerID uint
	if u, ok := currentUser(c); ok {
		viewerID = u.ID
	}
	following, err := v.svc.Relations.IsFollowing(ctx, viewerID, author.ID)
	if err != nil {
		v.fail(c, err)
		return
	}
	stats, err := v.svc.Relations.Stats(ctx, author.ID)
	if err != nil {
		v.fail(c, err)
		return
	}
	v.render(c, http.StatusOK, "profile.html", gin.H{
		"author":    author,
		"page":      page,
		"following": following,
		"stats":     stats,
	})
}

// loadPost 按 username + post_id 取帖子，二者不匹配即 404
func (v *Views) loadPost(c *gin.Context) (*model.Post, bool) {
	id, err := postID(c)
	if err != nil {
		v.fail(c, err)
		return nil, false
	}
	post, err := v.svc.Posts.Get(c.Request.Context(), c.Param("username"), id)
	if err != nil {
		v.fail(c, err)
		return nil, false
	}
	return post, true
}

func (v *Views) renderPost(c *gin.Context, post *model.Post, f *form.CommentForm) {
	comments, err := v.svc.Comments.List(c.Request.Context(), post.ID)
	if err != nil {
		v.fail(c, err)
		return
	}
	v.render(c, http.StatusOK, "post.html", gin.H{
		"author":   post.Author,
		"post":     post,
		"comments": comments,
		"form":     f,
	})
}

// PostView 帖子详情与评论
func (v *Views) PostView(c *gin.Context) {
	post, ok := v.loadPost(c)
	if !ok {
		return
	}
	v.renderPost(c, post, &form.CommentForm{Errors: form.Errors{}})
}

// PostEdit 仅作者可编辑，其他人静默跳回详情页
func (v *Views) PostEdit(c *gin.Context) {
	post, ok := v.loadPost(c)
	if !ok {
		return
	}
	detail := postURL(post.Author.Username, post.ID)
	u, _ := currentUser(c)
	if u.ID != post.AuthorID {
		c.Redirect(http.StatusFound, detail)
		return
	}

	if c.Request.Method != http.MethodPost {
		v.renderPostForm(c, form.PostFormFrom(post), post)
		return
	}
	f, err := v.bindPostForm(c)
	if err != nil {
		f = form.PostFormFrom(post)
		f.Errors.Add(form.NonField, err.Error())
		v.renderPostForm(c, f, post)
		return
	}
	if !f.Validate() {
		v.renderPostForm(c, f, post)
		return
	}
	if _, err := v.svc.Posts.Update(c.Request.Context(), u.ID, post.ID, f.Input()); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownGroup):
			f.UnknownGroup()
			v.renderPostForm(c, f, post)
		case errors.Is(err, service.ErrNotAuthor):
			c.Redirect(http.StatusFound, detail)
		default:
			v.fail(c, err)
		}
		return
	}
	c.Redirect(http.StatusFound, detail)
}

// AddComment 校验失败时在详情页显示错误
func (v *Views) AddComment(c *gin.Context) {
	post, ok := v.loadPost(c)
	if !ok {
		return
	}
	u, _ := currentUser(c)
	f := &form.CommentForm{}
	if err := c.ShouldBind(f); err != nil || !f.Validate() {
		if f.Errors == nil {
			f.Errors = form.Errors{}
		}
		if err != nil {
			f.Errors.Add(form.NonField, err.Error())
		}
		v.renderPost(c, post, f)
		return
	}
	if _, err := v.svc.Comments.Add(c.Request.Context(), u.ID, post, f.Text); err != nil {
		v.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
}

// CommentRedirect 评论地址的 GET 请求回到详情页（登录后的 next 跳转）
func (v *Views) CommentRedirect(c *gin.Context) {
	post, ok := v.loadPost(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
}

// PostDelete 仅作者可删除，其他人 403
func (v *Views) PostDelete(c *gin.Context) {
	id, err := postID(c)
	if err != nil {
		v.fail(c, err)
		return
	}
	u, _ := currentUser(c)
	if err := v.svc.Posts.Delete(c.Request.Context(), u.ID, id); err != nil {
		v.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
