package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/pagination"
	"github.com/d60-Lab/yatube/pkg/response"
)

// ListPosts 帖子列表
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param search query string false "正文关键字（不区分大小写）"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PageDTO}
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	page, err := h.posts.List(c.Request.Context(), c.Query("search"), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, h.pageDTO(page))
}

// GetPost 帖子详情（含评论）
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response{data=PostDTO}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, fmt.Errorf("post id %q: %w", c.Param("id"), repository.ErrNotFound))
		return
	}
	ctx := c.Request.Context()
	p, err := h.posts.GetByID(ctx, uint(id))
	if err != nil {
		fail(c, err)
		return
	}
	comments, err := h.comments.List(ctx, p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	dto := h.postDTO(p)
	dto.Comments = make([]CommentDTO, 0, len(comments))
	for _, cm := range comments {
		item := CommentDTO{ID: cm.ID, Text: cm.Text, Created: cm.Created.UTC().Format("2006-01-02T15:04:05Z")}
		if cm.Author != nil {
			item.Author = cm.Author.Username
		}
		dto.Comments = append(dto.Comments, item)
	}
	response.Success(c, dto)
}

// ListGroupPosts 分组下的帖子
// @Summary 分组帖子
// @Tags 帖子
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PageDTO}
// @Failure 404 {object} response.Response
// @Router /api/v1/groups/{slug}/posts [get]
func (h *Handler) ListGroupPosts(c *gin.Context) {
	_, page, err := h.posts.ListByGroup(c.Request.Context(), c.Param("slug"), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, h.pageDTO(page))
}

// Feed 关注作者的帖子流
// @Summary 关注流
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PageDTO}
// @Failure 401 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	page, err := h.relService.Feed(c.Request.Context(), currentUser(c).ID, pagination.ParseNumber(c.Query("page")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, h.pageDTO(page))
}
