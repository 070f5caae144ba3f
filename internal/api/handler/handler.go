package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/pagination"
	"github.com/d60-Lab/yatube/pkg/response"
	"github.com/d60-Lab/yatube/pkg/storage"
)

// Handler JSON API
type Handler struct {
	posts      service.PostService
	comments   service.CommentService
	relService service.RelationshipService
	users      service.UserService
	tokens     *auth.TokenManager
	store      storage.Storage
	db         *gorm.DB
	redis      redis.Cmdable
}

// New redis 可为 nil
func New(svc *service.Services, tokens *auth.TokenManager, store storage.Storage, db *gorm.DB, rdb redis.Cmdable) *Handler {
	return &Handler{
		posts:      svc.Posts,
		comments:   svc.Comments,
		relService: svc.Relations,
		users:      svc.Users,
		tokens:     tokens,
		store:      store,
		db:         db,
		redis:      rdb,
	}
}

// PostDTO 帖子的 API 表示，媒体字段为可访问 URL
type PostDTO struct {
	ID         uint         `json:"id"`
	Text       string       `json:"text"`
	PubDate    string       `json:"pub_date"`
	Author     string       `json:"author"`
	Group      *string      `json:"group,omitempty"`
	Image      string       `json:"image,omitempty"`
	Audio      string       `json:"audio,omitempty"`
	AudioTitle *string      `json:"audio_title,omitempty"`
	Comments   []CommentDTO `json:"comments,omitempty"`
}

type CommentDTO struct {
	ID      uint   `json:"id"`
	Author  string `json:"author"`
	Text    string `json:"text"`
	Created string `json:"created"`
}

// PageDTO 分页结果
type PageDTO struct {
	Count    int64     `json:"count"`
	Page     int       `json:"page"`
	NumPages int       `json:"num_pages"`
	Results  []PostDTO `json:"results"`
}

type UserDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

func (h *Handler) postDTO(p *model.Post) PostDTO {
	dto := PostDTO{
		ID:         p.ID,
		Text:       p.Text,
		PubDate:    p.PubDate.UTC().Format("2006-01-02T15:04:05Z"),
		Image:      h.store.URL(p.Image),
		Audio:      h.store.URL(p.Audio),
		AudioTitle: p.AudioTitle,
	}
	if p.Author != nil {
		dto.Author = p.Author.Username
	}
	if p.Group != nil {
		slug := p.Group.Slug
		dto.Group = &slug
	}
	return dto
}

func (h *Handler) pageDTO(page *pagination.Page[*model.Post]) PageDTO {
	res := PageDTO{Count: page.Count, Page: page.Number, NumPages: page.NumPages, Results: make([]PostDTO, 0, len(page.Items))}
	for _, p := range page.Items {
		res.Results = append(res.Results, h.postDTO(p))
	}
	return res
}

func usersDTO(users []*model.User) []UserDTO {
	res := make([]UserDTO, 0, len(users))
	for _, u := range users {
		res = append(res, UserDTO{ID: u.ID, Username: u.Username, FullName: u.FullName()})
	}
	return res
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// fail 统一错误映射
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotAuthor):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrFollowSelf):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func currentUser(c *gin.Context) *model.User {
	u, _ := auth.UserFrom(c.Request.Context())
	return u
}
