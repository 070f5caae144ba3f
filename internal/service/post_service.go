package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/pagination"
	"github.com/d60-Lab/yatube/pkg/storage"
)

const (
	imageDir = "posts"
	audioDir = "musics"
)

// PostInput 创建/编辑帖子的已校验输入；Image/Audio 为空表示不上传（编辑时保留原文件）
type PostInput struct {
	Text       string
	GroupID    *uint
	Image      *multipart.FileHeader
	Audio      *multipart.FileHeader
	AudioTitle *string
}

type PostService interface {
	Create(ctx context.Context, authorID uint, in *PostInput) (*model.Post, error)
	// Update 仅作者可编辑，否则返回 ErrNotAuthor
	Update(ctx context.Context, editorID, postID uint, in *PostInput) (*model.Post, error)
	// Delete 仅作者可删除，否则返回 ErrForbidden
	Delete(ctx context.Context, userID, postID uint) error
	// Get 帖子必须属于 username，否则按不存在处理
	Get(ctx context.Context, username string, postID uint) (*model.Post, error)
	GetByID(ctx context.Context, postID uint) (*model.Post, error)

	List(ctx context.Context, search string, page int) (*pagination.Page[*model.Post], error)
	ListByGroup(ctx context.Context, slug string, page int) (*model.Group, *pagination.Page[*model.Post], error)
	ListByAuthor(ctx context.Context, username string, page int) (*model.User, *pagination.Page[*model.Post], error)
}

type postService struct {
	posts           repository.PostRepository
	groups          repository.GroupRepository
	users           repository.UserRepository
	store           storage.Storage
	pageSize        int
	cascadeComments bool
}

type PostServiceOptions struct {
	PageSize int
	// CascadeComments 删除帖子时一并删除评论；默认保留并置空
	CascadeComments bool
}

func NewPostService(posts repository.PostRepository, groups repository.GroupRepository, users repository.UserRepository, store storage.Storage, opts PostServiceOptions) PostService {
	if opts.PageSize < 1 {
		opts.PageSize = pagination.DefaultPageSize
	}
	return &postService{
		posts:           posts,
		groups:          groups,
		users:           users,
		store:           store,
		pageSize:        opts.PageSize,
		cascadeComments: opts.CascadeComments,
	}
}

func (s *postService) checkGroup(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownGroup
		}
		return err
	}
	return nil
}

// saveMedia 写入上传文件，返回新引用；出错时清理已写入的文件
func (s *postService) saveMedia(ctx context.Context, in *PostInput) (image, audio string, err error) {
	if in.Image != nil {
		if image, err = s.store.Save(ctx, imageDir, in.Image); err != nil {
			return "", "", fmt.Errorf("save image: %w", err)
		}
	}
	if in.Audio != nil {
		if audio, err = s.store.Save(ctx, audioDir, in.Audio); err != nil {
			s.dropMedia(ctx, image)
			return "", "", fmt.Errorf("save audio: %w", err)
		}
	}
	return image, audio, nil
}

func (s *postService) dropMedia(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.store.Delete(ctx, ref); err != nil {
			logger.Warn("delete media failed", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func (s *postService) Create(ctx context.Context, authorID uint, in *PostInput) (*model.Post, error) {
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}
	image, audio, err := s.saveMedia(ctx, in)
	if err != nil {
		return nil, err
	}
	p := &model.Post{
		Text:       in.Text,
		AuthorID:   authorID,
		GroupID:    in.GroupID,
		Image:      image,
		Audio:      audio,
		AudioTitle: in.AudioTitle,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		s.dropMedia(ctx, image, audio)
		return nil, fmt.Errorf("create post: %w", err)
	}
	logger.Info("post created", zap.Uint("post_id", p.ID), zap.Uint("author_id", authorID))
	return p, nil
}

func (s *postService) Update(ctx context.Context, editorID, postID uint, in *PostInput) (*model.Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != editorID {
		return p, ErrNotAuthor
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}
	image, audio, err := s.saveMedia(ctx, in)
	if err != nil {
		return nil, err
	}

	var stale []string
	p.Text = in.Text
	p.GroupID = in.GroupID
	p.Group = nil
	p.AudioTitle = in.AudioTitle
	if image != "" {
		stale = append(stale, p.Image)
		p.Image = image
	}
	if audio != "" {
		stale = append(stale, p.Audio)
		p.Audio = audio
	}
	if err := s.posts.Update(ctx, p); err != nil {
		s.dropMedia(ctx, image, audio)
		return nil, fmt.Errorf("update post %d: %w", postID, err)
	}
	s.dropMedia(ctx, stale...)
	return p, nil
}

func (s *postService) Delete(ctx context.Context, userID, postID uint) error {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != userID {
		logger.Warn("delete post denied", zap.Uint("post_id", postID), zap.Uint("user_id", userID))
		return ErrForbidden
	}
	if err := s.posts.Delete(ctx, postID, s.cascadeComments); err != nil {
		return fmt.Errorf("delete post %d: %w", postID, err)
	}
	s.dropMedia(ctx, p.Image, p.Audio)
	return nil
}

func (s *postService) Get(ctx context.Context, username string, postID uint) (*model.Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Author == nil || p.Author.Username != username {
		return nil, fmt.Errorf("post %d by %s: %w", postID, username, repository.ErrNotFound)
	}
	return p, nil
}

func (s *postService) GetByID(ctx context.Context, postID uint) (*model.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

func (s *postService) List(ctx context.Context, search string, page int) (*pagination.Page[*model.Post], error) {
	return s.posts.Page(ctx, search, page, s.pageSize)
}

func (s *postService) ListByGroup(ctx context.Context, slug string, page int) (*model.Group, *pagination.Page[*model.Post], error) {
	g, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.posts.PageByGroup(ctx, g.ID, page, s.pageSize)
	if err != nil {
		return nil, nil, err
	}
	return g, res, nil
}

func (s *postService) ListByAuthor(ctx context.Context, username string, page int) (*model.User, *pagination.Page[*model.Post], error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.posts.PageByAuthor(ctx, u.ID, page, s.pageSize)
	if err != nil {
		return nil, nil, err
	}
	return u, res, nil
}
