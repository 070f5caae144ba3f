package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

type CommentService interface {
	// Add 给 post 添加评论，post 须已存在
	Add(ctx context.Context, authorID uint, post *model.Post, text string) (*model.Comment, error)
	List(ctx context.Context, postID uint) ([]*model.Comment, error)
}

type commentService struct {
	comments repository.CommentRepository
}

func NewCommentService(comments repository.CommentRepository) CommentService {
	return &commentService{comments: comments}
}

func (s *commentService) Add(ctx context.Context, authorID uint, post *model.Post, text string) (*model.Comment, error) {
	c := &model.Comment{Text: text, PostID: &post.ID, AuthorID: authorID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("comment on post %d: %w", post.ID, err)
	}
	return c, nil
}

func (s *commentService) List(ctx context.Context, postID uint) ([]*model.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}
