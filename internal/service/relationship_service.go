package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/pagination"
)

// RelationshipService 关注关系与关注流
type RelationshipService interface {
	// Follow 幂等；关注自己返回 ErrFollowSelf
	Follow(ctx context.Context, userID, authorID uint) error
	// Unfollow 关系不存在时为空操作
	Unfollow(ctx context.Context, userID, authorID uint) error
	IsFollowing(ctx context.Context, userID, authorID uint) (bool, error)
	// Feed 关注作者的帖子，按发布时间倒序分页
	Feed(ctx context.Context, userID uint, page int) (*pagination.Page[*model.Post], error)
	ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)
	ListFans(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)
	Stats(ctx context.Context, userID uint) (*RelationStats, error)
}

// RelationStats 个人页计数
type RelationStats struct {
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
}

type relationshipService struct {
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	stats      *StatsCache
	pageSize   int
}

// NewRelationshipService stats 为 nil 时计数直接查库
func NewRelationshipService(followRepo repository.FollowRepository, postRepo repository.PostRepository, stats *StatsCache, pageSize int) RelationshipService {
	if pageSize < 1 {
		pageSize = pagination.DefaultPageSize
	}
	return &relationshipService{followRepo: followRepo, postRepo: postRepo, stats: stats, pageSize: pageSize}
}

func (s *relationshipService) Follow(ctx context.Context, userID, authorID uint) error {
	if userID == authorID {
		return ErrFollowSelf
	}
	if err := s.followRepo.Create(ctx, userID, authorID); err != nil {
		return fmt.Errorf("follow %d -> %d: %w", userID, authorID, err)
	}
	s.stats.Invalidate(ctx, userID, authorID)
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, userID, authorID uint) error {
	if err := s.followRepo.Delete(ctx, userID, authorID); err != nil {
		return fmt.Errorf("unfollow %d -> %d: %w", userID, authorID, err)
	}
	s.stats.Invalidate(ctx, userID, authorID)
	return nil
}

func (s *relationshipService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

// Feed 两步查询：先取关注的作者，再按作者分页帖子
func (s *relationshipService) Feed(ctx context.Context, userID uint, page int) (*pagination.Page[*model.Post], error) {
	ids, err := s.followRepo.ListAuthorIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list followed authors: %w", err)
	}
	if len(ids) == 0 {
		return pagination.Empty[*model.Post](s.pageSize), nil
	}
	return s.postRepo.PageByAuthors(ctx, ids, page, s.pageSize)
}

func offsetOf(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = pagination.DefaultPageSize
	}
	return (page - 1) * pageSize, pageSize
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error) {
	offset, limit := offsetOf(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, 0, len(items))
	for _, it := range items {
		if it.Author != nil {
			res = append(res, it.Author)
		}
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error) {
	offset, limit := offsetOf(page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, 0, len(items))
	for _, it := range items {
		if it.User != nil {
			res = append(res, it.User)
		}
	}
	return res, nil
}

func (s *relationshipService) Stats(ctx context.Context, userID uint) (*RelationStats, error) {
	if st, ok := s.stats.Get(ctx, userID); ok {
		return st, nil
	}
	following, err := s.followRepo.CountFollowings(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := &RelationStats{Following: following, Followers: followers}
	if err := s.stats.Set(ctx, userID, st); err != nil {
		logger.Warn("cache relation stats failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return st, nil
}
