package service

import (
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/storage"
)

// Services 应用用到的全部服务
type Services struct {
	Posts     PostService
	Comments  CommentService
	Relations RelationshipService
	Users     UserService
	Groups    GroupService
	Contact   ContactService
}

// New 基于同一个 *gorm.DB 装配仓储与服务；stats 可为 nil
func New(db *gorm.DB, store storage.Storage, stats *StatsCache, cfg *config.Config) *Services {
	users := repository.NewUserRepository(db)
	groups := repository.NewGroupRepository(db)
	posts := repository.NewPostRepository(db)
	follows := repository.NewFollowRepository(db)

	return &Services{
		Posts: NewPostService(posts, groups, users, store, PostServiceOptions{
			PageSize:        cfg.Pagination.PageSize,
			CascadeComments: cfg.Comments.OnPostDelete == config.CommentPolicyCascade,
		}),
		Comments:  NewCommentService(repository.NewCommentRepository(db)),
		Relations: NewRelationshipService(follows, posts, stats, cfg.Pagination.PageSize),
		Users:     NewUserService(users, cfg.Auth.BcryptCost),
		Groups:    NewGroupService(groups),
		Contact:   NewContactService(),
	}
}
