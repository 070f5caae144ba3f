package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/pagination"
)

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	// Update 只更新表单可编辑的字段
	Update(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	// Delete 删除帖子；cascadeComments 为 false 时评论保留并置空 post_id
	Delete(ctx context.Context, id uint, cascadeComments bool) error

	Page(ctx context.Context, search string, page, size int) (*pagination.Page[*model.Post], error)
	PageByGroup(ctx context.Context, groupID uint, page, size int) (*pagination.Page[*model.Post], error)
	PageByAuthor(ctx context.Context, authorID uint, page, size int) (*pagination.Page[*model.Post], error)
	PageByAuthors(ctx context.Context, authorIDs []uint, page, size int) (*pagination.Page[*model.Post], error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

var postPreloads = []string{"Author", "Group"}

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	res := r.db.WithContext(ctx).
		Model(p).
		Select("text", "group_id", "image", "audio", "audio_title", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "post")
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&p, id).Error; err != nil {
		return nil, notFound(err, "post")
	}
	return &p, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint, cascadeComments bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := tx.Model(&model.Comment{}).Where("post_id = ?", id)
		var err error
		if cascadeComments {
			err = comments.Delete(&model.Comment{}).Error
		} else {
			err = comments.Update("post_id", nil).Error
		}
		if err != nil {
			return err
		}
		res := tx.Delete(&model.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "post")
		}
		return nil
	})
}

func (r *postRepository) page(ctx context.Context, q *gorm.DB, page, size int) (*pagination.Page[*model.Post], error) {
	return pagination.Query[*model.Post](ctx, q, page, size, model.PostOrder, postPreloads...)
}

// Page 全部帖子；search 非空时按正文做大小写不敏感的子串匹配
func (r *postRepository) Page(ctx context.Context, search string, page, size int) (*pagination.Page[*model.Post], error) {
	q := r.db.Model(&model.Post{})
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where(`LOWER(posts.text) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(search))+"%")
	}
	return r.page(ctx, q, page, size)
}

func (r *postRepository) PageByGroup(ctx context.Context, groupID uint, page, size int) (*pagination.Page[*model.Post], error) {
	return r.page(ctx, r.db.Model(&model.Post{}).Where("group_id = ?", groupID), page, size)
}

func (r *postRepository) PageByAuthor(ctx context.Context, authorID uint, page, size int) (*pagination.Page[*model.Post], error) {
	return r.page(ctx, r.db.Model(&model.Post{}).Where("author_id = ?", authorID), page, size)
}

func (r *postRepository) PageByAuthors(ctx context.Context, authorIDs []uint, page, size int) (*pagination.Page[*model.Post], error) {
	if len(authorIDs) == 0 {
		return pagination.Empty[*model.Post](size), nil
	}
	return r.page(ctx, r.db.Model(&model.Post{}).Where("author_id IN ?", authorIDs), page, size)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
