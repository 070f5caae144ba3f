package model

import "time"

// Comment 评论；帖子删除后 post_id 置空（或按配置级联删除）
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Created  time.Time `gorm:"autoCreateTime;<-:create;index" json:"created"`
	PostID   *uint     `gorm:"index:idx_comment_post" json:"post_id"`
	Post     *Post     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   *User     `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
}

func (Comment) TableName() string { return "comments" }

// CommentOrder 评论按时间正序
const CommentOrder = "created ASC, id ASC"
