package model

import "time"

// Post 帖子，默认按发布时间倒序
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	PubDate    time.Time `gorm:"index:idx_post_pub_date;autoCreateTime;<-:create" json:"pub_date"`
	AuthorID   uint      `gorm:"not null;index:idx_post_author" json:"author_id"`
	Author     *User     `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	GroupID    *uint     `gorm:"index:idx_post_group" json:"group_id"`
	Group      *Group    `gorm:"constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image      string    `gorm:"type:varchar(255)" json:"image,omitempty"`
	Audio      string    `gorm:"type:varchar(255)" json:"audio,omitempty"`
	AudioTitle *string   `gorm:"type:varchar(30)" json:"audio_title,omitempty"`
	UpdatedAt  time.Time `json:"-"`
}

func (Post) TableName() string { return "posts" }

// PostOrder 列表默认排序
const PostOrder = "pub_date DESC, id DESC"
