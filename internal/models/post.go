package models

import (
	"path"
	"strings"
	"time"
)

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	MediaPath   string    `gorm:"size:500;not null" json:"media_path"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	Likes    []User    `gorm:"many2many:post_likes;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
	Reports  []Report  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// 非数据库字段，用于查询时填充
	IsVideo      bool `gorm:"-" json:"is_video"`
	LikeCount    int  `gorm:"-" json:"like_count"`
	CommentCount int  `gorm:"-" json:"comment_count"`
	Liked        bool `gorm:"-" json:"liked"`
}

// videoExtensions 用于展示判断，比上传白名单宽（兼容 .avi/.m4v 旧数据）
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".m4v":  true,
}

// IsVideoPath 根据扩展名判断媒体是否为视频
func IsVideoPath(p string) bool {
	if p == "" {
		return false
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return videoExtensions[strings.ToLower(path.Ext(p))]
}
