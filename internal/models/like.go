package models

import (
	"time"
)

// PostLike 点赞关系，(post_id, user_id) 复合主键保证同一用户只能赞一次
type PostLike struct {
	PostID    uint      `gorm:"primaryKey" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
