package models

import (
	"time"
)

// 举报原因
const (
	ReportReasonSpam       = "spam"
	ReportReasonNudity     = "nudity"
	ReportReasonViolence   = "violence"
	ReportReasonHarassment = "harassment"
	ReportReasonCopyright  = "copyright"
	ReportReasonOther      = "other"
)

type Report struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"` // Reporter
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Reason    string    `gorm:"size:50;not null" json:"reason"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
