package model

import (
	"time"
)

// EmailOpen 一次像素拉取事件，只插入不更新
// 唯一的例外是地理位置回填任务会补齐仍为Unknown的位置字段
type EmailOpen struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	EmailID   string     `json:"email_id" gorm:"index;not null"`
	Timestamp time.Time  `json:"timestamp" gorm:"index"`
	IP        string     `json:"ip"` // 可能为"Unknown"
	UserAgent string     `json:"user_agent"`
	Referer   string     `json:"referer"`
	Language  string     `json:"language"`
	Location  Location   `json:"location" gorm:"embedded"`
	Device    DeviceInfo `json:"device" gorm:"embedded"`
}

// AttachmentDownload 一次附件下载事件
type AttachmentDownload struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	AttachmentID string     `json:"attachment_id" gorm:"index;not null"`
	Timestamp    time.Time  `json:"timestamp" gorm:"index"`
	IP           string     `json:"ip"`
	UserAgent    string     `json:"user_agent"`
	Language     string     `json:"language"`
	Location     Location   `json:"location" gorm:"embedded"`
	Device       DeviceInfo `json:"device" gorm:"embedded"`
}

// ReaderView 按IP聚合出的一个读者视图，只在查询时计算，不落库
type ReaderView struct {
	IP        string     `json:"ip"`
	Location  Location   `json:"location"`
	Device    DeviceInfo `json:"device"`
	UserAgent string     `json:"user_agent"`
	OpenCount int        `json:"open_count"`
	FirstSeen time.Time  `json:"first_seen"`
	LastSeen  time.Time  `json:"last_seen"`
}
