package model

import (
	"time"
)

// TrackedEmail 被追踪的邮件
type TrackedEmail struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"` // 32位hex追踪ID
	UserID         string    `json:"user_id" gorm:"index;not null"`
	Subject        string    `json:"subject" gorm:"not null"`
	Recipient      string    `json:"recipient" gorm:"not null"`
	SenderEmail    string    `json:"sender_email"`
	GmailMessageID string    `json:"gmail_message_id"` // 由外部Gmail发送流程回填
	CreatedAt      time.Time `json:"created_at"`
}

// Attachment 被追踪的附件
type Attachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	EmailID     string    `json:"email_id" gorm:"index;not null"`
	Filename    string    `json:"filename" gorm:"not null"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"storage_key"` // 对象存储中的key
	CreatedAt   time.Time `json:"created_at"`
}
