package repository

import (
	"gorm.io/gorm"
)

// Repositories 存储所有仓库的集合
type Repositories struct {
	Email      EmailRepository
	Attachment AttachmentRepository
	Open       OpenRepository
	Download   DownloadRepository
}

// NewRepositories 创建所有仓库的集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Email:      NewEmailRepository(db),
		Attachment: NewAttachmentRepository(db),
		Open:       NewOpenRepository(db),
		Download:   NewDownloadRepository(db),
	}
}
