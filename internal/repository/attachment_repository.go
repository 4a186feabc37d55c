package repository

import (
	"gorm.io/gorm"

	"mailtrace/internal/model"
)

// AttachmentRepository 附件仓库接口
type AttachmentRepository interface {
	Create(attachment *model.Attachment) error
	FindByID(id string) (*model.Attachment, error)
	FindByEmailID(emailID string) ([]*model.Attachment, error)
}

// GormAttachmentRepository 基于GORM的附件仓库实现
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建附件仓库
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create 创建附件记录
func (r *GormAttachmentRepository) Create(attachment *model.Attachment) error {
	return r.db.Create(attachment).Error
}

// FindByID 根据ID查找附件
func (r *GormAttachmentRepository) FindByID(id string) (*model.Attachment, error) {
	var attachment model.Attachment
	result := r.db.First(&attachment, "id = ?", id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &attachment, nil
}

// FindByEmailID 查找邮件的所有附件
func (r *GormAttachmentRepository) FindByEmailID(emailID string) ([]*model.Attachment, error) {
	var attachments []*model.Attachment
	result := r.db.Where("email_id = ?", emailID).Order("created_at ASC").Find(&attachments)
	if result.Error != nil {
		return nil, result.Error
	}
	return attachments, nil
}
