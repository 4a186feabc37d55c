package repository

import (
	"gorm.io/gorm"

	"mailtrace/internal/model"
)

// PageQuery 分页查询参数
type PageQuery struct {
	Page     int
	PageSize int
}

// PageResult 分页查询结果
type PageResult struct {
	Total int64
	Items []*model.TrackedEmail
}

// EmailRepository 追踪邮件仓库接口
type EmailRepository interface {
	Create(email *model.TrackedEmail) error
	FindByID(id string) (*model.TrackedEmail, error)
	FindByIDAndUser(id, userID string) (*model.TrackedEmail, error)
	FindPage(userID string, query PageQuery) (*PageResult, error)
	CountByUser(userID string) (int64, error)
	// DeleteCascade 删除邮件及其全部打开记录、附件和下载记录
	DeleteCascade(id, userID string) (bool, error)
}

// GormEmailRepository 基于GORM的追踪邮件仓库实现
type GormEmailRepository struct {
	db *gorm.DB
}

// NewEmailRepository 创建追踪邮件仓库
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &GormEmailRepository{db: db}
}

// Create 创建追踪邮件
func (r *GormEmailRepository) Create(email *model.TrackedEmail) error {
	return r.db.Create(email).Error
}

// FindByID 根据ID查找追踪邮件，像素端点不校验归属
func (r *GormEmailRepository) FindByID(id string) (*model.TrackedEmail, error) {
	var email model.TrackedEmail
	result := r.db.First(&email, "id = ?", id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &email, nil
}

// FindByIDAndUser 根据ID和归属用户查找追踪邮件
func (r *GormEmailRepository) FindByIDAndUser(id, userID string) (*model.TrackedEmail, error) {
	var email model.TrackedEmail
	result := r.db.First(&email, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return nil, result.Error
	}
	return &email, nil
}

// FindPage 分页查询用户的追踪邮件，按创建时间倒序
func (r *GormEmailRepository) FindPage(userID string, query PageQuery) (*PageResult, error) {
	var emails []*model.TrackedEmail
	var total int64

	db := r.db.Model(&model.TrackedEmail{}).Where("user_id = ?", userID)

	// 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	// 设置默认值
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	// 执行分页查询
	if err := db.Order("created_at DESC").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&emails).Error; err != nil {
		return nil, err
	}

	return &PageResult{
		Total: total,
		Items: emails,
	}, nil
}

// CountByUser 统计用户的追踪邮件总数
func (r *GormEmailRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.TrackedEmail{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteCascade 在一个事务里删除邮件及其所有关联数据
// 级联删除保证后续查询不会聚合到已删邮件的孤儿事件
func (r *GormEmailRepository) DeleteCascade(id, userID string) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.TrackedEmail{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 不存在或不属于该用户，事务内无事可做
			return nil
		}
		deleted = true

		// 附件下载记录先于附件删除
		var attachmentIDs []string
		if err := tx.Model(&model.Attachment{}).
			Where("email_id = ?", id).
			Pluck("id", &attachmentIDs).Error; err != nil {
			return err
		}
		if len(attachmentIDs) > 0 {
			if err := tx.Where("attachment_id IN ?", attachmentIDs).
				Delete(&model.AttachmentDownload{}).Error; err != nil {
				return err
			}
			if err := tx.Where("email_id = ?", id).Delete(&model.Attachment{}).Error; err != nil {
				return err
			}
		}

		return tx.Where("email_id = ?", id).Delete(&model.EmailOpen{}).Error
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
