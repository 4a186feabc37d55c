package service

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"mailtrace/internal/model"
	"mailtrace/internal/repository"
	"mailtrace/internal/storage"
	"mailtrace/internal/util"
)

// CreateEmailRequest 创建追踪邮件的参数
type CreateEmailRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Recipient   string `json:"recipient" binding:"required"`
	SenderEmail string `json:"sender_email"`
}

// CreatedEmail 创建结果，带可直接嵌入邮件正文的像素片段
type CreatedEmail struct {
	*model.TrackedEmail
	PixelURL    string `json:"pixel_url"`
	HTMLSnippet string `json:"html_snippet"`
}

// TrackingService 追踪对象的生命周期管理
type TrackingService interface {
	CreateTrackedEmail(userID string, req CreateEmailRequest) (*CreatedEmail, error)
	AddAttachment(userID, emailID, filename, contentType string, size int64, body io.Reader) (*model.Attachment, error)
	GetAttachment(attachmentID string) (*model.Attachment, error)
	// DeleteEmail 级联删除邮件及其全部事件，不存在或不属于该用户时返回ErrNotFound
	DeleteEmail(userID, emailID string) error
	PixelURL(emailID string) string
	HTMLSnippet(emailID string) string
	DownloadURL(attachmentID string) string
}

type trackingService struct {
	emails      repository.EmailRepository
	attachments repository.AttachmentRepository
	files       storage.FileStore
	baseURL     string
}

// NewTrackingService 创建追踪服务
func NewTrackingService(emails repository.EmailRepository, attachments repository.AttachmentRepository, files storage.FileStore, baseURL string) TrackingService {
	return &trackingService{
		emails:      emails,
		attachments: attachments,
		files:       files,
		baseURL:     baseURL,
	}
}

// CreateTrackedEmail 创建追踪邮件并生成像素链接
func (s *trackingService) CreateTrackedEmail(userID string, req CreateEmailRequest) (*CreatedEmail, error) {
	id, err := util.GenerateTrackingID()
	if err != nil {
		return nil, err
	}

	email := &model.TrackedEmail{
		ID:          id,
		UserID:      userID,
		Subject:     req.Subject,
		Recipient:   req.Recipient,
		SenderEmail: req.SenderEmail,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.emails.Create(email); err != nil {
		return nil, err
	}

	return &CreatedEmail{
		TrackedEmail: email,
		PixelURL:     s.PixelURL(id),
		HTMLSnippet:  s.HTMLSnippet(id),
	}, nil
}

// AddAttachment 登记一个附件并写入文件存储
func (s *trackingService) AddAttachment(userID, emailID, filename, contentType string, size int64, body io.Reader) (*model.Attachment, error) {
	// 附件必须挂在当前用户的邮件下
	if _, err := s.emails.FindByIDAndUser(emailID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	id, err := util.GenerateTrackingID()
	if err != nil {
		return nil, err
	}

	storageKey := emailID + "/" + id
	if err := s.files.Put(storageKey, body, contentType); err != nil {
		return nil, err
	}

	attachment := &model.Attachment{
		ID:          id,
		EmailID:     emailID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StorageKey:  storageKey,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.attachments.Create(attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// GetAttachment 查找附件，下载端点不校验归属
func (s *trackingService) GetAttachment(attachmentID string) (*model.Attachment, error) {
	attachment, err := s.attachments.FindByID(attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return attachment, nil
}

// DeleteEmail 级联删除
func (s *trackingService) DeleteEmail(userID, emailID string) error {
	deleted, err := s.emails.DeleteCascade(emailID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// PixelURL 拼接像素地址
func (s *trackingService) PixelURL(emailID string) string {
	return fmt.Sprintf("%s/api/track/%s/pixel.png", s.baseURL, emailID)
}

// HTMLSnippet 生成可嵌入正文的隐藏图片片段
func (s *trackingService) HTMLSnippet(emailID string) string {
	return fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none;" alt="" />`, s.PixelURL(emailID))
}

// DownloadURL 拼接附件下载地址
func (s *trackingService) DownloadURL(attachmentID string) string {
	return fmt.Sprintf("%s/api/track/download/%s", s.baseURL, attachmentID)
}
