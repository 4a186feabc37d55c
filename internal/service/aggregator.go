package service

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"mailtrace/internal/model"
	"mailtrace/internal/repository"
)

// StatsResult 用户维度的汇总统计
type StatsResult struct {
	TotalEmails  int64                    `json:"total_emails"`
	TotalOpens   int64                    `json:"total_opens"`
	OpenedEmails int64                    `json:"opened_emails"`
	OpenRate     string                   `json:"open_rate"` // 百分比，保留一位小数
	RecentOpens  []*repository.RecentOpen `json:"recent_opens"`
}

// EmailSummary 列表页的单封邮件摘要
type EmailSummary struct {
	*model.TrackedEmail
	OpenCount       int        `json:"open_count"`
	UniqueOpens     int        `json:"unique_opens"`
	ForwardDetected bool       `json:"forward_detected"`
	LastOpenedAt    *time.Time `json:"last_opened_at"`
	PixelURL        string     `json:"pixel_url"`
}

// Pagination 分页元信息
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// EmailList 分页的邮件列表
type EmailList struct {
	Emails     []*EmailSummary `json:"emails"`
	Pagination Pagination      `json:"pagination"`
}

// EmailDetails 单封邮件的完整明细
type EmailDetails struct {
	*model.TrackedEmail
	PixelURL        string              `json:"pixel_url"`
	HTMLSnippet     string              `json:"html_snippet"`
	OpenCount       int                 `json:"open_count"`
	UniqueOpens     int                 `json:"unique_opens"`
	ForwardDetected bool                `json:"forward_detected"`
	Opens           []*model.EmailOpen  `json:"opens"`
	Readers         []*model.ReaderView `json:"readers"`
}

// AttachmentStats 附件及其下载统计
type AttachmentStats struct {
	*model.Attachment
	DownloadURL     string                      `json:"download_url"`
	DownloadCount   int                         `json:"download_count"`
	UniqueDownloads int                         `json:"unique_downloads"`
	ForwardDetected bool                        `json:"forward_detected"`
	Downloads       []*model.AttachmentDownload `json:"downloads"`
	Readers         []*model.ReaderView         `json:"readers"`
}

// Aggregator 读侧聚合器，所有结果实时计算不缓存
// 聚合读和并发写之间不做事务隔离，统计允许短暂的最终一致
type Aggregator interface {
	Stats(userID string) (*StatsResult, error)
	EmailDetails(userID, emailID string) (*EmailDetails, error)
	ListEmails(userID string, page, limit int) (*EmailList, error)
	AttachmentStats(userID, emailID string) ([]*AttachmentStats, error)
}

type aggregator struct {
	emails      repository.EmailRepository
	attachments repository.AttachmentRepository
	opens       repository.OpenRepository
	downloads   repository.DownloadRepository
	tracking    TrackingService
}

// NewAggregator 创建聚合器
func NewAggregator(
	emails repository.EmailRepository,
	attachments repository.AttachmentRepository,
	opens repository.OpenRepository,
	downloads repository.DownloadRepository,
	tracking TrackingService,
) Aggregator {
	return &aggregator{
		emails:      emails,
		attachments: attachments,
		opens:       opens,
		downloads:   downloads,
		tracking:    tracking,
	}
}

// Stats 用户维度汇总
func (a *aggregator) Stats(userID string) (*StatsResult, error) {
	totalEmails, err := a.emails.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	totalOpens, err := a.opens.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	openedEmails, err := a.opens.CountOpenedEmails(userID)
	if err != nil {
		return nil, err
	}
	recentOpens, err := a.opens.FindRecentByUser(userID, 10)
	if err != nil {
		return nil, err
	}

	// 零封邮件时打开率为0，避免除零
	openRate := "0.0"
	if totalEmails > 0 {
		openRate = fmt.Sprintf("%.1f", float64(openedEmails)/float64(totalEmails)*100)
	}

	return &StatsResult{
		TotalEmails:  totalEmails,
		TotalOpens:   totalOpens,
		OpenedEmails: openedEmails,
		OpenRate:     openRate,
		RecentOpens:  recentOpens,
	}, nil
}

// EmailDetails 单封邮件明细，区分"不存在"和"存在但没有事件"
func (a *aggregator) EmailDetails(userID, emailID string) (*EmailDetails, error) {
	email, err := a.emails.FindByIDAndUser(emailID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	opens, err := a.opens.FindByEmailID(emailID)
	if err != nil {
		return nil, err
	}

	readers := openReaders(opens)

	return &EmailDetails{
		TrackedEmail:    email,
		PixelURL:        a.tracking.PixelURL(emailID),
		HTMLSnippet:     a.tracking.HTMLSnippet(emailID),
		OpenCount:       len(opens),
		UniqueOpens:     len(readers),
		ForwardDetected: len(readers) > 1,
		Opens:           opens,
		Readers:         readers,
	}, nil
}

// ListEmails 分页列表，limit收敛到[1,100]，每封邮件带打开摘要
func (a *aggregator) ListEmails(userID string, page, limit int) (*EmailList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	pageResult, err := a.emails.FindPage(userID, repository.PageQuery{Page: page, PageSize: limit})
	if err != nil {
		return nil, err
	}

	summaries := make([]*EmailSummary, len(pageResult.Items))

	// 每封邮件一次事件查询，并发取回
	var g errgroup.Group
	g.SetLimit(5)
	for i, email := range pageResult.Items {
		i, email := i, email
		g.Go(func() error {
			opens, err := a.opens.FindByEmailID(email.ID)
			if err != nil {
				return err
			}

			uniqueIPs := make(map[string]struct{})
			var lastOpenedAt *time.Time
			for _, open := range opens {
				uniqueIPs[open.IP] = struct{}{}
				if lastOpenedAt == nil || open.Timestamp.After(*lastOpenedAt) {
					t := open.Timestamp
					lastOpenedAt = &t
				}
			}

			summaries[i] = &EmailSummary{
				TrackedEmail:    email,
				OpenCount:       len(opens),
				UniqueOpens:     len(uniqueIPs),
				ForwardDetected: len(uniqueIPs) > 1,
				LastOpenedAt:    lastOpenedAt,
				PixelURL:        a.tracking.PixelURL(email.ID),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalPages := (pageResult.Total + int64(limit) - 1) / int64(limit)
	return &EmailList{
		Emails: summaries,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      pageResult.Total,
			TotalPages: totalPages,
		},
	}, nil
}

// AttachmentStats 邮件下所有附件及其下载统计
func (a *aggregator) AttachmentStats(userID, emailID string) ([]*AttachmentStats, error) {
	if _, err := a.emails.FindByIDAndUser(emailID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	attachments, err := a.attachments.FindByEmailID(emailID)
	if err != nil {
		return nil, err
	}

	stats := make([]*AttachmentStats, 0, len(attachments))
	for _, attachment := range attachments {
		downloads, err := a.downloads.FindByAttachmentID(attachment.ID)
		if err != nil {
			return nil, err
		}
		readers := downloadReaders(downloads)
		stats = append(stats, &AttachmentStats{
			Attachment:      attachment,
			DownloadURL:     a.tracking.DownloadURL(attachment.ID),
			DownloadCount:   len(downloads),
			UniqueDownloads: len(readers),
			ForwardDetected: len(readers) > 1,
			Downloads:       downloads,
			Readers:         readers,
		})
	}
	return stats, nil
}

// openReaders 按IP分组聚合读者视图
// 位置/设备取该IP的第一条事件，同一IP的服务商归属和UA基本不会变
func openReaders(opens []*model.EmailOpen) []*model.ReaderView {
	byIP := make(map[string]*model.ReaderView)
	var order []string

	for _, open := range opens {
		reader, ok := byIP[open.IP]
		if !ok {
			reader = &model.ReaderView{
				IP:        open.IP,
				Location:  open.Location,
				Device:    open.Device,
				UserAgent: open.UserAgent,
				FirstSeen: open.Timestamp,
				LastSeen:  open.Timestamp,
			}
			byIP[open.IP] = reader
			order = append(order, open.IP)
		}
		reader.OpenCount++
		if open.Timestamp.Before(reader.FirstSeen) {
			reader.FirstSeen = open.Timestamp
		}
		if open.Timestamp.After(reader.LastSeen) {
			reader.LastSeen = open.Timestamp
		}
	}

	readers := make([]*model.ReaderView, 0, len(order))
	for _, ip := range order {
		readers = append(readers, byIP[ip])
	}
	return readers
}

// downloadReaders 下载事件的读者视图
func downloadReaders(downloads []*model.AttachmentDownload) []*model.ReaderView {
	opens := make([]*model.EmailOpen, len(downloads))
	for i, d := range downloads {
		opens[i] = &model.EmailOpen{
			IP:        d.IP,
			UserAgent: d.UserAgent,
			Timestamp: d.Timestamp,
			Location:  d.Location,
			Device:    d.Device,
		}
	}
	return openReaders(opens)
}
