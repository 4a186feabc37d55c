package repository

import (
	"gorm.io/gorm"

	"mailtrace/internal/model"
)

// DownloadRepository 下载事件仓库接口
type DownloadRepository interface {
	Create(download *model.AttachmentDownload) error
	FindByAttachmentID(attachmentID string) ([]*model.AttachmentDownload, error)
	FindDistinctUnknownIPs() ([]string, error)
	UpdateLocationByIP(ip string, location model.Location) error
}

// GormDownloadRepository 基于GORM的下载事件仓库实现
type GormDownloadRepository struct {
	db *gorm.DB
}

// NewDownloadRepository 创建下载事件仓库
func NewDownloadRepository(db *gorm.DB) DownloadRepository {
	return &GormDownloadRepository{db: db}
}

// Create 插入一条下载事件
func (r *GormDownloadRepository) Create(download *model.AttachmentDownload) error {
	return r.db.Create(download).Error
}

// FindByAttachmentID 查找附件的全部下载事件，按时间正序
func (r *GormDownloadRepository) FindByAttachmentID(attachmentID string) ([]*model.AttachmentDownload, error) {
	var downloads []*model.AttachmentDownload
	result := r.db.Where("attachment_id = ?", attachmentID).Order("timestamp ASC").Find(&downloads)
	if result.Error != nil {
		return nil, result.Error
	}
	return downloads, nil
}

// FindDistinctUnknownIPs 找出位置仍为Unknown的去重IP
func (r *GormDownloadRepository) FindDistinctUnknownIPs() ([]string, error) {
	var ips []string
	err := r.db.Model(&model.AttachmentDownload{}).
		Where("city = ? AND ip != ? AND ip != ?", "Unknown", "Unknown", "::1").
		Distinct().
		Pluck("ip", &ips).Error
	return ips, err
}

// UpdateLocationByIP 批量回填该IP下仍为Unknown的位置字段
func (r *GormDownloadRepository) UpdateLocationByIP(ip string, location model.Location) error {
	return r.db.Model(&model.AttachmentDownload{}).
		Where("ip = ? AND city = ?", ip, "Unknown").
		Updates(map[string]interface{}{
			"city":         location.City,
			"region":       location.Region,
			"country":      location.Country,
			"country_code": location.CountryCode,
			"isp":          location.ISP,
			"org":          location.Org,
			"timezone":     location.Timezone,
			"lat":          location.Lat,
			"lon":          location.Lon,
			"is_mobile":    location.IsMobile,
			"is_proxy":     location.IsProxy,
			"is_hosting":   location.IsHosting,
		}).Error
}
