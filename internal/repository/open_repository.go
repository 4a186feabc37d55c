package repository

import (
	"gorm.io/gorm"

	"mailtrace/internal/model"
)

// RecentOpen 最近打开记录，联表带出邮件主题和收件人
type RecentOpen struct {
	model.EmailOpen
	Subject   string `json:"subject"`
	Recipient string `json:"recipient"`
}

// OpenRepository 打开事件仓库接口
type OpenRepository interface {
	Create(open *model.EmailOpen) error
	FindByEmailID(emailID string) ([]*model.EmailOpen, error)
	CountByUser(userID string) (int64, error)
	// CountOpenedEmails 统计用户名下至少有一次打开的邮件数
	CountOpenedEmails(userID string) (int64, error)
	FindRecentByUser(userID string, limit int) ([]*RecentOpen, error)
	// FindDistinctUnknownIPs 找出位置仍为Unknown的去重IP，供回填任务使用
	FindDistinctUnknownIPs() ([]string, error)
	// UpdateLocationByIP 将该IP下仍为Unknown的行回填为给定位置
	UpdateLocationByIP(ip string, location model.Location) error
}

// GormOpenRepository 基于GORM的打开事件仓库实现
type GormOpenRepository struct {
	db *gorm.DB
}

// NewOpenRepository 创建打开事件仓库
func NewOpenRepository(db *gorm.DB) OpenRepository {
	return &GormOpenRepository{db: db}
}

// Create 插入一条打开事件，事件只追加不修改
func (r *GormOpenRepository) Create(open *model.EmailOpen) error {
	return r.db.Create(open).Error
}

// FindByEmailID 查找邮件的全部打开事件，按时间正序
func (r *GormOpenRepository) FindByEmailID(emailID string) ([]*model.EmailOpen, error) {
	var opens []*model.EmailOpen
	result := r.db.Where("email_id = ?", emailID).Order("timestamp ASC").Find(&opens)
	if result.Error != nil {
		return nil, result.Error
	}
	return opens, nil
}

// CountByUser 统计用户名下所有邮件的打开总次数
func (r *GormOpenRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.EmailOpen{}).
		Where("email_id IN (?)", r.db.Model(&model.TrackedEmail{}).
			Select("id").Where("user_id = ?", userID)).
		Count(&count).Error
	return count, err
}

// CountOpenedEmails 统计用户名下至少被打开过一次的邮件数
func (r *GormOpenRepository) CountOpenedEmails(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.EmailOpen{}).
		Where("email_id IN (?)", r.db.Model(&model.TrackedEmail{}).
			Select("id").Where("user_id = ?", userID)).
		Distinct("email_id").
		Count(&count).Error
	return count, err
}

// FindRecentByUser 查找用户最近的打开记录
func (r *GormOpenRepository) FindRecentByUser(userID string, limit int) ([]*RecentOpen, error) {
	var opens []*RecentOpen
	err := r.db.Model(&model.EmailOpen{}).
		Select("email_opens.*, tracked_emails.subject, tracked_emails.recipient").
		Joins("JOIN tracked_emails ON tracked_emails.id = email_opens.email_id").
		Where("tracked_emails.user_id = ?", userID).
		Order("email_opens.timestamp DESC").
		Limit(limit).
		Find(&opens).Error
	if err != nil {
		return nil, err
	}
	return opens, nil
}

// FindDistinctUnknownIPs 找出位置仍为Unknown的去重IP
// 排除本地哨兵和"Unknown" IP本身，这些永远不做外部查询
func (r *GormOpenRepository) FindDistinctUnknownIPs() ([]string, error) {
	var ips []string
	err := r.db.Model(&model.EmailOpen{}).
		Where("city = ? AND ip != ? AND ip != ?", "Unknown", "Unknown", "::1").
		Distinct().
		Pluck("ip", &ips).Error
	return ips, err
}

// UpdateLocationByIP 批量回填该IP下仍为Unknown的位置字段
func (r *GormOpenRepository) UpdateLocationByIP(ip string, location model.Location) error {
	return r.db.Model(&model.EmailOpen{}).
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
