package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mailtrace/internal/classifier"
	"mailtrace/internal/eventbus"
	"mailtrace/internal/geo"
	"mailtrace/internal/model"
	"mailtrace/internal/repository"
	"mailtrace/internal/useragent"
)

// Hit 一次入站命中携带的原始信息
type Hit struct {
	IP        string
	UserAgent string
	Referer   string
	Language  string
}

// EventRecorder 事件记录器
// 对一次命中依次做：存在性校验 -> IP分类 -> 定位（或哨兵值）-> UA解析 -> 落一行事件
// 每次成功调用恰好一次持久化写入，至多一次外部网络调用
type EventRecorder interface {
	RecordOpen(ctx context.Context, emailID string, hit Hit) (*model.EmailOpen, error)
	RecordDownload(ctx context.Context, attachmentID string, hit Hit) (*model.AttachmentDownload, error)
}

type eventRecorder struct {
	emails      repository.EmailRepository
	attachments repository.AttachmentRepository
	opens       repository.OpenRepository
	downloads   repository.DownloadRepository
	classifier  *classifier.Classifier
	resolver    geo.Resolver
	bus         eventbus.EventBus
}

// NewEventRecorder 创建事件记录器
func NewEventRecorder(
	emails repository.EmailRepository,
	attachments repository.AttachmentRepository,
	opens repository.OpenRepository,
	downloads repository.DownloadRepository,
	ipClassifier *classifier.Classifier,
	resolver geo.Resolver,
	bus eventbus.EventBus,
) EventRecorder {
	return &eventRecorder{
		emails:      emails,
		attachments: attachments,
		opens:       opens,
		downloads:   downloads,
		classifier:  ipClassifier,
		resolver:    resolver,
		bus:         bus,
	}
}

// RecordOpen 记录一次像素拉取
// 同一IP重复拉取会产生多条事件行，这是预期行为，去重在聚合侧做
func (r *eventRecorder) RecordOpen(ctx context.Context, emailID string, hit Hit) (*model.EmailOpen, error) {
	// 1. 邮件必须存在，否则不落任何数据
	if _, err := r.emails.FindByID(emailID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	location, device := r.enrich(ctx, hit)

	open := &model.EmailOpen{
		ID:        uuid.NewString(),
		EmailID:   emailID,
		Timestamp: time.Now().UTC(),
		IP:        normalizeIP(hit.IP),
		UserAgent: hit.UserAgent,
		Referer:   hit.Referer,
		Language:  hit.Language,
		Location:  location,
		Device:    device,
	}
	if err := r.opens.Create(open); err != nil {
		return nil, err
	}

	log.Infof("open recorded: email=%s ip=%s city=%s device=%s",
		emailID, open.IP, location.City, device.DeviceType)

	_ = r.bus.Publish(eventbus.NewBaseEvent(eventbus.TypeEmailOpened, map[string]interface{}{
		"email_id":    emailID,
		"ip":          open.IP,
		"city":        location.City,
		"country":     location.Country,
		"device_type": device.DeviceType,
		"is_bot":      device.IsBot,
		"is_proxy":    location.IsProxy,
	}))

	return open, nil
}

// RecordDownload 记录一次附件下载
func (r *eventRecorder) RecordDownload(ctx context.Context, attachmentID string, hit Hit) (*model.AttachmentDownload, error) {
	if _, err := r.attachments.FindByID(attachmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	location, device := r.enrich(ctx, hit)

	download := &model.AttachmentDownload{
		ID:           uuid.NewString(),
		AttachmentID: attachmentID,
		Timestamp:    time.Now().UTC(),
		IP:           normalizeIP(hit.IP),
		UserAgent:    hit.UserAgent,
		Language:     hit.Language,
		Location:     location,
		Device:       device,
	}
	if err := r.downloads.Create(download); err != nil {
		return nil, err
	}

	log.Infof("download recorded: attachment=%s ip=%s city=%s",
		attachmentID, download.IP, location.City)

	_ = r.bus.Publish(eventbus.NewBaseEvent(eventbus.TypeAttachmentDownload, map[string]interface{}{
		"attachment_id": attachmentID,
		"ip":            download.IP,
		"city":          location.City,
		"country":       location.Country,
		"device_type":   device.DeviceType,
	}))

	return download, nil
}

// enrich 对一次命中做IP分类、定位和UA解析
func (r *eventRecorder) enrich(ctx context.Context, hit Hit) (model.Location, model.DeviceInfo) {
	c := r.classifier.Classify(hit.IP)

	// 只有未分类和抓取段才做外部查询，内网/代理/扫描器直接用哨兵值
	var location model.Location
	if c.NeedsLookup() {
		location = r.resolver.Resolve(ctx, hit.IP)
	} else {
		location = c.SentinelLocation()
	}

	device := useragent.Parse(hit.UserAgent)

	switch c.Kind {
	case classifier.KindKnownProxy:
		// IP在服务商代理段，即使UA伪装成普通浏览器也按代理设备记
		if !device.IsProxyUA {
			device = model.ProxyDeviceInfo(providerProxyName(c.Provider))
		}
	case classifier.KindSecurityScanner:
		// 扫描器的UA经常伪装，强制bot标记
		device.IsBot = true
	}

	return location, device
}

// providerProxyName 服务商标识到代理名称
func providerProxyName(provider string) string {
	switch provider {
	case model.ProviderGoogle:
		return "Gmail Image Proxy"
	case model.ProviderMicrosoft:
		return "Outlook"
	case model.ProviderYahoo:
		return "Yahoo Mail Proxy"
	}
	return provider
}

// normalizeIP 空IP统一落为"Unknown"
func normalizeIP(ip string) string {
	if ip == "" {
		return "Unknown"
	}
	return ip
}
