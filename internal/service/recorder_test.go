package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailtrace/internal/classifier"
	"mailtrace/internal/eventbus"
	"mailtrace/internal/model"
	"mailtrace/internal/repository"
	"mailtrace/internal/util"
)

// fakeResolver 计数用的假解析器
type fakeResolver struct {
	calls    int
	location model.Location
}

func (f *fakeResolver) Resolve(ctx context.Context, ip string) model.Location {
	f.calls++
	return f.location
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.TrackedEmail{},
		&model.Attachment{},
		&model.EmailOpen{},
		&model.AttachmentDownload{},
	))
	return db
}

func newTestRecorder(t *testing.T) (*repository.Repositories, EventRecorder, *fakeResolver) {
	t.Helper()
	repos := repository.NewRepositories(newTestDB(t))
	resolver := &fakeResolver{location: model.Location{
		City: "Berlin", Region: "Berlin", Country: "Germany", CountryCode: "DE", ISP: "Telekom",
	}}
	recorder := NewEventRecorder(
		repos.Email, repos.Attachment, repos.Open, repos.Download,
		classifier.NewClassifier(), resolver, eventbus.NewEventBus(),
	)
	return repos, recorder, resolver
}

func seedEmail(t *testing.T, repos *repository.Repositories, userID string) *model.TrackedEmail {
	t.Helper()
	id, err := util.GenerateTrackingID()
	require.NoError(t, err)
	email := &model.TrackedEmail{
		ID:        id,
		UserID:    userID,
		Subject:   "quarterly report",
		Recipient: "alice@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repos.Email.Create(email))
	return email
}

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestRecordOpenUnknownEmail(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)

	_, err := recorder.RecordOpen(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef", Hit{IP: "8.8.8.8"})
	assert.ErrorIs(t, err, ErrNotFound)
	// 不存在的邮件绝不落数据也不外发查询
	assert.Equal(t, 0, resolver.calls)

	opens, err := repos.Open.FindByEmailID("deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)
	assert.Len(t, opens, 0)
}

func TestRecordOpenPublicIP(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)
	email := seedEmail(t, repos, "u1")

	open, err := recorder.RecordOpen(context.Background(), email.ID, Hit{
		IP:        "93.184.216.34",
		UserAgent: chromeUA,
		Language:  "de-DE",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "Berlin", open.Location.City)
	assert.Equal(t, "Chrome", open.Device.Browser)
	assert.Equal(t, model.DeviceTypeDesktop, open.Device.DeviceType)
	assert.False(t, open.Timestamp.IsZero())
	assert.NotEmpty(t, open.ID)

	// 事件已持久化
	opens, err := repos.Open.FindByEmailID(email.ID)
	require.NoError(t, err)
	require.Len(t, opens, 1)
	assert.Equal(t, "93.184.216.34", opens[0].IP)
}

func TestRecordOpenLocalIP(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)
	email := seedEmail(t, repos, "u1")

	open, err := recorder.RecordOpen(context.Background(), email.ID, Hit{IP: "192.168.1.50", UserAgent: chromeUA})
	require.NoError(t, err)

	assert.Equal(t, 0, resolver.calls)
	assert.Equal(t, "Local Network", open.Location.City)
	assert.Equal(t, "Local", open.Location.Country)
}

func TestRecordOpenGmailProxy(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)
	email := seedEmail(t, repos, "u1")

	// 代理段IP带着伪装成普通浏览器的UA
	open, err := recorder.RecordOpen(context.Background(), email.ID, Hit{IP: "74.125.100.1", UserAgent: chromeUA})
	require.NoError(t, err)

	assert.Equal(t, 0, resolver.calls)
	assert.Equal(t, "Gmail Proxy", open.Location.City)
	assert.Equal(t, "Google Servers", open.Location.Country)
	assert.True(t, open.Location.IsProxy)
	assert.Equal(t, model.DeviceTypeEmailProxy, open.Device.DeviceType)
	assert.Equal(t, "Gmail Image Proxy", open.Device.ProxyName)
}

func TestRecordOpenSecurityScanner(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)
	email := seedEmail(t, repos, "u1")

	open, err := recorder.RecordOpen(context.Background(), email.ID, Hit{IP: "54.23.1.9", UserAgent: chromeUA})
	require.NoError(t, err)

	assert.Equal(t, 0, resolver.calls)
	assert.Equal(t, "Security Scanner", open.Location.City)
	assert.True(t, open.Device.IsBot, "扫描器命中无论UA如何都应标记为bot")
}

func TestRecordOpenGooglebotNotProxy(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)
	email := seedEmail(t, repos, "u1")

	// Googlebot抓取段走正常查询路径，不得落Gmail代理哨兵值
	open, err := recorder.RecordOpen(context.Background(), email.ID, Hit{
		IP:        "66.249.66.1",
		UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.NotEqual(t, "Gmail Proxy", open.Location.City)
	assert.True(t, open.Device.IsBot)
}

func TestRecordOpenEmptyIP(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)
	email := seedEmail(t, repos, "u1")

	open, err := recorder.RecordOpen(context.Background(), email.ID, Hit{IP: "", UserAgent: ""})
	require.NoError(t, err)

	assert.Equal(t, 0, resolver.calls)
	assert.Equal(t, "Unknown", open.IP)
	assert.Equal(t, "Local Network", open.Location.City)
}

func TestRecordDownload(t *testing.T) {
	repos, recorder, resolver := newTestRecorder(t)
	email := seedEmail(t, repos, "u1")

	attachment := &model.Attachment{
		ID:       "aabbccddaabbccddaabbccddaabbccdd",
		EmailID:  email.ID,
		Filename: "report.pdf",
	}
	require.NoError(t, repos.Attachment.Create(attachment))

	download, err := recorder.RecordDownload(context.Background(), attachment.ID, Hit{
		IP:        "93.184.216.34",
		UserAgent: chromeUA,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "Berlin", download.Location.City)

	downloads, err := repos.Download.FindByAttachmentID(attachment.ID)
	require.NoError(t, err)
	assert.Len(t, downloads, 1)

	// 未登记的附件
	_, err = recorder.RecordDownload(context.Background(), "ffffffffffffffffffffffffffffffff", Hit{IP: "1.1.1.1"})
	assert.ErrorIs(t, err, ErrNotFound)
}
