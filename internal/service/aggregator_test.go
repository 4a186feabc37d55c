package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtrace/internal/model"
	"mailtrace/internal/repository"
	"mailtrace/internal/util"
)

func newTestAggregator(t *testing.T) (*repository.Repositories, Aggregator, TrackingService) {
	t.Helper()
	repos := repository.NewRepositories(newTestDB(t))
	// 聚合器只用追踪服务拼URL，不触碰文件存储
	tracking := NewTrackingService(repos.Email, repos.Attachment, nil, "http://localhost:8080")
	return repos, NewAggregator(repos.Email, repos.Attachment, repos.Open, repos.Download, tracking), tracking
}

func seedOpen(t *testing.T, repos *repository.Repositories, emailID, ip string, at time.Time) {
	t.Helper()
	require.NoError(t, repos.Open.Create(&model.EmailOpen{
		ID:        ip + "-" + at.Format("150405.000000000"),
		EmailID:   emailID,
		Timestamp: at,
		IP:        ip,
		UserAgent: chromeUA,
		Location:  model.Location{City: "Berlin", Country: "Germany"},
		Device:    model.DeviceInfo{Browser: "Chrome", DeviceType: model.DeviceTypeDesktop},
	}))
}

func TestStatsEmpty(t *testing.T) {
	_, agg, _ := newTestAggregator(t)

	stats, err := agg.Stats("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalEmails)
	assert.Equal(t, int64(0), stats.TotalOpens)
	assert.Equal(t, int64(0), stats.OpenedEmails)
	// 零封邮件时打开率固定为"0.0"而不是NaN
	assert.Equal(t, "0.0", stats.OpenRate)
	assert.Len(t, stats.RecentOpens, 0)
}

func TestStats(t *testing.T) {
	repos, agg, _ := newTestAggregator(t)

	opened := seedEmail(t, repos, "u1")
	seedEmail(t, repos, "u1")              // 未打开
	other := seedEmail(t, repos, "u2")     // 别的用户
	now := time.Now().UTC().Truncate(time.Second)
	seedOpen(t, repos, opened.ID, "1.1.1.1", now.Add(-time.Hour))
	seedOpen(t, repos, opened.ID, "1.1.1.1", now)
	seedOpen(t, repos, other.ID, "2.2.2.2", now)

	stats, err := agg.Stats("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalEmails)
	assert.Equal(t, int64(2), stats.TotalOpens)
	assert.Equal(t, int64(1), stats.OpenedEmails)
	assert.Equal(t, "50.0", stats.OpenRate)

	// 最近打开按时间倒序并带出邮件主题
	require.Len(t, stats.RecentOpens, 2)
	assert.Equal(t, "quarterly report", stats.RecentOpens[0].Subject)
	assert.True(t, !stats.RecentOpens[0].Timestamp.Before(stats.RecentOpens[1].Timestamp))
}

func TestEmailDetailsNotFound(t *testing.T) {
	repos, agg, _ := newTestAggregator(t)
	email := seedEmail(t, repos, "u1")

	_, err := agg.EmailDetails("u1", "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	// 别人的邮件同样不可见
	_, err = agg.EmailDetails("u2", email.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmailDetailsReaders(t *testing.T) {
	repos, agg, _ := newTestAggregator(t)
	email := seedEmail(t, repos, "u1")
	now := time.Now().UTC().Truncate(time.Second)

	seedOpen(t, repos, email.ID, "1.1.1.1", now.Add(-2*time.Hour))
	seedOpen(t, repos, email.ID, "1.1.1.1", now.Add(-1*time.Hour))
	seedOpen(t, repos, email.ID, "9.9.9.9", now)

	details, err := agg.EmailDetails("u1", email.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, details.OpenCount)
	assert.Equal(t, 2, details.UniqueOpens)
	// 两个不同IP视为可能被转发
	assert.True(t, details.ForwardDetected)
	assert.NotEmpty(t, details.PixelURL)

	// 事件按时间正序
	require.Len(t, details.Opens, 3)
	assert.Equal(t, "1.1.1.1", details.Opens[0].IP)
	assert.Equal(t, "9.9.9.9", details.Opens[2].IP)

	// 读者按IP分组，时间跨度取该IP的最早/最晚事件
	require.Len(t, details.Readers, 2)
	first := details.Readers[0]
	assert.Equal(t, "1.1.1.1", first.IP)
	assert.Equal(t, 2, first.OpenCount)
	assert.Equal(t, now.Add(-2*time.Hour), first.FirstSeen.UTC())
	assert.Equal(t, now.Add(-1*time.Hour), first.LastSeen.UTC())
	assert.Equal(t, "Berlin", first.Location.City)
}

func TestEmailDetailsNoOpens(t *testing.T) {
	repos, agg, _ := newTestAggregator(t)
	email := seedEmail(t, repos, "u1")

	// 存在但没有任何事件不是404
	details, err := agg.EmailDetails("u1", email.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, details.OpenCount)
	assert.False(t, details.ForwardDetected)
	assert.Len(t, details.Readers, 0)
}

func TestListEmails(t *testing.T) {
	repos, agg, _ := newTestAggregator(t)
	now := time.Now().UTC().Truncate(time.Second)

	var last *model.TrackedEmail
	for i := 0; i < 3; i++ {
		id, err := util.GenerateTrackingID()
		require.NoError(t, err)
		email := &model.TrackedEmail{
			ID:        id,
			UserID:    "u1",
			Subject:   "quarterly report",
			Recipient: "alice@example.com",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repos.Email.Create(email))
		last = email
	}
	seedOpen(t, repos, last.ID, "1.1.1.1", now)
	seedOpen(t, repos, last.ID, "9.9.9.9", now.Add(time.Minute))

	list, err := agg.ListEmails("u1", 0, 2) // page归一到1
	require.NoError(t, err)
	assert.Equal(t, 1, list.Pagination.Page)
	assert.Equal(t, 2, list.Pagination.Limit)
	assert.Equal(t, int64(3), list.Pagination.Total)
	assert.Equal(t, int64(2), list.Pagination.TotalPages)

	// created_at倒序，最新的在最前
	require.Len(t, list.Emails, 2)
	newest := list.Emails[0]
	assert.Equal(t, last.ID, newest.ID)
	assert.Equal(t, 2, newest.OpenCount)
	assert.Equal(t, 2, newest.UniqueOpens)
	assert.True(t, newest.ForwardDetected)
	require.NotNil(t, newest.LastOpenedAt)
	assert.Equal(t, now.Add(time.Minute), newest.LastOpenedAt.UTC())
	assert.Contains(t, newest.PixelURL, last.ID)

	// 第二页
	page2, err := agg.ListEmails("u1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Emails, 1)
	assert.Nil(t, page2.Emails[0].LastOpenedAt)
}

func TestListEmailsLimitClamp(t *testing.T) {
	repos, agg, _ := newTestAggregator(t)
	seedEmail(t, repos, "u1")

	list, err := agg.ListEmails("u1", 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, list.Pagination.Limit)

	list, err = agg.ListEmails("u1", 1, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, list.Pagination.Limit)
}

func TestAttachmentStats(t *testing.T) {
	repos, agg, _ := newTestAggregator(t)
	email := seedEmail(t, repos, "u1")
	now := time.Now().UTC().Truncate(time.Second)

	attachment := &model.Attachment{ID: "aabbccddaabbccddaabbccddaabbccdd", EmailID: email.ID, Filename: "report.pdf"}
	require.NoError(t, repos.Attachment.Create(attachment))
	require.NoError(t, repos.Download.Create(&model.AttachmentDownload{
		ID: "d1", AttachmentID: attachment.ID, Timestamp: now, IP: "1.1.1.1",
		Location: model.Location{City: "Berlin"},
	}))
	require.NoError(t, repos.Download.Create(&model.AttachmentDownload{
		ID: "d2", AttachmentID: attachment.ID, Timestamp: now.Add(time.Minute), IP: "9.9.9.9",
		Location: model.Location{City: "Paris"},
	}))

	stats, err := agg.AttachmentStats("u1", email.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].DownloadCount)
	assert.Equal(t, 2, stats[0].UniqueDownloads)
	assert.True(t, stats[0].ForwardDetected)
	assert.Len(t, stats[0].Readers, 2)
	assert.Contains(t, stats[0].DownloadURL, attachment.ID)

	// 归属校验
	_, err = agg.AttachmentStats("u2", email.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEmailCascade(t *testing.T) {
	repos, agg, tracking := newTestAggregator(t)
	email := seedEmail(t, repos, "u1")
	seedOpen(t, repos, email.ID, "1.1.1.1", time.Now().UTC())

	require.NoError(t, tracking.DeleteEmail("u1", email.ID))

	_, err := agg.EmailDetails("u1", email.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	opens, err := repos.Open.FindByEmailID(email.ID)
	require.NoError(t, err)
	assert.Len(t, opens, 0)

	// 重复删除
	assert.ErrorIs(t, tracking.DeleteEmail("u1", email.ID), ErrNotFound)
}
