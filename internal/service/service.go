package service

import (
	"time"

	"mailtrace/config"
	"mailtrace/internal/classifier"
	"mailtrace/internal/eventbus"
	"mailtrace/internal/geo"
	"mailtrace/internal/repository"
	"mailtrace/internal/storage"
)

// Services 服务集合
type Services struct {
	Tracking   TrackingService
	Recorder   EventRecorder
	Aggregator Aggregator
	Backfill   BackfillService
}

// NewServices 创建所有服务
func NewServices(
	repos *repository.Repositories,
	files storage.FileStore,
	bus eventbus.EventBus,
	cfg *config.Config,
) *Services {
	ipClassifier := classifier.NewClassifier()
	resolver := geo.NewResolver(cfg.Geo.APIURL, time.Duration(cfg.Geo.TimeoutSeconds)*time.Second)

	tracking := NewTrackingService(repos.Email, repos.Attachment, files, cfg.Server.BaseURL)

	// 回填任务的查询间隔取配置里第一个回填任务的sleep_ms，缺省1500ms
	sleep := 1500 * time.Millisecond
	for _, job := range cfg.CronJobs {
		if job.BackfillGeo && job.SleepMs > 0 {
			sleep = time.Duration(job.SleepMs) * time.Millisecond
			break
		}
	}

	return &Services{
		Tracking:   tracking,
		Recorder:   NewEventRecorder(repos.Email, repos.Attachment, repos.Open, repos.Download, ipClassifier, resolver, bus),
		Aggregator: NewAggregator(repos.Email, repos.Attachment, repos.Open, repos.Download, tracking),
		Backfill:   NewBackfillService(repos.Open, repos.Download, ipClassifier, resolver, sleep),
	}
}
