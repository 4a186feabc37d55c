package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"mailtrace/config"
	"mailtrace/internal/service"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	cron      *cron.Cron
	jobMutex  sync.Mutex
	isRunning bool
	backfill  service.BackfillService
	jobIDs    map[string]cron.EntryID // 存储任务ID，用于更新
}

// NewScheduler 创建调度器
func NewScheduler(backfill service.BackfillService) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		isRunning: false,
		backfill:  backfill,
		jobIDs:    make(map[string]cron.EntryID),
	}
}

// Init 注册配置中的任务并启动调度器
func (s *Scheduler) Init(cronJobs []config.CronJob) error {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	// 如果已经在运行，先停止
	if s.isRunning {
		s.cron.Stop()
	}

	// 重新创建cron，回填任务可能跑很久，仍在执行时跳过本轮
	s.cron = cron.New(cron.WithSeconds(), cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	s.jobIDs = make(map[string]cron.EntryID)

	for _, job := range cronJobs {
		if job.Schedule == "" {
			log.Warnf("job %s has invalid schedule, skipping", job.Name)
			continue
		}

		jobConfig := job // 创建副本避免闭包问题
		entryID, err := s.cron.AddFunc(jobConfig.Schedule, func() {
			s.executeJob(jobConfig)
		})
		if err != nil {
			log.Errorf("failed to add job %s: %v", job.Name, err)
			continue
		}

		s.jobIDs[job.Name] = entryID
		log.Infof("added job %s with schedule %s", job.Name, job.Schedule)
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Info("scheduler stopped")
	}
}

// executeJob 执行定时任务
func (s *Scheduler) executeJob(job config.CronJob) {
	log.Infof("executing job: %s", job.Name)

	if !job.BackfillGeo {
		log.Warnf("job %s has no action configured, skipping", job.Name)
		return
	}

	result, err := s.backfill.Run(context.Background())
	if err != nil {
		log.Errorf("job %s failed: %v", job.Name, err)
		return
	}
	log.Infof("job %s done: total=%d updated=%d failed=%d",
		job.Name, result.TotalIPs, result.Updated, result.Failed)
}

// GetStatus 获取调度器状态
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	status := make(map[string]interface{})
	status["is_running"] = s.isRunning

	jobs := make(map[string]interface{})
	for name, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		jobStatus := make(map[string]interface{})
		jobStatus["next_run"] = entry.Next.Format(time.RFC3339)
		jobStatus["prev_run"] = entry.Prev.Format(time.RFC3339)
		jobs[name] = jobStatus
	}

	status["jobs"] = jobs
	return status
}
