package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"mailtrace/internal/classifier"
	"mailtrace/internal/geo"
	"mailtrace/internal/model"
	"mailtrace/internal/repository"
)

// BackfillService 地理位置回填
// 早期记录或查询失败的事件位置停留在Unknown，定时扫一遍补齐
type BackfillService interface {
	Run(ctx context.Context) (*BackfillResult, error)
}

// BackfillResult 一次回填的执行情况
type BackfillResult struct {
	TotalIPs int
	Updated  int
	Failed   int
}

type backfillService struct {
	opens      repository.OpenRepository
	downloads  repository.DownloadRepository
	classifier *classifier.Classifier
	resolver   geo.Resolver
	sleep      time.Duration // 两次外部查询之间的间隔，控制免费接口的调用频率
}

// NewBackfillService 创建回填服务
func NewBackfillService(
	opens repository.OpenRepository,
	downloads repository.DownloadRepository,
	ipClassifier *classifier.Classifier,
	resolver geo.Resolver,
	sleep time.Duration,
) BackfillService {
	return &backfillService{
		opens:      opens,
		downloads:  downloads,
		classifier: ipClassifier,
		resolver:   resolver,
		sleep:      sleep,
	}
}

// Run 执行一次回填
// 1. 从两张事件表收集位置仍为Unknown的去重IP
// 2. 已知段直接用哨兵值，其余走外部查询
// 3. 查到结果后同时回填两张表
func (s *backfillService) Run(ctx context.Context) (*BackfillResult, error) {
	openIPs, err := s.opens.FindDistinctUnknownIPs()
	if err != nil {
		return nil, err
	}
	downloadIPs, err := s.downloads.FindDistinctUnknownIPs()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ips []string
	for _, ip := range append(openIPs, downloadIPs...) {
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		ips = append(ips, ip)
	}

	result := &BackfillResult{TotalIPs: len(ips)}
	if len(ips) == 0 {
		return result, nil
	}
	log.Infof("geo backfill started: %d distinct ips", len(ips))

	for i, ip := range ips {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		c := s.classifier.Classify(ip)
		var location model.Location
		if c.NeedsLookup() {
			// 外部查询之间留间隔，第一个IP不等
			if i > 0 && s.sleep > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(s.sleep):
				}
			}
			location = s.resolver.Resolve(ctx, ip)
		} else {
			location = c.SentinelLocation()
		}

		// 查询失败仍是Unknown，留给下一轮重试
		if location.City == "Unknown" {
			result.Failed++
			continue
		}

		if err := s.opens.UpdateLocationByIP(ip, location); err != nil {
			log.Warnf("geo backfill update opens failed: ip=%s err=%v", ip, err)
			result.Failed++
			continue
		}
		if err := s.downloads.UpdateLocationByIP(ip, location); err != nil {
			log.Warnf("geo backfill update downloads failed: ip=%s err=%v", ip, err)
			result.Failed++
			continue
		}
		result.Updated++
	}

	log.Infof("geo backfill finished: total=%d updated=%d failed=%d",
		result.TotalIPs, result.Updated, result.Failed)
	return result, nil
}
