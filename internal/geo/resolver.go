package geo

import (
	"context"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"mailtrace/internal/model"
)

// 请求ip-api.com时指定的字段集
const lookupFields = "status,country,countryCode,regionName,city,lat,lon,timezone,isp,org,mobile,proxy,hosting"

// Resolver IP地理位置解析器
// 查询失败一律返回Unknown哨兵值，不向调用方传播错误，事件记录不能因定位失败而中断
type Resolver interface {
	Resolve(ctx context.Context, ip string) model.Location
}

type ipAPIResolver struct {
	apiURL  string
	timeout time.Duration
	client  *http.Client
}

// NewResolver 创建基于ip-api.com的解析器
func NewResolver(apiURL string, timeout time.Duration) Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ipAPIResolver{
		apiURL:  apiURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Resolve 查询单个IP的地理位置，单次调用不重试
// 仍为Unknown的事件由回填任务择机补齐
func (r *ipAPIResolver) Resolve(ctx context.Context, ip string) model.Location {
	location := model.UnknownLocation()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := r.apiURL + "/" + ip + "?fields=" + lookupFields
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Errorf("geo: build request for %s failed: %v", ip, err)
		return location
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warnf("geo: lookup %s failed: %v", ip, err)
		return location
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("geo: lookup %s returned http %d", ip, resp.StatusCode)
		return location
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warnf("geo: read response for %s failed: %v", ip, err)
		return location
	}

	// 解析响应
	result := gjson.ParseBytes(body)
	if result.Get("status").String() != "success" {
		log.Infof("geo: lookup %s status=%s message=%s",
			ip, result.Get("status").String(), result.Get("message").String())
		return location
	}

	location = model.Location{
		City:        stringOr(result.Get("city"), "Unknown"),
		Region:      stringOr(result.Get("regionName"), "Unknown"),
		Country:     stringOr(result.Get("country"), "Unknown"),
		CountryCode: result.Get("countryCode").String(),
		ISP:         stringOr(result.Get("isp"), "Unknown"),
		Org:         result.Get("org").String(),
		Timezone:    result.Get("timezone").String(),
		IsMobile:    result.Get("mobile").Bool(),
		IsProxy:     result.Get("proxy").Bool(),
		IsHosting:   result.Get("hosting").Bool(),
	}
	if lat := result.Get("lat"); lat.Exists() {
		v := lat.Float()
		location.Lat = &v
	}
	if lon := result.Get("lon"); lon.Exists() {
		v := lon.Float()
		location.Lon = &v
	}

	return location
}

func stringOr(r gjson.Result, fallback string) string {
	if s := r.String(); s != "" {
		return s
	}
	return fallback
}
