package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用程序配置
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Geo       Geo       `yaml:"geo"`
	Redis     Redis     `yaml:"redis"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Storage   Storage   `yaml:"storage"`
	CronJobs  []CronJob `yaml:"cron_jobs"`
}

// Server 服务器配置
type Server struct {
	Address string `yaml:"address"`
	BaseURL string `yaml:"base_url"` // 对外可访问的地址，用于拼接像素/下载链接
}

// Database 数据库配置
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Geo IP地理位置查询配置
type Geo struct {
	APIURL         string `yaml:"api_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Redis 共享缓存配置，未启用时退化为进程内存储
type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimit 限流配置，像素端点与管理API分开计数
type RateLimit struct {
	WindowSeconds      int `yaml:"window_seconds"`
	MaxRequests        int `yaml:"max_requests"`
	PixelWindowSeconds int `yaml:"pixel_window_seconds"`
	PixelMaxRequests   int `yaml:"pixel_max_requests"`
}

// Storage 附件存储配置
type Storage struct {
	Dir string `yaml:"dir"`
}

// CronJob 定时任务配置
type CronJob struct {
	Name        string `yaml:"name"`
	Schedule    string `yaml:"schedule"`
	BackfillGeo bool   `yaml:"backfill_geo"`
	SleepMs     int    `yaml:"sleep_ms"` // 两次外部查询之间的间隔，受免费额度限制
}

// LoadConfig 从文件加载配置
func LoadConfig() (*Config, error) {
	// 1. 尝试从环境变量获取配置文件路径
	configPath := os.Getenv("CONFIG_PATH")

	// 2. 如果环境变量未设置，使用默认路径
	if configPath == "" {
		configPath = "config.yaml"
	}

	// 3. 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// 4. 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// 5. 验证配置并设置默认值
	if config.Server.Address == "" {
		config.Server.Address = "127.0.0.1:8080"
	}
	if config.Server.BaseURL == "" {
		config.Server.BaseURL = "http://localhost:8080"
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite"
	}
	if config.Database.DSN == "" {
		config.Database.DSN = "data/mailtrace.db"
	}
	if config.Geo.APIURL == "" {
		config.Geo.APIURL = "http://ip-api.com/json"
	}
	if config.Geo.TimeoutSeconds == 0 {
		config.Geo.TimeoutSeconds = 3
	}
	if config.RateLimit.WindowSeconds == 0 {
		config.RateLimit.WindowSeconds = 900
	}
	if config.RateLimit.MaxRequests == 0 {
		config.RateLimit.MaxRequests = 100
	}
	if config.RateLimit.PixelWindowSeconds == 0 {
		config.RateLimit.PixelWindowSeconds = 60
	}
	if config.RateLimit.PixelMaxRequests == 0 {
		config.RateLimit.PixelMaxRequests = 60
	}
	if config.Storage.Dir == "" {
		config.Storage.Dir = "data/attachments"
	}

	return &config, nil
}
