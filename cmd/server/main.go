package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"mailtrace/api"
	"mailtrace/api/middleware"
	"mailtrace/config"
	"mailtrace/internal/eventbus"
	"mailtrace/internal/kvstore"
	"mailtrace/internal/repository"
	"mailtrace/internal/scheduler"
	"mailtrace/internal/service"
	"mailtrace/internal/storage"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. 初始化数据库
	db, err := repository.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	repos := repository.NewRepositories(db)

	// 3. 初始化键值存储，多实例部署启用Redis共享限流额度和令牌
	var store kvstore.Store
	if cfg.Redis.Enabled {
		redisStore, err := kvstore.NewRedisStore(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect redis: %v", err)
		}
		store = redisStore
	} else {
		store = kvstore.NewMemoryStore()
	}

	// 4. 初始化附件存储
	files, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// 5. 初始化服务
	bus := eventbus.NewEventBus()
	services := service.NewServices(repos, files, bus, cfg)

	// 通过环境变量引导第一个API令牌
	if token := os.Getenv("API_TOKEN"); token != "" {
		if err := middleware.RegisterToken(context.Background(), store, token, "default"); err != nil {
			log.Fatalf("Failed to register api token: %v", err)
		}
	}

	// 6. 初始化调度器
	newScheduler := scheduler.NewScheduler(services.Backfill)
	if err := newScheduler.Init(cfg.CronJobs); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// 7. 启动HTTP服务器
	router := api.SetupRouter(cfg, services, store, files, bus, newScheduler)

	log.Printf("Starting server on %s", cfg.Server.Address)
	if err := http.ListenAndServe(cfg.Server.Address, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
