package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"mailtrace/api/handler"
	"mailtrace/api/middleware"
	"mailtrace/config"
	"mailtrace/internal/eventbus"
	"mailtrace/internal/kvstore"
	"mailtrace/internal/scheduler"
	"mailtrace/internal/service"
	"mailtrace/internal/storage"
)

// SetupRouter 设置API路由
func SetupRouter(
	cfg *config.Config,
	services *service.Services,
	store kvstore.Store,
	files storage.FileStore,
	bus eventbus.EventBus,
	scheduler *scheduler.Scheduler,
) *gin.Engine {
	// 创建Gin路由
	router := gin.New()
	// 添加中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Cors())
	router.Use(middleware.Recovery())

	pixelWindow := time.Duration(cfg.RateLimit.PixelWindowSeconds) * time.Second
	apiWindow := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second

	// 追踪端点，出现在邮件正文里，无认证
	trackGroup := router.Group("/api/track")
	{
		// 像素超限时也返回图片，邮件客户端里绝不能出现裂图或401
		pixelLimit := middleware.RateLimit(store, "pixel", pixelWindow, cfg.RateLimit.PixelMaxRequests, handler.WritePixel)
		trackGroup.GET("/:id/pixel.png", pixelLimit, handler.TrackPixel(services.Recorder))

		downloadLimit := middleware.RateLimit(store, "download", pixelWindow, cfg.RateLimit.PixelMaxRequests, nil)
		trackGroup.GET("/download/:id", downloadLimit, handler.DownloadAttachment(services.Tracking, services.Recorder, files))
	}

	// 管理API，Bearer令牌认证
	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.Auth(store))
	apiGroup.Use(middleware.RateLimit(store, "api", apiWindow, cfg.RateLimit.MaxRequests, nil))
	{
		apiGroup.POST("/emails", handler.CreateEmail(services.Tracking))
		apiGroup.GET("/emails", handler.GetEmails(services.Aggregator))
		apiGroup.GET("/emails/:id", handler.GetEmailDetails(services.Aggregator))
		apiGroup.DELETE("/emails/:id", handler.DeleteEmail(services.Tracking))

		// 附件
		apiGroup.POST("/emails/:id/attachments", handler.AddAttachment(services.Tracking))
		apiGroup.GET("/emails/:id/attachments", handler.GetAttachmentStats(services.Aggregator))

		// 汇总统计
		apiGroup.GET("/stats", handler.GetStats(services.Aggregator))

		// 调度器状态API
		apiGroup.GET("/scheduler_status", func(c *gin.Context) {
			c.JSON(200, scheduler.GetStatus())
		})
	}

	// 实时事件推送，令牌放查询参数
	router.GET("/ws/events", middleware.AuthQuery(store), handler.LiveEvents(bus))

	return router
}
