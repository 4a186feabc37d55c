package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtrace/api/middleware"
	"mailtrace/internal/service"
)

// CreateEmail 创建追踪邮件处理器
func CreateEmail(tracking service.TrackingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateEmailRequest

		// 绑定请求参数
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"result":      "fail",
				"status_code": http.StatusBadRequest,
				"status_msg":  "Invalid request parameters",
			})
			return
		}

		created, err := tracking.CreateTrackedEmail(middleware.CurrentUserID(c), req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"result":      "fail",
				"status_code": http.StatusInternalServerError,
				"status_msg":  "Failed to create tracked email",
			})
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}
