package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtrace/api/middleware"
	"mailtrace/internal/service"
)

// GetStats 获取用户汇总统计处理器
func GetStats(aggregator service.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := aggregator.Stats(middleware.CurrentUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"result":      "fail",
				"status_code": http.StatusInternalServerError,
				"status_msg":  "Internal Server Error",
			})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}
