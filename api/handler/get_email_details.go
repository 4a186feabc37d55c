package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtrace/api/middleware"
	"mailtrace/internal/service"
)

// GetEmailDetails 获取单封邮件明细处理器
func GetEmailDetails(aggregator service.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		details, err := aggregator.EmailDetails(middleware.CurrentUserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"result":      "fail",
					"status_code": http.StatusNotFound,
					"status_msg":  "Email not found",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"result":      "fail",
				"status_code": http.StatusInternalServerError,
				"status_msg":  "Internal Server Error",
			})
			return
		}

		c.JSON(http.StatusOK, details)
	}
}
