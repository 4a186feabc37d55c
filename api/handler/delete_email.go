package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtrace/api/middleware"
	"mailtrace/internal/service"
)

// DeleteEmail 删除邮件处理器，连同附件和全部事件一起删
func DeleteEmail(tracking service.TrackingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := tracking.DeleteEmail(middleware.CurrentUserID(c), c.Param("id"))
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

		c.JSON(http.StatusOK, gin.H{
			"result":      "success",
			"status_code": http.StatusOK,
		})
	}
}
