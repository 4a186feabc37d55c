package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtrace/api/middleware"
	"mailtrace/internal/service"
)

type GetEmailsReq struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// GetEmails 获取邮件列表处理器
func GetEmails(aggregator service.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GetEmailsReq
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"result":      "fail",
				"status_code": http.StatusBadRequest,
				"status_msg":  "Invalid request parameters",
			})
			return
		}

		list, err := aggregator.ListEmails(middleware.CurrentUserID(c), req.Page, req.Limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"result":      "fail",
				"status_code": http.StatusInternalServerError,
				"status_msg":  "Internal Server Error",
			})
			return
		}

		c.JSON(http.StatusOK, list)
	}
}
