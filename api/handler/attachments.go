package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtrace/api/middleware"
	"mailtrace/internal/service"
)

// AddAttachment 上传附件处理器，multipart表单的file字段
func AddAttachment(tracking service.TrackingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		emailID := c.Param("id")

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"result":      "fail",
				"status_code": http.StatusBadRequest,
				"status_msg":  "Missing file",
			})
			return
		}

		body, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"result":      "fail",
				"status_code": http.StatusInternalServerError,
				"status_msg":  "Internal Server Error",
			})
			return
		}
		defer body.Close()

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		attachment, err := tracking.AddAttachment(
			middleware.CurrentUserID(c), emailID,
			fileHeader.Filename, contentType, fileHeader.Size, body,
		)
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
				"status_msg":  "Failed to store attachment",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"attachment":   attachment,
			"download_url": tracking.DownloadURL(attachment.ID),
		})
	}
}

// GetAttachmentStats 获取邮件附件及其下载统计处理器
func GetAttachmentStats(aggregator service.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := aggregator.AttachmentStats(middleware.CurrentUserID(c), c.Param("id"))
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

		c.JSON(http.StatusOK, gin.H{"attachments": stats})
	}
}
