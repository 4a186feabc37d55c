package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mailtrace/internal/service"
	"mailtrace/internal/storage"
	"mailtrace/internal/util"
)

// DownloadAttachment 附件下载处理器
// 下载链接直接出现在邮件正文里，不做认证，附件ID本身就是凭证
func DownloadAttachment(tracking service.TrackingService, recorder service.EventRecorder, files storage.FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		attachmentID := c.Param("id")

		attachment, err := tracking.GetAttachment(attachmentID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"result":      "fail",
					"status_code": http.StatusNotFound,
					"status_msg":  "Attachment not found",
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

		// 记录失败不拦下载，收件人拿文件优先
		hit := service.Hit{
			IP:        util.GetClientIP(c.Request),
			UserAgent: c.Request.UserAgent(),
			Language:  util.FirstLanguage(c.GetHeader("Accept-Language")),
		}
		if _, err := recorder.RecordDownload(c.Request.Context(), attachmentID, hit); err != nil {
			log.Errorf("record download failed: attachment=%s err=%v", attachmentID, err)
		}

		file, err := files.Get(attachment.StorageKey)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"result":      "fail",
				"status_code": http.StatusNotFound,
				"status_msg":  "Attachment content not found",
			})
			return
		}
		defer file.Body.Close()

		// 本地存储不落盘ContentType，以附件记录为准
		contentType := file.ContentType
		if contentType == "" {
			contentType = attachment.ContentType
		}

		extraHeaders := map[string]string{
			"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, attachment.Filename),
		}
		c.DataFromReader(http.StatusOK, file.ContentLength, contentType, file.Body, extraHeaders)
	}
}
