package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mailtrace/internal/service"
	"mailtrace/internal/util"
)

// 1x1透明PNG
const pixelBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

var pixelBytes, _ = base64.StdEncoding.DecodeString(pixelBase64)

// WritePixel 输出追踪像素
// 禁止各级缓存，否则转发后的再次打开不会回源
func WritePixel(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/png", pixelBytes)
}

// TrackPixel 追踪像素处理器
// 无论记录成功与否一律返回200和图片，邮件客户端里绝不能出现裂图
func TrackPixel(recorder service.EventRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		emailID := c.Param("id")

		if !util.IsValidTrackingID(emailID) {
			WritePixel(c)
			return
		}

		hit := service.Hit{
			IP:        util.GetClientIP(c.Request),
			UserAgent: c.Request.UserAgent(),
			Referer:   c.Request.Referer(),
			Language:  util.FirstLanguage(c.GetHeader("Accept-Language")),
		}

		if _, err := recorder.RecordOpen(c.Request.Context(), emailID, hit); err != nil {
			if !errors.Is(err, service.ErrNotFound) {
				log.Errorf("record open failed: email=%s err=%v", emailID, err)
			}
		}

		WritePixel(c)
	}
}
