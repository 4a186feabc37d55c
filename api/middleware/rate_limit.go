package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mailtrace/internal/kvstore"
	"mailtrace/internal/util"
)

// RateLimit 固定窗口限流中间件
// 按客户端IP计数，计数器放在键值存储里，多实例共享同一份额度
// onLimit为空时超限返回429，像素端点传入自己的降级响应保持永远200
func RateLimit(store kvstore.Store, prefix string, window time.Duration, max int, onLimit gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := util.GetClientIP(c.Request)
		bucket := time.Now().Unix() / int64(window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%s:%d", prefix, ip, bucket)

		count, err := store.Incr(c.Request.Context(), key)
		if err != nil {
			// 存储不可用时放行，限流保护不能变成单点故障
			log.Warnf("rate limit incr failed: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			// 窗口翻转后旧桶自然过期
			if err := store.Expire(c.Request.Context(), key, window); err != nil {
				log.Warnf("rate limit expire failed: %v", err)
			}
		}

		if count > int64(max) {
			if onLimit != nil {
				onLimit(c)
				c.Abort()
				return
			}
			c.JSON(http.StatusTooManyRequests, gin.H{
				"result":      "fail",
				"status_code": http.StatusTooManyRequests,
				"status_msg":  "Too Many Requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
