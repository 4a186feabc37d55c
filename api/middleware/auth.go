package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mailtrace/internal/kvstore"
)

// UserIDKey 认证通过后用户ID在gin上下文中的键
const UserIDKey = "user_id"

// tokenKey 令牌在键值存储中的键，值为用户ID
func tokenKey(token string) string {
	return "auth:token:" + token
}

// Auth 认证中间件
// 从header里面获取token，格式为：Authorization: Bearer token
// 令牌在键值存储中注册，值为所属用户ID，多实例部署时走Redis共享
func Auth(store kvstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			unauthorized(c)
			return
		}

		userID, found, err := store.Get(c.Request.Context(), tokenKey(token))
		if err != nil || !found {
			unauthorized(c)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// RegisterToken 登记一个令牌，TTL为0时永不过期
func RegisterToken(ctx context.Context, store kvstore.Store, token, userID string) error {
	return store.Set(ctx, tokenKey(token), userID, 0)
}

// AuthQuery 查询参数认证中间件
// 浏览器的WebSocket API设不了自定义header，实时推送端点从?token=取令牌
func AuthQuery(store kvstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			unauthorized(c)
			return
		}

		userID, found, err := store.Get(c.Request.Context(), tokenKey(token))
		if err != nil || !found {
			unauthorized(c)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID 取出认证中间件写入的用户ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"result":      "fail",
		"status_code": http.StatusUnauthorized,
		"status_msg":  "Unauthorized",
	})
	c.Abort()
}
