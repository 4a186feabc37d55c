package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateTrackingID 生成32位hex追踪ID
func GenerateTrackingID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IsValidTrackingID 校验追踪ID格式，路由层用来提前拒绝畸形请求
func IsValidTrackingID(id string) bool {
	if len(id) != 32 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
