package util

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIPHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "cloudflare优先",
			headers: map[string]string{"CF-Connecting-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"},
			remote:  "10.0.0.1:1234",
			want:    "1.2.3.4",
		},
		{
			name:    "true-client-ip",
			headers: map[string]string{"True-Client-IP": "2.3.4.5"},
			remote:  "10.0.0.1:1234",
			want:    "2.3.4.5",
		},
		{
			name:    "xff取第一个",
			headers: map[string]string{"X-Forwarded-For": "9.8.7.6, 10.0.0.2, 10.0.0.3"},
			remote:  "10.0.0.1:1234",
			want:    "9.8.7.6",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{"X-Real-IP": "4.5.6.7"},
			remote:  "10.0.0.1:1234",
			want:    "4.5.6.7",
		},
		{
			name:   "直连",
			remote: "203.0.113.7:54321",
			want:   "203.0.113.7",
		},
		{
			name:   "ipv4映射地址",
			remote: "[::ffff:203.0.113.9]:54321",
			want:   "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestFirstLanguage(t *testing.T) {
	assert.Equal(t, "en-US", FirstLanguage("en-US,en;q=0.9,zh;q=0.8"))
	assert.Equal(t, "zh-CN", FirstLanguage("zh-CN;q=0.9"))
	assert.Equal(t, "", FirstLanguage(""))
}

func TestTrackingID(t *testing.T) {
	id, err := GenerateTrackingID()
	assert.NoError(t, err)
	assert.Len(t, id, 32)
	assert.True(t, IsValidTrackingID(id))

	// 两次生成不应相同
	id2, _ := GenerateTrackingID()
	assert.NotEqual(t, id, id2)

	assert.False(t, IsValidTrackingID("short"))
	assert.False(t, IsValidTrackingID("zz112233445566778899aabbccddeeff"))
}
