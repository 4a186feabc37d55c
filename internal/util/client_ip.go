package util

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP 从请求头提取真实客户端IP
// 部署在Cloudflare/nginx等反代后面时RemoteAddr是代理地址，按可信度依次尝试各请求头
func GetClientIP(r *http.Request) string {
	// 1. Cloudflare
	if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
		return cf
	}

	// 2. Akamai / Cloudflare Enterprise
	if tc := r.Header.Get("True-Client-IP"); tc != "" {
		return tc
	}

	// 3. X-Forwarded-For，取链路上最早的客户端IP
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return stripMappedPrefix(ip)
		}
	}

	// 4. X-Real-IP
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}

	// 5. 直连
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "Unknown"
	}
	return stripMappedPrefix(host)
}

// stripMappedPrefix 去掉IPv4映射前缀 ::ffff:1.2.3.4
func stripMappedPrefix(ip string) string {
	if strings.HasPrefix(ip, "::ffff:") {
		return ip[7:]
	}
	return ip
}

// FirstLanguage 取Accept-Language里的第一个语言标记
func FirstLanguage(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ",")
	lang := strings.TrimSpace(parts[0])
	if i := strings.Index(lang, ";"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}
