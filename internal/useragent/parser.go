package useragent

import (
	"regexp"
	"strings"

	"mailtrace/internal/model"
)

// proxySignature 邮件服务商代理的UA签名，按固定优先级匹配
type proxySignature struct {
	token string
	name  string
}

// 代理签名命中后直接短路返回，不再解析浏览器/系统
var proxySignatures = []proxySignature{
	{"googleimageproxy", "Gmail Image Proxy"},
	{"ggpht.com", "Gmail Image Proxy"},
	{"yahoomailproxy", "Yahoo Mail Proxy"},
	{"yahoocachesystem", "Yahoo Mail Proxy"},
	{"microsoft outlook", "Outlook"},
	{"outlook-ios", "Outlook"},
	{"outlook-android", "Outlook"},
	{"owa/", "Outlook Web"},
}

// 已知爬虫/抓取器的UA标记
var botTokens = []string{
	"googlebot",
	"bingbot",
	"yandexbot",
	"duckduckbot",
	"baiduspider",
	"slurp",
	"applebot",
	"petalbot",
	"ahrefsbot",
	"semrushbot",
	"mj12bot",
	"dotbot",
	"ia_archiver",
	"archive.org_bot",
	"facebookexternalhit",
	"crawler",
	"spider",
}

// browserRule 浏览器识别规则
// 顺序敏感：Edge的UA里带Chrome和Safari，Chrome的UA里带Safari，必须先查更具体的
type browserRule struct {
	name    string
	token   string
	version *regexp.Regexp
}

var browserRules = []browserRule{
	{"Edge", "edg", regexp.MustCompile(`edg(?:e|a|ios)?/([0-9][0-9.]*)`)},
	{"Opera", "opr/", regexp.MustCompile(`opr/([0-9][0-9.]*)`)},
	{"Opera", "opera", regexp.MustCompile(`opera[/ ]([0-9][0-9.]*)`)},
	{"Chrome", "crios/", regexp.MustCompile(`crios/([0-9][0-9.]*)`)},
	{"Chrome", "chrome/", regexp.MustCompile(`chrome/([0-9][0-9.]*)`)},
	{"Safari", "safari", regexp.MustCompile(`version/([0-9][0-9.]*)`)},
	{"Firefox", "fxios/", regexp.MustCompile(`fxios/([0-9][0-9.]*)`)},
	{"Firefox", "firefox/", regexp.MustCompile(`firefox/([0-9][0-9.]*)`)},
	{"Internet Explorer", "msie", regexp.MustCompile(`msie ([0-9][0-9.]*)`)},
	{"Internet Explorer", "trident", regexp.MustCompile(`rv:([0-9][0-9.]*)`)},
}

var (
	windowsVersionRe = regexp.MustCompile(`windows nt ([0-9.]+)`)
	macVersionRe     = regexp.MustCompile(`mac os x ([0-9_.]+)`)
	iosVersionRe     = regexp.MustCompile(`os ([0-9_]+) like mac os x`)
	androidVersionRe = regexp.MustCompile(`android ([0-9.]+)`)
)

// Windows内核版本到市场名称的映射
var windowsNames = map[string]string{
	"10.0": "10",
	"6.3":  "8.1",
	"6.2":  "8",
	"6.1":  "7",
	"6.0":  "Vista",
	"5.2":  "XP",
	"5.1":  "XP",
}

// Parse 解析UA字符串为设备信息，纯函数，任何输入都有确定结果
// 空UA返回Unknown默认值，isBot为false
func Parse(userAgent string) model.DeviceInfo {
	info := model.UnknownDeviceInfo()
	if userAgent == "" {
		return info
	}

	ua := strings.ToLower(userAgent)

	// 1. 代理签名优先，命中即短路
	for _, sig := range proxySignatures {
		if strings.Contains(ua, sig.token) {
			return model.ProxyDeviceInfo(sig.name)
		}
	}

	// 2. 爬虫标记。标记为bot后继续解析，bot声明的浏览器信息照常记录
	for _, token := range botTokens {
		if strings.Contains(ua, token) {
			info.IsBot = true
			info.DeviceType = model.DeviceTypeBot
			break
		}
	}

	// 3. 浏览器，首个命中生效
	for _, rule := range browserRules {
		if strings.Contains(ua, rule.token) {
			info.Browser = rule.name
			if m := rule.version.FindStringSubmatch(ua); m != nil {
				info.BrowserVersion = m[1]
			}
			break
		}
	}

	// 4. 操作系统
	parseOS(ua, &info)

	// 5. 设备类型最后判断，避免被上面的解析覆盖；bot保持Bot类型
	if info.DeviceType != model.DeviceTypeBot {
		switch {
		case strings.Contains(ua, "iphone"),
			strings.Contains(ua, "windows phone"),
			strings.Contains(ua, "mobile"):
			info.DeviceType = model.DeviceTypeMobile
		case strings.Contains(ua, "ipad"),
			strings.Contains(ua, "tablet"),
			strings.Contains(ua, "kindle"):
			info.DeviceType = model.DeviceTypeTablet
		default:
			info.DeviceType = model.DeviceTypeDesktop
		}
	}

	return info
}

func parseOS(ua string, info *model.DeviceInfo) {
	switch {
	case strings.Contains(ua, "windows nt"):
		info.OS = "Windows"
		if m := windowsVersionRe.FindStringSubmatch(ua); m != nil {
			if name, ok := windowsNames[m[1]]; ok {
				info.OSVersion = name
			} else {
				info.OSVersion = m[1]
			}
		}
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		// iPhone/iPad的UA里也有"like Mac OS X"，必须在macOS之前判断
		info.OS = "iOS"
		if m := iosVersionRe.FindStringSubmatch(ua); m != nil {
			info.OSVersion = strings.ReplaceAll(m[1], "_", ".")
		}
	case strings.Contains(ua, "mac os x"):
		info.OS = "macOS"
		if m := macVersionRe.FindStringSubmatch(ua); m != nil {
			info.OSVersion = strings.ReplaceAll(m[1], "_", ".")
		}
	case strings.Contains(ua, "android"):
		info.OS = "Android"
		if m := androidVersionRe.FindStringSubmatch(ua); m != nil {
			info.OSVersion = m[1]
		}
	case strings.Contains(ua, "cros"):
		info.OS = "Chrome OS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	}
}
