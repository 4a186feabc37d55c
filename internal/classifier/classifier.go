package classifier

import (
	"net/netip"

	"mailtrace/internal/model"
)

// Kind IP分类结果类型
type Kind string

const (
	KindLocal           Kind = "local"            // 内网/回环地址
	KindKnownProxy      Kind = "known_proxy"      // 邮件服务商图片/链接代理
	KindSecurityScanner Kind = "security_scanner" // 邮件安全网关预取
	KindCrawler         Kind = "crawler"          // 搜索引擎抓取段，按普通客户端处理，由UA识别bot
	KindUnclassified    Kind = "unclassified"     // 其余地址，可做外部地理位置查询
)

// Classification IP分类结果
type Classification struct {
	Kind     Kind
	Provider string // KindKnownProxy时的服务商标识
}

// PrefixRule 前缀分类规则
type PrefixRule struct {
	Prefix   netip.Prefix
	Kind     Kind
	Provider string
}

// NeedsLookup 是否需要进行外部地理位置查询
// 抓取段没有固定位置哨兵值，和未分类地址走同一条查询路径
func (c Classification) NeedsLookup() bool {
	return c.Kind == KindUnclassified || c.Kind == KindCrawler
}

// SentinelLocation 返回该分类对应的固定位置，需要外部查询的分类返回Unknown
func (c Classification) SentinelLocation() model.Location {
	switch c.Kind {
	case KindLocal:
		return model.LocalLocation()
	case KindKnownProxy:
		return model.ProxyLocation(c.Provider)
	case KindSecurityScanner:
		return model.ScannerLocation()
	default:
		return model.UnknownLocation()
	}
}

// 规则按固定优先级排列：Local -> KnownProxy -> SecurityScanner -> Crawler
// 第一条命中即返回，保证一个IP不会同时被判为代理和扫描器
// 注意52.100.0.0/14在扫描器的52.0.0.0/8之前命中，归属Outlook代理
var defaultRules = []PrefixRule{
	// 内网/回环
	{netip.MustParsePrefix("127.0.0.0/8"), KindLocal, ""},
	{netip.MustParsePrefix("10.0.0.0/8"), KindLocal, ""},
	{netip.MustParsePrefix("172.16.0.0/12"), KindLocal, ""},
	{netip.MustParsePrefix("192.168.0.0/16"), KindLocal, ""},
	{netip.MustParsePrefix("::1/128"), KindLocal, ""},
	{netip.MustParsePrefix("fc00::/7"), KindLocal, ""},
	{netip.MustParsePrefix("fe80::/10"), KindLocal, ""},

	// Gmail图片代理段，注意与下面的Googlebot抓取段是不同的段
	{netip.MustParsePrefix("74.125.0.0/16"), KindKnownProxy, model.ProviderGoogle},
	{netip.MustParsePrefix("209.85.128.0/17"), KindKnownProxy, model.ProviderGoogle},
	// Outlook/Exchange出站段
	{netip.MustParsePrefix("40.92.0.0/15"), KindKnownProxy, model.ProviderMicrosoft},
	{netip.MustParsePrefix("40.107.0.0/16"), KindKnownProxy, model.ProviderMicrosoft},
	{netip.MustParsePrefix("52.100.0.0/14"), KindKnownProxy, model.ProviderMicrosoft},
	// Yahoo邮件段
	{netip.MustParsePrefix("74.6.0.0/16"), KindKnownProxy, model.ProviderYahoo},
	{netip.MustParsePrefix("98.137.0.0/16"), KindKnownProxy, model.ProviderYahoo},

	// 邮件安全网关常用的云厂商/CDN大段
	// 这些段很粗，也会命中云上VPN等普通用户，属于已知的误报来源，保持原有行为不收窄
	{netip.MustParsePrefix("3.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("13.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("18.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("34.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("35.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("44.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("52.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("54.0.0.0/8"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("146.75.0.0/16"), KindSecurityScanner, ""},
	{netip.MustParsePrefix("151.101.0.0/16"), KindSecurityScanner, ""},

	// Googlebot抓取段，不是Gmail代理，交给UA解析识别bot
	{netip.MustParsePrefix("66.249.64.0/19"), KindCrawler, ""},
}

// Classifier IP身份分类器，纯函数无I/O
type Classifier struct {
	rules []PrefixRule
}

// NewClassifier 使用内置规则表创建分类器
func NewClassifier() *Classifier {
	return NewClassifierWithRules(defaultRules)
}

// NewClassifierWithRules 使用自定义规则表创建分类器，规则顺序即匹配优先级
func NewClassifierWithRules(rules []PrefixRule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify 对IP字符串进行分类
// 空值、"Unknown"和无法解析的字符串一律按内网处理，绝不外发查询
func (c *Classifier) Classify(ip string) Classification {
	if ip == "" || ip == "Unknown" {
		return Classification{Kind: KindLocal}
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Classification{Kind: KindLocal}
	}
	// 处理IPv4映射地址 ::ffff:1.2.3.4
	addr = addr.Unmap()

	for _, rule := range c.rules {
		if rule.Prefix.Contains(addr) {
			return Classification{Kind: rule.Kind, Provider: rule.Provider}
		}
	}

	return Classification{Kind: KindUnclassified}
}
