package model

// Location 事件的地理位置信息，作为值对象内嵌到事件行中
type Location struct {
	City        string   `json:"city"`
	Region      string   `json:"region"`
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	ISP         string   `json:"isp"`
	Org         string   `json:"org"`
	Timezone    string   `json:"timezone"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	IsMobile    bool     `json:"is_mobile"`
	IsProxy     bool     `json:"is_proxy"`
	IsHosting   bool     `json:"is_hosting"`
}

// UnknownLocation 查询失败或未查询时的默认值
func UnknownLocation() Location {
	return Location{
		City:    "Unknown",
		Region:  "Unknown",
		Country: "Unknown",
		ISP:     "Unknown",
	}
}

// LocalLocation 内网/回环地址，不做外部查询
func LocalLocation() Location {
	return Location{
		City:    "Local Network",
		Region:  "Unknown",
		Country: "Local",
		ISP:     "Internal",
	}
}

// ScannerLocation 邮件安全网关预取，来自云厂商IP段
func ScannerLocation() Location {
	return Location{
		City:      "Security Scanner",
		Region:    "Unknown",
		Country:   "Cloud Server",
		ISP:       "Email Security",
		IsProxy:   true,
		IsHosting: true,
	}
}

// ProxyLocation 邮件服务商代理的固定位置，按服务商区分
func ProxyLocation(provider string) Location {
	loc := Location{
		Region:    "Unknown",
		IsProxy:   true,
		IsHosting: true,
	}
	switch provider {
	case ProviderGoogle:
		loc.City = "Gmail Proxy"
		loc.Country = "Google Servers"
		loc.ISP = "Google LLC"
	case ProviderMicrosoft:
		loc.City = "Outlook Proxy"
		loc.Country = "Microsoft Servers"
		loc.ISP = "Microsoft Corporation"
	case ProviderYahoo:
		loc.City = "Yahoo Proxy"
		loc.Country = "Yahoo Servers"
		loc.ISP = "Yahoo Inc."
	default:
		loc.City = "Email Proxy"
		loc.Country = "Unknown"
		loc.ISP = provider
	}
	return loc
}

// 邮件服务商标识
const (
	ProviderGoogle    = "Google"
	ProviderMicrosoft = "Microsoft"
	ProviderYahoo     = "Yahoo"
)
