package model

// DeviceType 设备类型
type DeviceType string

const (
	DeviceTypeDesktop    DeviceType = "Desktop"
	DeviceTypeMobile     DeviceType = "Mobile"
	DeviceTypeTablet     DeviceType = "Tablet"
	DeviceTypeBot        DeviceType = "Bot"
	DeviceTypeEmailProxy DeviceType = "Email Proxy"
)

// DeviceInfo UA解析出的设备信息，作为值对象内嵌到事件行中
type DeviceInfo struct {
	Browser        string     `json:"browser"`
	BrowserVersion string     `json:"browser_version"`
	OS             string     `json:"os"`
	OSVersion      string     `json:"os_version"`
	DeviceType     DeviceType `json:"device_type"`
	IsBot          bool       `json:"is_bot"`
	IsProxyUA      bool       `json:"is_proxy" gorm:"column:is_proxy_ua"`
	ProxyName      string     `json:"proxy_name"`
}

// UnknownDeviceInfo UA缺失时的默认值
func UnknownDeviceInfo() DeviceInfo {
	return DeviceInfo{
		Browser:    "Unknown",
		OS:         "Unknown",
		DeviceType: DeviceTypeDesktop,
	}
}

// ProxyDeviceInfo 邮件服务商代理的固定设备信息
func ProxyDeviceInfo(proxyName string) DeviceInfo {
	return DeviceInfo{
		Browser:    "Unknown",
		OS:         "Unknown",
		DeviceType: DeviceTypeEmailProxy,
		IsProxyUA:  true,
		ProxyName:  proxyName,
	}
}
