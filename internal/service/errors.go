package service

import "errors"

// ErrNotFound 追踪对象不存在或不属于当前用户
// 像素/下载端点对它静默处理，管理API返回404
var ErrNotFound = errors.New("tracked item not found")
