package storage

import (
	"io"
)

// File 一次下载所需的文件内容和元信息
type File struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// FileStore 附件存储边界
// 生产环境后面是对象存储服务，这里只约定下载处理器需要的最小契约
type FileStore interface {
	Put(key string, body io.Reader, contentType string) error
	Get(key string) (*File, error)
}
