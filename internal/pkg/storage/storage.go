package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/3Eeeecho/go-resumevault/internal/config"
)

var (
	// ErrObjectNotFound 对象不存在
	ErrObjectNotFound = errors.New("存储对象不存在")
	// ErrStorageUnavailable 后端不可达或返回服务端错误,调用方可做有限重试
	ErrStorageUnavailable = errors.New("存储后端暂时不可用")
)

// ObjectStorage 定义了统一的简历字节存储接口
// 所有物理后端(本地磁盘/MinIO/阿里云OSS)实现同一契约,
// 上传流水线对后端完全无感知,后端在启动时一次性选定
type ObjectStorage interface {
	// 写入对象。key 由调用方确定且可重试安全:同一条记录重试写入
	// 使用同一个 key,不会产生两份活跃副本
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// 读取对象,返回内容读取器与对象大小。对象不存在时返回 ErrObjectNotFound
	GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// 删除对象。删除不存在的 key 不视为错误(幂等)
	RemoveObject(ctx context.Context, key string) error

	// 检查对象是否存在
	StatObject(ctx context.Context, key string) (bool, error)

	// 后端标识,写入元数据记录
	BackendName() string
}

// NewObjectStorage 根据配置构造存储后端,启动时调用一次
// 返回的实例被显式注入服务层,不存在全局可变的后端选择
func NewObjectStorage(cfg *config.Config) (ObjectStorage, error) {
	switch cfg.Storage.Type {
	case "local":
		return NewLocalStorage(cfg.Storage.LocalBasePath)
	case "minio":
		return NewMinIOStorage(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSStorage(&cfg.AliyunOSS)
	default:
		return nil, fmt.Errorf("未知的存储后端类型: %q", cfg.Storage.Type)
	}
}
