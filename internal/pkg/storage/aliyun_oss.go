package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-resumevault/internal/config"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"
)

// AliyunOSSStorage 阿里云 OSS 后端
type AliyunOSSStorage struct {
	client *oss.Client
	cfg    *config.AliyunOSSConfig
}

// NewAliyunOSSStorage 创建并返回一个 AliyunOSSStorage 实例
func NewAliyunOSSStorage(cfg *config.AliyunOSSConfig) (*AliyunOSSStorage, error) {
	// OSS Endpoint 应该包含 http:// 或 https:// 前缀
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化阿里云OSS客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化阿里云OSS客户端: %w", err)
	}
	logger.Info("阿里云OSS客户端初始化成功", zap.String("endpoint", cfg.Endpoint))
	return &AliyunOSSStorage{client: client, cfg: cfg}, nil
}

func (s *AliyunOSSStorage) bucket() (*oss.Bucket, error) {
	bucket, err := s.client.Bucket(s.cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取OSS存储桶失败: %v", ErrStorageUnavailable, err)
	}
	return bucket, nil
}

// isOSSNotFound 判断 OSS 服务端错误是否是对象不存在
func isOSSNotFound(err error) bool {
	if serviceErr, ok := err.(oss.ServiceError); ok {
		return serviceErr.StatusCode == http.StatusNotFound
	}
	return false
}

func (s *AliyunOSSStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bucket, err := s.bucket()
	if err != nil {
		return err
	}
	err = bucket.PutObject(key, reader, oss.ContentType(contentType))
	if err != nil {
		return fmt.Errorf("%w: 阿里云OSS上传文件失败: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *AliyunOSSStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	bucket, err := s.bucket()
	if err != nil {
		return nil, 0, err
	}
	reader, err := bucket.GetObject(key)
	if err != nil {
		if isOSSNotFound(err) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("%w: 阿里云OSS获取文件失败: %v", ErrStorageUnavailable, err)
	}

	// 通过元数据获取对象大小,获取失败时返回 -1 交由调用方处理
	size := int64(-1)
	if props, err := bucket.GetObjectDetailedMeta(key); err == nil {
		if val := props.Get(oss.HTTPHeaderContentLength); val != "" {
			size, _ = strconv.ParseInt(val, 10, 64)
		}
	} else {
		logger.Warn("获取OSS对象元数据失败", zap.String("key", key), zap.Error(err))
	}
	return reader, size, nil
}

func (s *AliyunOSSStorage) RemoveObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bucket, err := s.bucket()
	if err != nil {
		return err
	}
	// OSS 的 DeleteObject 对不存在的 key 返回成功,天然幂等
	if err := bucket.DeleteObject(key); err != nil {
		return fmt.Errorf("%w: 阿里云OSS删除文件失败: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *AliyunOSSStorage) StatObject(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	bucket, err := s.bucket()
	if err != nil {
		return false, err
	}
	exists, err := bucket.IsObjectExist(key)
	if err != nil {
		return false, fmt.Errorf("%w: 阿里云OSS检查对象存在性失败: %v", ErrStorageUnavailable, err)
	}
	return exists, nil
}

func (s *AliyunOSSStorage) BackendName() string {
	return "aliyun_oss"
}
