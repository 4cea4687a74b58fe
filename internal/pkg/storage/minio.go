package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/3Eeeecho/go-resumevault/internal/config"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOStorage S3 兼容对象存储后端
type MinIOStorage struct {
	client *minio.Client
	cfg    *config.MinIOConfig
}

// NewMinIOStorage 创建并返回一个 MinIOStorage 实例,同时确保存储桶存在
func NewMinIOStorage(cfg *config.MinIOConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Error("初始化 MinIO 客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化 MinIO 客户端: %w", err)
	}

	logger.Info("MinIO 客户端初始化成功", zap.String("endpoint", cfg.Endpoint))
	return &MinIOStorage{client: client, cfg: cfg}, nil
}

// EnsureBucket 检查并创建存储桶,启动时调用
func (s *MinIOStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketName)
	if err != nil {
		return fmt.Errorf("%w: 检查存储桶失败: %v", ErrStorageUnavailable, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
		// 并发创建时桶可能已被其他实例建好
		exists, errExists := s.client.BucketExists(ctx, s.cfg.BucketName)
		if errExists == nil && exists {
			return nil
		}
		return fmt.Errorf("%w: 创建存储桶失败: %v", ErrStorageUnavailable, err)
	}
	logger.Info("MinIO 存储桶创建成功", zap.String("bucket", s.cfg.BucketName))
	return nil
}

func (s *MinIOStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.cfg.BucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: MinIO 上传文件失败: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *MinIOStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: MinIO 获取文件失败: %v", ErrStorageUnavailable, err)
	}
	// GetObject 是惰性的,Stat 才会真正发起请求
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusNotFound {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("%w: MinIO 获取对象信息失败: %v", ErrStorageUnavailable, err)
	}
	return obj, stat.Size, nil
}

func (s *MinIOStorage) RemoveObject(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.cfg.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusNotFound {
			return nil // 幂等删除
		}
		return fmt.Errorf("%w: MinIO 删除文件失败: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *MinIOStorage) StatObject(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.cfg.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: MinIO stat 失败: %v", ErrStorageUnavailable, err)
	}
	return true, nil
}

func (s *MinIOStorage) BackendName() string {
	return "minio"
}
