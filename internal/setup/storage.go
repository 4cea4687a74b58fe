package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-resumevault/internal/config"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/storage"
	"go.uber.org/zap"
)

// InitObjectStorage 按配置初始化对象存储后端
// MinIO 后端会顺带确保目标桶存在
func InitObjectStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	store, err := storage.NewObjectStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	if ms, ok := store.(*storage.MinIOStorage); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure MinIO bucket: %w", err)
		}
	}

	logger.Info("Object storage initialized.", zap.String("backend", store.BackendName()))
	return store, nil
}
