package cache

import (
	"context"
	"fmt"
	"time"
)

// 缓存通用接口
// value 应该是可以被 JSON 封送的结构体或指向结构体的指针
type Cache interface {
	// Set 在缓存中设置一个值,并指定过期时间
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Get 从缓存中检索一个值,并解编组到 target(必须是指针)
	// key 不存在时返回 ErrCacheMiss
	Get(ctx context.Context, key string, target any) error

	// 删除一个或多个key
	Del(ctx context.Context, keys ...string) error

	// 检查key是否存在
	Exists(ctx context.Context, key string) (bool, error)
}

// GenerateFileMetadataKey 单条文件元数据的缓存 key
func GenerateFileMetadataKey(fileID uint64) string {
	return fmt.Sprintf("resume:file:%d", fileID)
}
