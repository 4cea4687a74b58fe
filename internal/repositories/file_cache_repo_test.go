package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/cache"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
)

// memoryCache 行为对齐 RedisCache:值经 JSON 封送后存取
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

var _ cache.Cache = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string, target any) error {
	m.mu.Lock()
	data, ok := m.data[key]
	if ok {
		m.hits++
	}
	m.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, target)
}

func (m *memoryCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func TestCachedFindByIDKeepsExtractedText(t *testing.T) {
	c := newMemoryCache()
	repo := NewCachedFileRepository(NewDBFileRepository(newTestDB(t)), c)

	file := newTestFile(1, testHash, 0, "a.pdf")
	if err := repo.Create(file); err != nil {
		t.Fatalf("create: %v", err)
	}
	const text = "职位:后端工程师\n精通 Go 与分布式系统"
	if err := repo.UpdateExtractedText(file.ID, text); err != nil {
		t.Fatalf("update extracted text: %v", err)
	}

	// 第一次读回填缓存,第二次必须命中缓存
	if _, err := repo.FindByID(file.ID, false); err != nil {
		t.Fatalf("first find: %v", err)
	}
	got, err := repo.FindByID(file.ID, false)
	if err != nil {
		t.Fatalf("second find: %v", err)
	}
	if c.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", c.hits)
	}
	if !got.TextExtracted {
		t.Fatal("cached record lost text_extracted flag")
	}
	if got.ExtractedText == nil || *got.ExtractedText != text {
		t.Fatalf("cached record lost extracted text, got %v", got.ExtractedText)
	}
}

func TestCachedFindByIDInvalidatedOnSoftDelete(t *testing.T) {
	c := newMemoryCache()
	repo := NewCachedFileRepository(NewDBFileRepository(newTestDB(t)), c)

	file := newTestFile(1, testHash, 0, "a.pdf")
	if err := repo.Create(file); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.FindByID(file.ID, false); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	if err := repo.SoftDelete(file.ID, 1); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	// 删除后不得再从缓存返回陈旧的活跃记录
	if _, err := repo.FindByID(file.ID, false); !errors.Is(err, xerr.ErrFileNotFound) {
		t.Fatalf("find after delete error = %v, want ErrFileNotFound", err)
	}
	if c.hits != 0 {
		t.Fatalf("stale cache hit after delete, hits = %d", c.hits)
	}
}
