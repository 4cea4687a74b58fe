package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"go.uber.org/zap"
)

// LocalStorage 本地磁盘后端
// key 直接映射为 basePath 下的相对路径,写入采用临时文件 + 原子 rename,
// 保证并发写同一 key 时不会出现半截文件
type LocalStorage struct {
	basePath string
}

// NewLocalStorage 创建本地磁盘后端,basePath 不存在时自动创建
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		return nil, errors.New("本地存储根目录不能为空")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建本地存储根目录失败: %w", err)
	}
	logger.Info("本地存储后端初始化成功", zap.String("basePath", basePath))
	return &LocalStorage{basePath: basePath}, nil
}

// resolve 把对象 key 转换为磁盘路径,拒绝越出根目录的 key
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("非法的对象 key: %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

func (s *LocalStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: 创建对象目录失败: %v", ErrStorageUnavailable, err)
	}

	// 先写临时文件,成功后 rename 到目标路径
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: 创建临时文件失败: %v", ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	written, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if err == nil {
			err = closeErr
		}
		return fmt.Errorf("%w: 写入对象失败: %v", ErrStorageUnavailable, err)
	}
	if size >= 0 && written != size {
		_ = os.Remove(tmpName)
		return fmt.Errorf("写入字节数不符: 期望 %d, 实际 %d", size, written)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: 落盘失败: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *LocalStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("%w: 打开对象失败: %v", ErrStorageUnavailable, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: 读取对象信息失败: %v", ErrStorageUnavailable, err)
	}
	return f, info.Size(), nil
}

func (s *LocalStorage) RemoveObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // 幂等删除
		}
		return fmt.Errorf("%w: 删除对象失败: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *LocalStorage) StatObject(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat 失败: %v", ErrStorageUnavailable, err)
	}
	return true, nil
}

func (s *LocalStorage) BackendName() string {
	return "local"
}
