package repositories

import (
	"context"
	"time"

	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/cache"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"go.uber.org/zap"
)

// 元数据缓存有效期
const fileMetadataTTL = 10 * time.Minute

// cachedFile 是 ResumeFile 在缓存里的封送形态
// 模型上标记 json:"-" 的字段(提取文本、删除令牌)对 API 响应不可见,
// 但缓存副本必须完整,否则缓存命中会悄悄丢掉这些字段
type cachedFile struct {
	File          models.ResumeFile `json:"file"`
	ExtractedText *string           `json:"extracted_text"`
	DeletedToken  uint64            `json:"deleted_token"`
}

func newCachedFile(file *models.ResumeFile) *cachedFile {
	return &cachedFile{
		File:          *file,
		ExtractedText: file.ExtractedText,
		DeletedToken:  file.DeletedToken,
	}
}

func (c *cachedFile) toModel() *models.ResumeFile {
	file := c.File
	file.ExtractedText = c.ExtractedText
	file.DeletedToken = c.DeletedToken
	return &file
}

// cachedFileRepository 在 DB 仓库外包一层 Redis 读穿缓存
// 只缓存单条元数据查询;缓存故障仅记录日志,绝不影响主路径
type cachedFileRepository struct {
	FileRepository
	cache cache.Cache
}

// NewCachedFileRepository 包装一个 FileRepository,为 FindByID 提供缓存
func NewCachedFileRepository(inner FileRepository, c cache.Cache) FileRepository {
	return &cachedFileRepository{
		FileRepository: inner,
		cache:          c,
	}
}

func (r *cachedFileRepository) FindByID(id uint64, includeDeleted bool) (*models.ResumeFile, error) {
	// 回收站查询直接穿透,缓存里只放活跃记录
	if includeDeleted {
		return r.FileRepository.FindByID(id, true)
	}

	ctx := context.Background()
	key := cache.GenerateFileMetadataKey(id)

	var cached cachedFile
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached.toModel(), nil
	}
	if err != cache.ErrCacheMiss {
		logger.Warn("FindByID: cache read failed, falling back to DB", zap.Uint64("fileID", id), zap.Error(err))
	}

	file, err := r.FileRepository.FindByID(id, false)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, newCachedFile(file), fileMetadataTTL); err != nil {
		logger.Warn("FindByID: cache write failed", zap.Uint64("fileID", id), zap.Error(err))
	}
	return file, nil
}

// invalidate 删除缓存中的元数据副本
func (r *cachedFileRepository) invalidate(id uint64) {
	if err := r.cache.Del(context.Background(), cache.GenerateFileMetadataKey(id)); err != nil {
		logger.Warn("invalidate: cache delete failed", zap.Uint64("fileID", id), zap.Error(err))
	}
}

func (r *cachedFileRepository) Update(file *models.ResumeFile) error {
	if err := r.FileRepository.Update(file); err != nil {
		return err
	}
	r.invalidate(file.ID)
	return nil
}

func (r *cachedFileRepository) UpdateStatus(fileID uint64, status string) error {
	if err := r.FileRepository.UpdateStatus(fileID, status); err != nil {
		return err
	}
	r.invalidate(fileID)
	return nil
}

func (r *cachedFileRepository) UpdateExtractedText(fileID uint64, text string) error {
	if err := r.FileRepository.UpdateExtractedText(fileID, text); err != nil {
		return err
	}
	r.invalidate(fileID)
	return nil
}

func (r *cachedFileRepository) UpdateMirror(fileID uint64, remoteID, remoteURL string, shared bool) error {
	if err := r.FileRepository.UpdateMirror(fileID, remoteID, remoteURL, shared); err != nil {
		return err
	}
	r.invalidate(fileID)
	return nil
}

func (r *cachedFileRepository) SoftDelete(id uint64, actorID uint64) error {
	if err := r.FileRepository.SoftDelete(id, actorID); err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}

func (r *cachedFileRepository) Restore(id uint64, actorID uint64) error {
	if err := r.FileRepository.Restore(id, actorID); err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}

func (r *cachedFileRepository) RestoreWithNewSeq(id uint64, actorID uint64, seq uint32, originalID *uint64) error {
	if err := r.FileRepository.RestoreWithNewSeq(id, actorID, seq, originalID); err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}

func (r *cachedFileRepository) PermanentDelete(id uint64) error {
	if err := r.FileRepository.PermanentDelete(id); err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}
