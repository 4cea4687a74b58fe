package vault

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/storage"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-resumevault/internal/repositories"
	"go.uber.org/zap"
)

// TextSearcher 全文检索协作方,由检索服务实现
// 为 nil 或检索失败时列表查询回退到 SQL 模糊匹配
type TextSearcher interface {
	Search(ctx context.Context, userID uint64, text string) ([]uint64, error)
	Remove(ctx context.Context, fileID uint64) error
}

// BulkDeleteResult 批量删除的单条结果,部分失败不中断整批
type BulkDeleteResult struct {
	FileID  uint64 `json:"file_id"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// FileService 简历文件的查询、下载与生命周期管理
// 除管理员路径外,所有操作都以 owner 维度隔离
type FileService interface {
	List(ctx context.Context, userID uint64, q repositories.ListQuery) ([]models.ResumeFile, int64, error)
	GetFileInfo(ctx context.Context, userID, fileID uint64) (*models.ResumeFile, error)
	Download(ctx context.Context, userID, fileID uint64) (*models.ResumeFile, io.ReadCloser, error)
	SoftDelete(ctx context.Context, actorID uint64, isAdmin bool, fileID uint64) error
	BulkSoftDelete(ctx context.Context, actorID uint64, isAdmin bool, fileIDs []uint64) ([]BulkDeleteResult, error)
	Restore(ctx context.Context, actorID uint64, isAdmin bool, fileID uint64) (*models.ResumeFile, error)
	PermanentDelete(ctx context.Context, actorID uint64, isAdmin bool, fileID uint64) error
	ListRecycleBin(ctx context.Context, userID uint64) ([]models.ResumeFile, error)
}

type fileService struct {
	fileRepo repositories.FileRepository
	store    storage.ObjectStorage
	searcher TextSearcher // 可为 nil(未启用全文检索)
}

var _ FileService = (*fileService)(nil)

// NewFileService 创建文件服务实例
func NewFileService(fileRepo repositories.FileRepository, store storage.ObjectStorage, searcher TextSearcher) FileService {
	return &fileService{
		fileRepo: fileRepo,
		store:    store,
		searcher: searcher,
	}
}

func (s *fileService) List(ctx context.Context, userID uint64, q repositories.ListQuery) ([]models.ResumeFile, int64, error) {
	// 优先走全文检索拿候选 ID,失败时降级回 SQL 模糊匹配
	if q.Search != "" && s.searcher != nil {
		ids, err := s.searcher.Search(ctx, userID, q.Search)
		if err != nil {
			logger.Warn("List: full-text search failed, falling back to LIKE",
				zap.Uint64("userID", userID), zap.Error(err))
		} else {
			if len(ids) == 0 {
				return []models.ResumeFile{}, 0, nil
			}
			q.FilterIDs = ids
			q.Search = ""
		}
	}

	files, total, err := s.fileRepo.List(userID, q)
	if err != nil {
		logger.Error("List: failed to query files", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("vault: %w", xerr.ErrDatabaseError)
	}
	return files, total, nil
}

// GetFileInfo 返回属主的单条元数据
// 与 Download 不同,这里不过滤 pending/failed 状态:failed 行被刻意保留
// 供属主排查失败上传,而 Download 只对 complete 记录出字节
func (s *fileService) GetFileInfo(ctx context.Context, userID, fileID uint64) (*models.ResumeFile, error) {
	return s.findOwned(fileID, userID)
}

func (s *fileService) Download(ctx context.Context, userID, fileID uint64) (*models.ResumeFile, io.ReadCloser, error) {
	file, err := s.findOwned(fileID, userID)
	if err != nil {
		return nil, nil, err
	}
	// pending/failed 记录对下载方不可见
	if file.Status != models.UploadStatusComplete {
		return nil, nil, xerr.ErrFileNotFound
	}

	reader, _, err := s.store.GetObject(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// 元数据在而字节不在,属于需要人工介入的不一致
			logger.Error("Download: bytes missing for live record",
				zap.Uint64("fileID", file.ID), zap.String("storageKey", file.StorageKey))
			return nil, nil, xerr.ErrFileNotFound
		}
		logger.Error("Download: failed to open object", zap.Uint64("fileID", file.ID), zap.Error(err))
		return nil, nil, fmt.Errorf("vault: %w", xerr.ErrStorageError)
	}
	return file, reader, nil
}

func (s *fileService) SoftDelete(ctx context.Context, actorID uint64, isAdmin bool, fileID uint64) error {
	file, err := s.fileRepo.FindByID(fileID, true)
	if err != nil {
		return err
	}
	if file.UserID != actorID && !isAdmin {
		// 不泄露他人文件的存在性
		return xerr.ErrFileNotFound
	}
	if file.IsDeleted() {
		return xerr.ErrFileAlreadyDeleted
	}

	if err := s.fileRepo.SoftDelete(fileID, actorID); err != nil {
		return err
	}
	logger.Info("SoftDelete: file moved to recycle bin",
		zap.Uint64("fileID", fileID), zap.Uint64("actorID", actorID))
	return nil
}

func (s *fileService) BulkSoftDelete(ctx context.Context, actorID uint64, isAdmin bool, fileIDs []uint64) ([]BulkDeleteResult, error) {
	if len(fileIDs) == 0 {
		return nil, xerr.ErrNoFilesSpecified
	}

	results := make([]BulkDeleteResult, 0, len(fileIDs))
	for _, id := range fileIDs {
		r := BulkDeleteResult{FileID: id, OK: true}
		if err := s.SoftDelete(ctx, actorID, isAdmin, id); err != nil {
			r.OK = false
			r.Message = err.Error()
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *fileService) Restore(ctx context.Context, actorID uint64, isAdmin bool, fileID uint64) (*models.ResumeFile, error) {
	file, err := s.fileRepo.FindByID(fileID, true)
	if err != nil {
		return nil, err
	}
	if file.UserID != actorID && !isAdmin {
		return nil, xerr.ErrFileNotFound
	}
	if !file.IsDeleted() {
		return nil, xerr.ErrFileNotInRecycleBin
	}

	err = s.fileRepo.Restore(fileID, actorID)
	if errors.Is(err, xerr.ErrDuplicateSequenceConflict) {
		// 删除期间该内容被重新上传,原序号已被占用,换一个活跃序号恢复
		state, derr := s.fileRepo.DedupStateFor(file.UserID, file.FileHash)
		if derr != nil {
			logger.Error("Restore: failed to re-resolve sequence", zap.Uint64("fileID", fileID), zap.Error(derr))
			return nil, fmt.Errorf("vault: %w", xerr.ErrDatabaseError)
		}
		seq := uint32(0)
		var originalID *uint64
		if state.Exists {
			seq = state.MaxSeq + 1
			originalID = state.OriginalID
		}
		err = s.fileRepo.RestoreWithNewSeq(fileID, actorID, seq, originalID)
	}
	if err != nil {
		return nil, err
	}

	restored, err := s.fileRepo.FindByID(fileID, false)
	if err != nil {
		return nil, err
	}
	logger.Info("Restore: file restored from recycle bin",
		zap.Uint64("fileID", fileID), zap.Uint64("actorID", actorID),
		zap.Uint32("duplicateSeq", restored.DuplicateSeq))
	return restored, nil
}

func (s *fileService) PermanentDelete(ctx context.Context, actorID uint64, isAdmin bool, fileID uint64) error {
	if !isAdmin {
		return xerr.ErrAdminRequired
	}

	file, err := s.fileRepo.FindByID(fileID, true)
	if err != nil {
		return err
	}

	// 字节先于元数据删除,失败时保留记录行以便重试
	// storage_key 全局唯一,正常只会命中当前记录,这里防御多行引用的脏数据
	refs, err := s.fileRepo.CountByStorageKey(file.StorageKey)
	if err != nil {
		return fmt.Errorf("vault: %w", xerr.ErrDatabaseError)
	}
	if refs <= 1 {
		if err := s.store.RemoveObject(ctx, file.StorageKey); err != nil {
			logger.Error("PermanentDelete: failed to remove bytes",
				zap.Uint64("fileID", fileID), zap.String("storageKey", file.StorageKey), zap.Error(err))
			return fmt.Errorf("vault: %w", xerr.ErrStorageError)
		}
	}

	if err := s.fileRepo.PermanentDelete(fileID); err != nil {
		return err
	}

	// 索引清理尽力而为,残留文档只影响检索召回
	if s.searcher != nil {
		if err := s.searcher.Remove(ctx, fileID); err != nil {
			logger.Warn("PermanentDelete: failed to remove search document",
				zap.Uint64("fileID", fileID), zap.Error(err))
		}
	}

	logger.Info("PermanentDelete: file destroyed",
		zap.Uint64("fileID", fileID), zap.Uint64("actorID", actorID))
	return nil
}

func (s *fileService) ListRecycleBin(ctx context.Context, userID uint64) ([]models.ResumeFile, error) {
	files, err := s.fileRepo.FindDeletedByUserID(userID)
	if err != nil {
		logger.Error("ListRecycleBin: failed to query deleted files", zap.Uint64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("vault: %w", xerr.ErrDatabaseError)
	}
	return files, nil
}

// findOwned 查找属于指定用户的活跃记录,他人记录与不存在同样对待
func (s *fileService) findOwned(fileID, userID uint64) (*models.ResumeFile, error) {
	file, err := s.fileRepo.FindByID(fileID, false)
	if err != nil {
		return nil, err
	}
	if file.UserID != userID {
		return nil, xerr.ErrFileNotFound
	}
	return file, nil
}
