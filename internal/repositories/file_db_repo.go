package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 列表排序字段白名单,防止拼接任意列名
var sortableColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"file_name":  "file_name",
	"size":       "size",
}

// dbFileRepository is the implementation of FileRepository that interacts directly with the database.
type dbFileRepository struct {
	db *gorm.DB
}

// NewDBFileRepository creates a new DBFileRepository instance.
func NewDBFileRepository(db *gorm.DB) FileRepository {
	return &dbFileRepository{
		db: db,
	}
}

// isDuplicateKeyError 判断底层错误是否是唯一约束冲突
// MySQL 报 1062 Duplicate entry,SQLite 报 UNIQUE constraint failed,
// gorm 开启 TranslateError 时统一为 ErrDuplicatedKey
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

func (r *dbFileRepository) Create(file *models.ResumeFile) error {
	err := r.db.Create(file).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			logger.Warn("Create: duplicate sequence conflict",
				zap.Uint64("userID", file.UserID),
				zap.String("fileHash", file.FileHash),
				zap.Uint32("duplicateSeq", file.DuplicateSeq))
			return fmt.Errorf("file repo: %w", xerr.ErrDuplicateSequenceConflict)
		}
		logger.Error("Create: Failed to create file in DB", zap.Error(err), zap.Uint64("userID", file.UserID), zap.String("fileName", file.FileName))
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *dbFileRepository) FindByID(id uint64, includeDeleted bool) (*models.ResumeFile, error) {
	var file models.ResumeFile
	query := r.db
	if includeDeleted {
		query = query.Unscoped()
	}
	err := query.First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return &file, nil
}

func (r *dbFileRepository) FindByUUID(uuid string, includeDeleted bool) (*models.ResumeFile, error) {
	var file models.ResumeFile
	query := r.db
	if includeDeleted {
		query = query.Unscoped()
	}
	err := query.Where("uuid = ?", uuid).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to find file by uuid: %w", err)
	}
	return &file, nil
}

func (r *dbFileRepository) List(userID uint64, q ListQuery) ([]models.ResumeFile, int64, error) {
	query := r.db.Model(&models.ResumeFile{})
	if q.IncludeDeleted {
		query = query.Unscoped()
	}
	query = query.Where("user_id = ?", userID)

	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		query = query.Where("file_name LIKE ? OR extracted_text LIKE ?", pattern, pattern)
	}
	if len(q.FilterIDs) > 0 {
		query = query.Where("id IN ?", q.FilterIDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("List: Failed to count files", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	column, ok := sortableColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		order = "ASC"
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var files []models.ResumeFile
	// id 作为稳定次键,并发软删除时翻页不会丢行或重行
	err := query.Order(fmt.Sprintf("%s %s, id ASC", column, order)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&files).Error
	if err != nil {
		logger.Error("List: Failed to list files", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	return files, total, nil
}

func (r *dbFileRepository) FindDeletedByUserID(userID uint64) ([]models.ResumeFile, error) {
	var files []models.ResumeFile
	err := r.db.Unscoped().
		Where("user_id = ?", userID).
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&files).Error
	if err != nil {
		logger.Error("Error finding deleted files from DB", zap.Uint64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("查询回收站文件列表失败: %w", err)
	}
	return files, nil
}

func (r *dbFileRepository) DedupStateFor(userID uint64, fileHash string) (*DedupState, error) {
	// 默认作用域已排除软删除记录,删除过的副本不参与序号计算
	var row struct {
		MaxSeq *uint32
	}
	err := r.db.Model(&models.ResumeFile{}).
		Select("MAX(duplicate_seq) AS max_seq").
		Where("user_id = ? AND file_hash = ?", userID, fileHash).
		Scan(&row).Error
	if err != nil {
		logger.Error("DedupStateFor: Failed to query max sequence",
			zap.Uint64("userID", userID), zap.String("fileHash", fileHash), zap.Error(err))
		return nil, fmt.Errorf("failed to query dedup state: %w", err)
	}

	state := &DedupState{}
	if row.MaxSeq == nil {
		return state, nil
	}
	state.Exists = true
	state.MaxSeq = *row.MaxSeq

	// 原始记录(序号 0)可能已被单独删除,此时只能退化为无原始指针
	var original models.ResumeFile
	err = r.db.Where("user_id = ? AND file_hash = ? AND duplicate_seq = 0", userID, fileHash).
		First(&original).Error
	if err == nil {
		state.OriginalID = &original.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find original file: %w", err)
	}
	return state, nil
}

func (r *dbFileRepository) CountByDisplayName(userID uint64, displayName string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ResumeFile{}).
		Where("user_id = ? AND file_name = ?", userID, displayName).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count by display name: %w", err)
	}
	return count, nil
}

func (r *dbFileRepository) CountByStorageKey(storageKey string) (int64, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.ResumeFile{}).
		Where("storage_key = ?", storageKey).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count by storage key: %w", err)
	}
	return count, nil
}

func (r *dbFileRepository) Update(file *models.ResumeFile) error {
	err := r.db.Save(file).Error
	if err != nil {
		logger.Error("Update: Failed to update file in DB", zap.Error(err), zap.Uint64("fileID", file.ID), zap.Uint64("userID", file.UserID))
		return fmt.Errorf("failed to update file: %w", err)
	}
	return nil
}

func (r *dbFileRepository) UpdateStatus(fileID uint64, status string) error {
	if err := r.db.Unscoped().Model(&models.ResumeFile{}).Where("id = ?", fileID).Update("status", status).Error; err != nil {
		logger.Error("UpdateStatus: Failed to update file status in DB", zap.Uint64("fileID", fileID), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update file status: %w", err)
	}
	return nil
}

func (r *dbFileRepository) UpdateExtractedText(fileID uint64, text string) error {
	err := r.db.Model(&models.ResumeFile{}).Where("id = ?", fileID).Updates(map[string]any{
		"extracted_text": text,
		"text_extracted": true,
	}).Error
	if err != nil {
		logger.Error("UpdateExtractedText: Failed to cache extracted text", zap.Uint64("fileID", fileID), zap.Error(err))
		return fmt.Errorf("failed to update extracted text: %w", err)
	}
	return nil
}

func (r *dbFileRepository) UpdateMirror(fileID uint64, remoteID, remoteURL string, shared bool) error {
	err := r.db.Model(&models.ResumeFile{}).Where("id = ?", fileID).Updates(map[string]any{
		"remote_doc_id":  remoteID,
		"remote_doc_url": remoteURL,
		"is_shared":      shared,
	}).Error
	if err != nil {
		logger.Error("UpdateMirror: Failed to record mirror pointers", zap.Uint64("fileID", fileID), zap.Error(err))
		return fmt.Errorf("failed to update mirror pointers: %w", err)
	}
	return nil
}

func (r *dbFileRepository) SoftDelete(id uint64, actorID uint64) error {
	// 默认作用域保证只会命中活跃记录
	res := r.db.Model(&models.ResumeFile{}).Where("id = ?", id).Updates(map[string]any{
		"deleted_at":    time.Now(),
		"deleted_by":    actorID,
		"deleted_token": id, // 把该行移出活跃唯一空间
		"restored_at":   nil,
		"restored_by":   nil,
	})
	if res.Error != nil {
		logger.Error("SoftDelete: Failed to soft delete file", zap.Uint64("fileID", id), zap.Error(res.Error))
		return fmt.Errorf("failed to soft delete file: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// 区分"不存在"与"已在回收站"
		var file models.ResumeFile
		if err := r.db.Unscoped().First(&file, id).Error; err != nil {
			return xerr.ErrFileNotFound
		}
		return xerr.ErrFileAlreadyDeleted
	}
	return nil
}

func (r *dbFileRepository) Restore(id uint64, actorID uint64) error {
	return r.restore(id, actorID, nil, nil)
}

func (r *dbFileRepository) RestoreWithNewSeq(id uint64, actorID uint64, seq uint32, originalID *uint64) error {
	return r.restore(id, actorID, &seq, originalID)
}

func (r *dbFileRepository) restore(id uint64, actorID uint64, newSeq *uint32, originalID *uint64) error {
	updates := map[string]any{
		"deleted_at":    nil,
		"deleted_by":    nil,
		"restored_at":   time.Now(),
		"restored_by":   actorID,
		"deleted_token": 0,
	}
	if newSeq != nil {
		updates["duplicate_seq"] = *newSeq
		updates["original_file_id"] = originalID
	}

	res := r.db.Unscoped().Model(&models.ResumeFile{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(updates)
	if res.Error != nil {
		if isDuplicateKeyError(res.Error) {
			// 删除期间有相同内容的新上传占用了原序号
			return fmt.Errorf("file repo: %w", xerr.ErrDuplicateSequenceConflict)
		}
		logger.Error("Restore: Failed to restore file", zap.Uint64("fileID", id), zap.Error(res.Error))
		return fmt.Errorf("failed to restore file: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var file models.ResumeFile
		if err := r.db.Unscoped().First(&file, id).Error; err != nil {
			return xerr.ErrFileNotFound
		}
		return xerr.ErrFileNotInRecycleBin
	}
	return nil
}

func (r *dbFileRepository) PermanentDelete(id uint64) error {
	err := r.db.Unscoped().Delete(&models.ResumeFile{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to permanently delete file: %w", err)
	}
	return nil
}
