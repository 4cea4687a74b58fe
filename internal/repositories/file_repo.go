package repositories

import (
	"github.com/3Eeeecho/go-resumevault/internal/models"
)

// ListQuery 文件列表查询参数
// 分页基于 offset,排序附带 id 作为稳定次键,
// 避免并发软删除导致翻页时条目丢失或重复
type ListQuery struct {
	Page           int
	PageSize       int
	SortBy         string // created_at / updated_at / file_name / size
	Order          string // asc / desc
	Search         string // 模糊匹配展示名与提取文本
	IncludeDeleted bool
	FilterIDs      []uint64 // 可选,限定在给定 ID 集合内(全文检索结果回查)
}

// DedupState 某 (owner, fingerprint) 的活跃去重状态
type DedupState struct {
	Exists     bool
	MaxSeq     uint32  // 活跃记录中的最大序号
	OriginalID *uint64 // 序号 0 记录的 ID,可能因删除而缺失
}

// FileRepository defines the interface for resume file metadata access.
// 所有软删除过滤由本层统一施加,调用方不做逐处判断
type FileRepository interface {
	// Create 插入记录并原子性校验 (owner, fingerprint, seq) 唯一约束,
	// 冲突时返回 xerr.ErrDuplicateSequenceConflict,由上层重新解析序号后重试
	Create(file *models.ResumeFile) error

	FindByID(id uint64, includeDeleted bool) (*models.ResumeFile, error)
	FindByUUID(uuid string, includeDeleted bool) (*models.ResumeFile, error)
	List(userID uint64, q ListQuery) ([]models.ResumeFile, int64, error)
	FindDeletedByUserID(userID uint64) ([]models.ResumeFile, error)

	// DedupStateFor 查询 (owner, fingerprint) 的活跃去重状态,
	// 软删除记录不参与序号计算
	DedupStateFor(userID uint64, fileHash string) (*DedupState, error)

	// CountByDisplayName 统计 owner 名下使用该展示名的活跃记录数
	CountByDisplayName(userID uint64, displayName string) (int64, error)

	// CountByStorageKey 统计引用该存储 key 的未永久删除记录数
	CountByStorageKey(storageKey string) (int64, error)

	Update(file *models.ResumeFile) error
	UpdateStatus(fileID uint64, status string) error
	UpdateExtractedText(fileID uint64, text string) error
	UpdateMirror(fileID uint64, remoteID, remoteURL string, shared bool) error

	// SoftDelete 标记删除,记录操作者;已删除时返回 xerr.ErrFileAlreadyDeleted
	SoftDelete(id uint64, actorID uint64) error

	// Restore 清除删除标记,记录恢复者;未删除时返回 xerr.ErrFileNotInRecycleBin,
	// 原序号已被后续上传占用时返回 xerr.ErrDuplicateSequenceConflict
	Restore(id uint64, actorID uint64) error

	// RestoreWithNewSeq 以新的去重序号恢复,处理原序号被占用的情形
	RestoreWithNewSeq(id uint64, actorID uint64, seq uint32, originalID *uint64) error

	// PermanentDelete 物理删除记录行,仅管理员路径调用;
	// 对应的存储字节由调用方先行删除
	PermanentDelete(id uint64) error
}
