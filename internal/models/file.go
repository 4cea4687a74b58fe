package models

import (
	"time"

	"gorm.io/gorm"
)

// 上传处理状态
const (
	UploadStatusPending  = "pending"  // 已建档,字节尚未全部落库
	UploadStatusComplete = "complete" // 上传完成
	UploadStatusFailed   = "failed"   // 上传失败(补偿清理也失败时保留该行以供巡检)
)

// 存储后端标识
const (
	BackendLocal     = "local"
	BackendMinIO     = "minio"
	BackendAliyunOSS = "aliyun_oss"
)

// ResumeFile 对应 resume_files 表,是文件子系统的权威元数据记录
//
// 唯一约束说明:
//   - (user_id, file_hash, duplicate_seq, deleted_token) 唯一。活跃记录的
//     deleted_token 恒为 0,因此同一用户同一内容的活跃记录序号不可重复;
//     软删除时 deleted_token 被置为记录 ID,把该行移出活跃唯一空间,
//     使得删除后重新上传相同内容可以从序号 0 重新开始。
//   - storage_key 全局唯一,字节永远不会被静默覆盖。
type ResumeFile struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID   string `gorm:"type:varchar(36);unique;not null" json:"uuid"` // 对外暴露的稳定标识
	UserID uint64 `gorm:"not null;index;uniqueIndex:uq_owner_hash_seq,priority:1" json:"user_id"`

	FileName     string `gorm:"type:varchar(255);not null" json:"file_name"`     // 展示名,重复上传时带序号后缀
	OriginalName string `gorm:"type:varchar(255);not null" json:"original_name"` // 客户端提交的原始文件名

	Size      uint64 `gorm:"type:bigint unsigned;not null;default:0" json:"size"`
	Extension string `gorm:"type:varchar(16);not null" json:"extension"` // 规范化小写扩展名,含点
	MimeType  string `gorm:"type:varchar(128);not null" json:"mime_type"`
	FileHash  string `gorm:"type:char(64);not null;uniqueIndex:uq_owner_hash_seq,priority:2" json:"file_hash"` // SHA-256 十六进制

	StorageBackend string  `gorm:"type:varchar(16);not null" json:"storage_backend"` // local / minio / aliyun_oss
	StorageBucket  *string `gorm:"type:varchar(64);default:null" json:"storage_bucket,omitempty"`
	StorageKey     string  `gorm:"type:varchar(255);not null;unique" json:"storage_key"`

	DuplicateSeq   uint32  `gorm:"type:int unsigned;not null;default:0;uniqueIndex:uq_owner_hash_seq,priority:3" json:"duplicate_seq"`
	OriginalFileID *uint64 `gorm:"default:null" json:"original_file_id,omitempty"` // 序号 0 的原始记录,仅重复记录持有

	Status        string  `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	TextExtracted bool    `gorm:"not null;default:false" json:"text_extracted"`
	ExtractedText *string `gorm:"type:longtext;default:null" json:"-"` // 完整提取文本,预览由读取方截取

	// 远端镜像指针,镜像失败或未启用时为空
	RemoteDocID  *string `gorm:"type:varchar(128);default:null" json:"remote_doc_id,omitempty"`
	RemoteDocURL *string `gorm:"type:varchar(512);default:null" json:"remote_doc_url,omitempty"`
	IsShared     bool    `gorm:"not null;default:false" json:"is_shared"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy *uint64        `gorm:"default:null" json:"deleted_by,omitempty"`
	RestoredAt *time.Time    `gorm:"default:null" json:"restored_at,omitempty"`
	RestoredBy *uint64       `gorm:"default:null" json:"restored_by,omitempty"`

	// 软删除时置为记录 ID,活跃记录恒为 0,参与活跃唯一索引
	DeletedToken uint64 `gorm:"type:bigint unsigned;not null;default:0;uniqueIndex:uq_owner_hash_seq,priority:4" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (ResumeFile) TableName() string {
	return "resume_files"
}

// IsDeleted 判断记录是否处于回收站状态
func (f *ResumeFile) IsDeleted() bool {
	return f.DeletedAt.Valid
}

// TextPreview 返回提取文本的前 n 个字符,预览是读取侧的视图概念
func (f *ResumeFile) TextPreview(n int) string {
	if f.ExtractedText == nil {
		return ""
	}
	runes := []rune(*f.ExtractedText)
	if len(runes) <= n {
		return *f.ExtractedText
	}
	return string(runes[:n])
}
