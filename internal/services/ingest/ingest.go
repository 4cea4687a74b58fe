package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/3Eeeecho/go-resumevault/internal/config"
	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/hasher"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/storage"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/validator"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-resumevault/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TextIndexer 全文索引协作方,由检索服务实现
// 索引失败降级为告警,不影响入库结果
type TextIndexer interface {
	Index(ctx context.Context, file *models.ResumeFile, text string) error
}

// Service 上传入库流水线:
// 校验 -> 哈希 -> 去重解析 -> 字节落库 -> 元数据落库 -> [文本提取] -> [远端镜像]
// 字节永远先于元数据提交;元数据提交失败时删除刚写入的字节并重试去重解析,
// 重试耗尽后对外表现为 ErrIngestFailed,不留下孤儿字节或半截记录
type Service interface {
	Ingest(ctx context.Context, userID uint64, fileName string, content io.ReadSeeker, declaredSize int64) (*models.ResumeFile, []string, error)
}

type ingestService struct {
	fileRepo  repositories.FileRepository
	resolver  *Resolver
	validator *validator.Validator
	store     storage.ObjectStorage
	extractor TextExtractor
	mirror    RemoteMirror
	indexer   TextIndexer // 可为 nil(未启用全文检索)
	cfg       *config.Config
}

var _ Service = (*ingestService)(nil)

// NewService 创建上传入库服务实例
func NewService(
	fileRepo repositories.FileRepository,
	resolver *Resolver,
	v *validator.Validator,
	store storage.ObjectStorage,
	extractor TextExtractor,
	mirror RemoteMirror,
	indexer TextIndexer,
	cfg *config.Config,
) Service {
	return &ingestService{
		fileRepo:  fileRepo,
		resolver:  resolver,
		validator: v,
		store:     store,
		extractor: extractor,
		mirror:    mirror,
		indexer:   indexer,
		cfg:       cfg,
	}
}

func (s *ingestService) Ingest(ctx context.Context, userID uint64, fileName string, content io.ReadSeeker, declaredSize int64) (*models.ResumeFile, []string, error) {
	// 1. 只读校验,失败时还没有任何副作用
	result, err := s.validator.Validate(content, fileName, declaredSize)
	if err != nil {
		return nil, nil, err
	}

	// 2. 流式计算内容指纹
	fileHash, _, err := hasher.SumSHA256(content)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}

	// 3-5. 去重解析 + 字节落库 + 元数据落库
	// 并发上传相同内容时序号在唯一约束处竞争,输掉的一方清理字节后重新解析
	retries := s.cfg.Upload.ResolveRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 0; attempt < retries; attempt++ {
		record, err := s.ingestOnce(ctx, userID, fileName, fileHash, content, result)
		if err != nil {
			if errors.Is(err, xerr.ErrDuplicateSequenceConflict) {
				logger.Warn("Ingest: duplicate sequence conflict, retrying resolution",
					zap.Uint64("userID", userID),
					zap.String("fileHash", fileHash),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, nil, err
		}

		// 记录已提交,后续都是尽力而为的后置步骤
		warnings := s.runPostSteps(ctx, record, content, result.MimeType)
		return record, warnings, nil
	}

	logger.Error("Ingest: resolution retries exhausted",
		zap.Uint64("userID", userID), zap.String("fileHash", fileHash))
	return nil, nil, fmt.Errorf("ingest: 去重序号竞争重试耗尽: %w", xerr.ErrIngestFailed)
}

// ingestOnce 执行一轮 去重解析->写字节->写元数据
// 元数据冲突时返回 ErrDuplicateSequenceConflict 且保证字节已被清理
func (s *ingestService) ingestOnce(ctx context.Context, userID uint64, fileName, fileHash string, content io.ReadSeeker, result *validator.Result) (*models.ResumeFile, error) {
	resolution, err := s.resolver.Resolve(userID, fileHash, fileName)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	recordUUID := uuid.New().String()
	// key 由 owner + 记录 UUID 决定,重试写入不会产生第二份活跃副本
	storageKey := fmt.Sprintf("resumes/%d/%s%s", userID, recordUUID, result.Extension)

	// 字节先于元数据落库
	if err := s.putWithRetry(ctx, storageKey, result, func() (io.Reader, error) {
		if err := s.rewindSeeker(content); err != nil {
			return nil, err
		}
		return content, nil
	}); err != nil {
		// putWithRetry 内部已保证失败时没有残留对象
		return nil, err
	}

	// 客户端断开视同失败,清理已写入的字节
	if err := ctx.Err(); err != nil {
		s.cleanupObject(storageKey)
		return nil, fmt.Errorf("ingest: 请求已取消: %w", err)
	}

	record := &models.ResumeFile{
		UUID:           recordUUID,
		UserID:         userID,
		FileName:       resolution.DisplayName,
		OriginalName:   fileName,
		Size:           uint64(result.Size),
		Extension:      result.Extension,
		MimeType:       result.MimeType,
		FileHash:       fileHash,
		StorageBackend: s.store.BackendName(),
		StorageBucket:  s.bucketName(),
		StorageKey:     storageKey,
		DuplicateSeq:   resolution.Seq,
		OriginalFileID: resolution.OriginalID,
		Status:         models.UploadStatusPending,
	}

	if err := s.fileRepo.Create(record); err != nil {
		s.cleanupObject(storageKey)
		if errors.Is(err, xerr.ErrDuplicateSequenceConflict) {
			return nil, err
		}
		logger.Error("ingestOnce: Failed to persist metadata", zap.Uint64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("ingest: %w", xerr.ErrDatabaseError)
	}

	// 字节与元数据都已提交
	if err := s.fileRepo.UpdateStatus(record.ID, models.UploadStatusComplete); err != nil {
		logger.Warn("ingestOnce: Failed to mark record complete", zap.Uint64("fileID", record.ID), zap.Error(err))
	} else {
		record.Status = models.UploadStatusComplete
	}

	logger.Info("ingestOnce: resume ingested",
		zap.Uint64("fileID", record.ID),
		zap.Uint64("userID", userID),
		zap.String("fileName", record.FileName),
		zap.Uint32("duplicateSeq", record.DuplicateSeq))
	return record, nil
}

// content 不是并发安全的,整条流水线在单个请求协程内串行使用
var errRewind = errors.New("重置上传流位置失败")

func (s *ingestService) rewindSeeker(content io.ReadSeeker) error {
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", errRewind, err)
	}
	return nil
}

// putWithRetry 带退避地写入存储后端
// 只对 ErrStorageUnavailable 重试,其他错误立即失败
func (s *ingestService) putWithRetry(ctx context.Context, key string, result *validator.Result, open func() (io.Reader, error)) error {
	retries := s.cfg.Upload.PutRetries
	if retries < 1 {
		retries = 1
	}
	backoff := s.cfg.Upload.PutRetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		reader, err := open()
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		err = s.store.PutObject(ctx, key, reader, result.Size, result.MimeType)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, storage.ErrStorageUnavailable) {
			break
		}
		logger.Warn("putWithRetry: storage backend unavailable, backing off",
			zap.String("key", key), zap.Int("attempt", attempt+1), zap.Error(err))

		select {
		case <-ctx.Done():
			s.cleanupObject(key)
			return fmt.Errorf("ingest: 请求已取消: %w", ctx.Err())
		case <-time.After(backoff * time.Duration(attempt+1)):
		}
	}

	// 可能存在半截写入,尽力清理
	s.cleanupObject(key)
	logger.Error("putWithRetry: failed to persist bytes", zap.String("key", key), zap.Error(lastErr))
	return fmt.Errorf("ingest: %w: %v", xerr.ErrStorageError, lastErr)
}

// cleanupObject 补偿删除已写入的字节
// 请求上下文可能已取消,这里使用独立的有限上下文
func (s *ingestService) cleanupObject(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.RemoveObject(ctx, key); err != nil {
		// 清理失败意味着可能出现孤儿字节,记录下来交给巡检任务
		logger.Error("cleanupObject: failed to remove orphaned bytes", zap.String("key", key), zap.Error(err))
	}
}

// runPostSteps 执行文本提取与远端镜像,失败降级为告警
func (s *ingestService) runPostSteps(ctx context.Context, record *models.ResumeFile, content io.ReadSeeker, mimeType string) []string {
	var warnings []string

	// 文本提取,结果缓存在记录上
	if err := s.rewindSeeker(content); err != nil {
		warnings = append(warnings, "简历文本提取失败")
		logger.Warn("runPostSteps: rewind for extraction failed", zap.Uint64("fileID", record.ID), zap.Error(err))
	} else if text, err := s.extractor.Extract(ctx, mimeType, content); err != nil {
		warnings = append(warnings, "简历文本提取失败")
		logger.Warn("runPostSteps: text extraction failed", zap.Uint64("fileID", record.ID), zap.Error(err))
	} else {
		if err := s.fileRepo.UpdateExtractedText(record.ID, text); err != nil {
			warnings = append(warnings, "简历文本提取结果保存失败")
			logger.Warn("runPostSteps: failed to cache extracted text", zap.Uint64("fileID", record.ID), zap.Error(err))
		} else {
			record.TextExtracted = true
			record.ExtractedText = &text
			if s.indexer != nil {
				if err := s.indexer.Index(ctx, record, text); err != nil {
					warnings = append(warnings, "简历全文索引更新失败")
					logger.Warn("runPostSteps: failed to index extracted text", zap.Uint64("fileID", record.ID), zap.Error(err))
				}
			}
		}
	}

	// 远端镜像
	if s.cfg.Mirror.Enabled {
		if err := s.rewindSeeker(content); err != nil {
			warnings = append(warnings, "远端镜像上传失败")
			logger.Warn("runPostSteps: rewind for mirror failed", zap.Uint64("fileID", record.ID), zap.Error(err))
		} else if mr, err := s.mirror.Upload(ctx, strconv.FormatUint(record.UserID, 10), record.FileName, content); err != nil {
			warnings = append(warnings, "远端镜像上传失败")
			logger.Warn("runPostSteps: mirror upload failed", zap.Uint64("fileID", record.ID), zap.Error(err))
		} else {
			if err := s.fileRepo.UpdateMirror(record.ID, mr.RemoteID, mr.RemoteURL, mr.Shared); err != nil {
				warnings = append(warnings, "远端镜像指针保存失败")
				logger.Warn("runPostSteps: failed to record mirror pointers", zap.Uint64("fileID", record.ID), zap.Error(err))
			} else {
				record.RemoteDocID = &mr.RemoteID
				record.RemoteDocURL = &mr.RemoteURL
				record.IsShared = mr.Shared
			}
		}
	}

	return warnings
}

// bucketName 依据选定后端返回元数据中记录的桶名,本地后端为 nil
func (s *ingestService) bucketName() *string {
	switch s.store.BackendName() {
	case models.BackendMinIO:
		return &s.cfg.MinIO.BucketName
	case models.BackendAliyunOSS:
		return &s.cfg.AliyunOSS.BucketName
	default:
		return nil
	}
}
