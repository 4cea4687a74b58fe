package vault

import (
	"context"
	"fmt"
	"io"

	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-resumevault/internal/repositories"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

// ArchiveService 将多份简历打包为 ZIP 流式下载
type ArchiveService interface {
	// DownloadArchive 返回一个边压缩边产出的 ZIP 流
	// fileIDs 为空时打包该用户全部活跃简历
	DownloadArchive(ctx context.Context, userID uint64, fileIDs []uint64) (io.ReadCloser, error)
}

type archiveService struct {
	files FileService
}

var _ ArchiveService = (*archiveService)(nil)

// NewArchiveService 创建打包下载服务实例
func NewArchiveService(files FileService) ArchiveService {
	return &archiveService{files: files}
}

func (s *archiveService) DownloadArchive(ctx context.Context, userID uint64, fileIDs []uint64) (io.ReadCloser, error) {
	records, err := s.collect(ctx, userID, fileIDs)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, xerr.ErrNoFilesSpecified
	}

	// 使用 pipe 实现流式 ZIP 压缩,避免整包进内存
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		zipWriter := zip.NewWriter(pw)

		// 同名条目在 ZIP 内追加序号,展示名本身已做过去重但历史数据不保证
		seen := make(map[string]int, len(records))
		for i := range records {
			record := &records[i]
			if err := ctx.Err(); err != nil {
				pw.CloseWithError(err)
				return
			}
			if err := s.appendEntry(ctx, zipWriter, record, entryName(seen, record.FileName)); err != nil {
				logger.Error("DownloadArchive: failed to append entry",
					zap.Uint64("fileID", record.ID), zap.Error(err))
				pw.CloseWithError(err)
				return
			}
		}

		if err := zipWriter.Close(); err != nil {
			pw.CloseWithError(fmt.Errorf("关闭 ZIP 写入器失败: %w", err))
			return
		}
		logger.Info("DownloadArchive: archive finished",
			zap.Uint64("userID", userID), zap.Int("entries", len(records)))
	}()

	return pr, nil
}

// collect 解析要打包的记录集合,逐条做归属校验
func (s *archiveService) collect(ctx context.Context, userID uint64, fileIDs []uint64) ([]models.ResumeFile, error) {
	if len(fileIDs) == 0 {
		files, _, err := s.files.List(ctx, userID, listAllQuery())
		return files, err
	}

	records := make([]models.ResumeFile, 0, len(fileIDs))
	for _, id := range fileIDs {
		file, err := s.files.GetFileInfo(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		records = append(records, *file)
	}
	return records, nil
}

func (s *archiveService) appendEntry(ctx context.Context, zipWriter *zip.Writer, record *models.ResumeFile, name string) error {
	_, reader, err := s.files.Download(ctx, record.UserID, record.ID)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", record.FileName, err)
	}
	defer reader.Close()

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: record.UpdatedAt,
	}
	header.UncompressedSize64 = record.Size

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("为 %s 创建 ZIP 头失败: %w", name, err)
	}
	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("复制 %s 内容到 ZIP 失败: %w", name, err)
	}
	return nil
}

func entryName(seen map[string]int, fileName string) string {
	n := seen[fileName]
	seen[fileName] = n + 1
	if n == 0 {
		return fileName
	}
	return fmt.Sprintf("%d_%s", n, fileName)
}

// maxArchiveEntries 单个归档包的条目上限
const maxArchiveEntries = 1000

func listAllQuery() repositories.ListQuery {
	return repositories.ListQuery{
		Page:     1,
		PageSize: maxArchiveEntries,
		SortBy:   "created_at",
		Order:    "asc",
	}
}
