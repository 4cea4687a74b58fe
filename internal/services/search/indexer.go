package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/logger"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// resumeIndex 存放提取文本的索引,文档 ID 即文件记录 ID
const resumeIndex = "resume_texts"

// document 是写入 Elasticsearch 的简历文档结构
type document struct {
	FileID   uint64 `json:"file_id"`
	UserID   uint64 `json:"user_id"`
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

// Indexer 基于 Elasticsearch 的简历全文索引
// 同时充当入库侧的索引写入方与查询侧的检索方
type Indexer struct {
	es *elasticsearch.Client
}

// NewIndexer 创建索引服务实例
func NewIndexer(es *elasticsearch.Client) *Indexer {
	return &Indexer{es: es}
}

// Index 写入或覆盖一份简历文档
func (i *Indexer) Index(ctx context.Context, file *models.ResumeFile, text string) error {
	doc := document{
		FileID:   file.ID,
		UserID:   file.UserID,
		FileName: file.FileName,
		Text:     text,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	res, err := i.es.Index(
		resumeIndex,
		bytes.NewReader(body),
		i.es.Index.WithDocumentID(strconv.FormatUint(file.ID, 10)),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: %w: %v", xerr.ErrSearchError, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search: %w: %s", xerr.ErrSearchError, res.Status())
	}
	return nil
}

// Remove 删除简历文档,文档不存在视为成功
func (i *Indexer) Remove(ctx context.Context, fileID uint64) error {
	res, err := i.es.Delete(
		resumeIndex,
		strconv.FormatUint(fileID, 10),
		i.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: %w: %v", xerr.ErrSearchError, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: %w: %s", xerr.ErrSearchError, res.Status())
	}
	return nil
}

// Search 在指定用户的简历内做全文检索,返回命中的文件记录 ID
func (i *Indexer) Search(ctx context.Context, userID uint64, text string) ([]uint64, error) {
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"user_id": userID}},
				},
				"must": []map[string]any{
					{"multi_match": map[string]any{
						"query":  text,
						"fields": []string{"file_name^2", "text"},
					}},
				},
			},
		},
		"_source": []string{"file_id"},
		"size":    200,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(resumeIndex),
		i.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w: %v", xerr.ErrSearchError, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search: %w: %s", xerr.ErrSearchError, res.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source struct {
					FileID uint64 `json:"file_id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("search: 解析检索响应失败: %w", err)
	}

	ids := make([]uint64, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.Source.FileID)
	}
	logger.Debug("Search: full-text query finished",
		zap.Uint64("userID", userID), zap.Int("hits", len(ids)))
	return ids, nil
}
