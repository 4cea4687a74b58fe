package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/3Eeeecho/go-resumevault/internal/repositories"
)

// Resolution 去重判定结果
type Resolution struct {
	IsDuplicate bool
	Seq         uint32  // 0 表示原始记录
	OriginalID  *uint64 // 序号 0 记录的 ID,仅重复时持有
	DisplayName string  // 消歧后的展示名
}

// Resolver 基于 (owner, fingerprint) 判定重复并分配展示名
// 序号分配本身不在这里加锁:最终一致性由元数据层的唯一约束保证,
// 并发上传相同内容时由上传流水线捕获冲突后重新解析
type Resolver struct {
	fileRepo repositories.FileRepository
}

func NewResolver(fileRepo repositories.FileRepository) *Resolver {
	return &Resolver{fileRepo: fileRepo}
}

// Resolve 查询当前活跃的去重状态,产出序号与展示名
// 软删除记录不参与计算:删除唯一副本后重新上传相同内容,
// 会被视为全新的原始记录(序号归零),而不是已删除记录的副本
func (r *Resolver) Resolve(userID uint64, fileHash, candidateName string) (*Resolution, error) {
	state, err := r.fileRepo.DedupStateFor(userID, fileHash)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	if !state.Exists {
		return &Resolution{
			IsDuplicate: false,
			Seq:         0,
			DisplayName: candidateName,
		}, nil
	}

	seq := state.MaxSeq + 1
	displayName, err := r.pickDisplayName(userID, candidateName, seq)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		IsDuplicate: true,
		Seq:         seq,
		OriginalID:  state.OriginalID,
		DisplayName: displayName,
	}, nil
}

// pickDisplayName 生成 "name (n).ext" 形式的后缀名,
// 向上递增 n 直到不与该用户任何活跃展示名冲突
func (r *Resolver) pickDisplayName(userID uint64, candidateName string, seq uint32) (string, error) {
	ext := filepath.Ext(candidateName)
	base := strings.TrimSuffix(candidateName, ext)

	for n := seq; ; n++ {
		name := fmt.Sprintf("%s (%d)%s", base, n, ext)
		count, err := r.fileRepo.CountByDisplayName(userID, name)
		if err != nil {
			return "", fmt.Errorf("resolver: 检查展示名冲突失败: %w", err)
		}
		if count == 0 {
			return name, nil
		}
	}
}
