package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
)

// MirrorResult 镜像上传成功后的远端指针
type MirrorResult struct {
	RemoteID  string
	RemoteURL string
	Shared    bool
}

// RemoteMirror 远端文档镜像协作方的边界接口(如在线文档服务)
// 镜像是尽力而为的后置步骤,失败绝不回滚已提交的文件记录
type RemoteMirror interface {
	Upload(ctx context.Context, ownerUUID, fileName string, r io.Reader) (*MirrorResult, error)
}

// disabledMirror 未配置镜像服务时的占位实现
type disabledMirror struct{}

var _ RemoteMirror = (*disabledMirror)(nil)

// NewDisabledMirror 返回始终失败的镜像实现,部署未启用镜像时注入
func NewDisabledMirror() RemoteMirror {
	return &disabledMirror{}
}

func (m *disabledMirror) Upload(ctx context.Context, ownerUUID, fileName string, r io.Reader) (*MirrorResult, error) {
	return nil, fmt.Errorf("mirror: 镜像服务未启用: %w", xerr.ErrMirrorFailed)
}
