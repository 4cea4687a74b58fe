package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
)

// 提取文本的读取上限,防止异常文件占用过多内存
const maxExtractBytes = 2 << 20 // 2MB

// TextExtractor 文本提取协作方的边界接口
// 每次成功入库后调用一次,结果缓存在元数据记录上,读取时不再重算
type TextExtractor interface {
	Extract(ctx context.Context, mimeType string, r io.Reader) (string, error)
}

// BasicExtractor 内置的轻量提取器,只处理纯文本与 RTF
// PDF/Word 的解析在生产环境委托给外部文档服务完成,
// 这里对它们返回 ErrExtractionFailed,由流水线降级为告警
type BasicExtractor struct{}

var _ TextExtractor = (*BasicExtractor)(nil)

func NewBasicExtractor() *BasicExtractor {
	return &BasicExtractor{}
}

func (e *BasicExtractor) Extract(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch mimeType {
	case "text/plain":
		data, err := io.ReadAll(io.LimitReader(r, maxExtractBytes))
		if err != nil {
			return "", fmt.Errorf("extractor: 读取文本失败: %w", err)
		}
		return string(data), nil
	case "application/rtf":
		data, err := io.ReadAll(io.LimitReader(r, maxExtractBytes))
		if err != nil {
			return "", fmt.Errorf("extractor: 读取RTF失败: %w", err)
		}
		return stripRTF(string(data)), nil
	default:
		return "", fmt.Errorf("extractor: %q: %w", mimeType, xerr.ErrExtractionFailed)
	}
}

// stripRTF 去掉 RTF 控制字与分组符号,保留可见文本
// 不追求完整解析,简历正文足够
func stripRTF(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '\\':
			i++
			// 跳过控制字及其数值参数
			for i < len(s) && (unicode.IsLetter(rune(s[i])) || unicode.IsDigit(rune(s[i])) || s[i] == '-') {
				i++
			}
			// 控制字后跟随的单个空格属于控制字本身
			if i < len(s) && s[i] == ' ' {
				i++
			}
		case '{', '}':
			i++
		case '\r', '\n':
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return strings.TrimSpace(b.String())
}
