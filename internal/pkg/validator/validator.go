package validator

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
)

// sniffLen 签名嗅探读取的前缀长度
const sniffLen = 512

// sizeTolerance 声明大小与实际大小允许的偏差(取比例与绝对值中较大者)
const (
	sizeToleranceRatio = 0.1
	sizeToleranceBytes = 4096
)

// Result 校验通过后返回的规范化结果
type Result struct {
	Extension string // 规范化小写扩展名,含点
	MimeType  string // 依据内容签名得到的 MIME 类型
	Size      int64  // 实际字节数
}

// 简历格式白名单,扩展名 -> 签名校验通过后的 MIME 类型
var allowedTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",
	".txt":  "text/plain",
}

var (
	magicPDF = []byte("%PDF")
	magicZIP = []byte("PK\x03\x04")                                         // docx/odt 都是 zip 容器
	magicOLE = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}       // 传统 .doc 的 CFB 头
	magicRTF = []byte(`{\rtf`)
)

// Validator 上传内容的只读门卫,不产生任何副作用
type Validator struct {
	maxFileSize int64
}

// New 创建校验器,maxFileSize 单位字节
func New(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// Validate 依次检查扩展名白名单、声明大小、内容签名和实际大小,
// 任何一步失败立即返回对应的类型化错误
// 返回前把流位置重置到开头,后续的哈希与写入阶段可直接复用
func (v *Validator) Validate(r io.ReadSeeker, declaredName string, declaredSize int64) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(declaredName))
	mimeType, ok := allowedTypes[ext]
	if !ok {
		return nil, fmt.Errorf("validator: %q: %w", ext, xerr.ErrUnsupportedFileType)
	}

	if declaredSize <= 0 {
		return nil, fmt.Errorf("validator: %w", xerr.ErrEmptyFile)
	}
	if declaredSize > v.maxFileSize {
		return nil, fmt.Errorf("validator: 声明大小 %d 超出上限 %d: %w", declaredSize, v.maxFileSize, xerr.ErrFileTooLarge)
	}

	// 嗅探前缀字节,防御扩展名伪造
	prefix := make([]byte, sniffLen)
	n, err := io.ReadFull(r, prefix)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("validator: 读取文件前缀失败: %w", err)
	}
	prefix = prefix[:n]
	if n == 0 {
		return nil, fmt.Errorf("validator: %w", xerr.ErrEmptyFile)
	}
	if !signatureMatches(ext, prefix) {
		return nil, fmt.Errorf("validator: %q: %w", ext, xerr.ErrSignatureMismatch)
	}

	// 重新测量实际字节数,拒绝超出容差的偏差
	actualSize, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("validator: 测量文件大小失败: %w", err)
	}
	if actualSize == 0 {
		return nil, fmt.Errorf("validator: %w", xerr.ErrEmptyFile)
	}
	if actualSize > v.maxFileSize {
		return nil, fmt.Errorf("validator: 实际大小 %d 超出上限 %d: %w", actualSize, v.maxFileSize, xerr.ErrFileTooLarge)
	}
	if exceedsTolerance(declaredSize, actualSize) {
		return nil, fmt.Errorf("validator: 声明 %d 实际 %d: %w", declaredSize, actualSize, xerr.ErrSizeMismatch)
	}

	// 重置流位置,保证后续阶段从头读取
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("validator: 重置流位置失败: %w", err)
	}

	return &Result{
		Extension: ext,
		MimeType:  mimeType,
		Size:      actualSize,
	}, nil
}

// signatureMatches 检查前缀字节是否与扩展名声明的格式一致
func signatureMatches(ext string, prefix []byte) bool {
	switch ext {
	case ".pdf":
		return bytes.HasPrefix(prefix, magicPDF)
	case ".docx", ".odt":
		return bytes.HasPrefix(prefix, magicZIP)
	case ".doc":
		return bytes.HasPrefix(prefix, magicOLE)
	case ".rtf":
		return bytes.HasPrefix(prefix, magicRTF)
	case ".txt":
		// 纯文本没有固定签名,拒绝包含 NUL 的二进制内容
		return !bytes.ContainsRune(prefix, 0x00)
	default:
		return false
	}
}

// exceedsTolerance 判断声明大小与实际大小的偏差是否超出容差
func exceedsTolerance(declared, actual int64) bool {
	diff := declared - actual
	if diff < 0 {
		diff = -diff
	}
	tolerance := int64(float64(declared) * sizeToleranceRatio)
	if tolerance < sizeToleranceBytes {
		tolerance = sizeToleranceBytes
	}
	return diff > tolerance
}
