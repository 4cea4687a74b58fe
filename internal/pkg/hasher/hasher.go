package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// chunkSize 流式哈希的单次读取块大小,保证内存占用与文件大小无关
const chunkSize = 32 * 1024

// SumSHA256 流式计算内容的 SHA-256 指纹,返回小写十六进制与读取的字节数
// 指纹只取决于字节内容,与文件名和声明的 MIME 无关
func SumSHA256(r io.Reader) (string, int64, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", 0, fmt.Errorf("hasher: 读取内容失败: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
