package hasher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestSumSHA256(t *testing.T) {
	content := []byte("resume content for fingerprinting")
	want := sha256.Sum256(content)

	got, n, err := SumSHA256(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("SumSHA256() error: %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("read %d bytes, want %d", n, len(content))
	}
	if got != hex.EncodeToString(want[:]) {
		t.Errorf("hash = %q, want %q", got, hex.EncodeToString(want[:]))
	}
}

func TestSumSHA256Deterministic(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 100000)

	first, _, err := SumSHA256(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, _, err := SumSHA256(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if first != second {
		t.Errorf("same content produced different fingerprints: %q vs %q", first, second)
	}
}

// 覆盖块边界附近的尺寸,CopyBuffer 分块不得影响结果
func TestSumSHA256ChunkBoundaries(t *testing.T) {
	for _, size := range []int{0, 1, chunkSize - 1, chunkSize, chunkSize + 1, 3*chunkSize + 17} {
		content := bytes.Repeat([]byte{0xAB}, size)
		want := sha256.Sum256(content)

		got, n, err := SumSHA256(bytes.NewReader(content))
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if n != int64(size) {
			t.Errorf("size %d: read %d bytes", size, n)
		}
		if got != hex.EncodeToString(want[:]) {
			t.Errorf("size %d: wrong fingerprint", size)
		}
	}
}
