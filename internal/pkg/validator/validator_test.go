package validator

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
)

const testMaxFileSize = 1 << 20 // 1MB

func pdfBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, "%PDF-1.7\n")
	for i := len("%PDF-1.7\n"); i < size; i++ {
		b[i] = 'a'
	}
	return b
}

func TestValidate(t *testing.T) {
	docxHeader := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{'x'}, 100)...)
	oleHeader := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, bytes.Repeat([]byte{'y'}, 100)...)

	tests := []struct {
		name         string
		fileName     string
		content      []byte
		declaredSize int64
		wantErr      error
		wantMime     string
	}{
		{
			name:         "valid pdf",
			fileName:     "resume.pdf",
			content:      pdfBytes(2048),
			declaredSize: 2048,
			wantMime:     "application/pdf",
		},
		{
			name:         "valid docx",
			fileName:     "Resume.DOCX",
			content:      docxHeader,
			declaredSize: int64(len(docxHeader)),
			wantMime:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		{
			name:         "valid legacy doc",
			fileName:     "resume.doc",
			content:      oleHeader,
			declaredSize: int64(len(oleHeader)),
			wantMime:     "application/msword",
		},
		{
			name:         "valid rtf",
			fileName:     "resume.rtf",
			content:      []byte(`{\rtf1\ansi Hello}`),
			declaredSize: 18,
			wantMime:     "application/rtf",
		},
		{
			name:         "valid txt",
			fileName:     "resume.txt",
			content:      []byte("plain text resume"),
			declaredSize: 17,
			wantMime:     "text/plain",
		},
		{
			name:         "unsupported extension",
			fileName:     "resume.exe",
			content:      pdfBytes(100),
			declaredSize: 100,
			wantErr:      xerr.ErrUnsupportedFileType,
		},
		{
			name:         "no extension",
			fileName:     "resume",
			content:      pdfBytes(100),
			declaredSize: 100,
			wantErr:      xerr.ErrUnsupportedFileType,
		},
		{
			name:         "empty file",
			fileName:     "resume.pdf",
			content:      nil,
			declaredSize: 0,
			wantErr:      xerr.ErrEmptyFile,
		},
		{
			name:         "declared size too large",
			fileName:     "resume.pdf",
			content:      pdfBytes(100),
			declaredSize: testMaxFileSize + 1,
			wantErr:      xerr.ErrFileTooLarge,
		},
		{
			name:         "pdf extension with zip content",
			fileName:     "resume.pdf",
			content:      docxHeader,
			declaredSize: int64(len(docxHeader)),
			wantErr:      xerr.ErrSignatureMismatch,
		},
		{
			name:         "txt with NUL bytes",
			fileName:     "resume.txt",
			content:      []byte{'a', 0x00, 'b'},
			declaredSize: 3,
			wantErr:      xerr.ErrSignatureMismatch,
		},
		{
			name:         "declared size far from actual",
			fileName:     "resume.pdf",
			content:      pdfBytes(1000),
			declaredSize: 100000,
			wantErr:      xerr.ErrSizeMismatch,
		},
	}

	v := New(testMaxFileSize)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.content)
			result, err := v.Validate(r, tt.fileName, tt.declaredSize)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if result.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", result.MimeType, tt.wantMime)
			}
			if result.Size != int64(len(tt.content)) {
				t.Errorf("Size = %d, want %d", result.Size, len(tt.content))
			}
			if !strings.HasPrefix(result.Extension, ".") || result.Extension != strings.ToLower(result.Extension) {
				t.Errorf("Extension %q is not normalized", result.Extension)
			}
		})
	}
}

func TestValidateRewindsStream(t *testing.T) {
	content := pdfBytes(2048)
	r := bytes.NewReader(content)

	v := New(testMaxFileSize)
	if _, err := v.Validate(r, "resume.pdf", 2048); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	// 校验完成后流必须回到开头,后续哈希阶段直接复用
	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll after Validate: %v", err)
	}
	if !bytes.Equal(rest, content) {
		t.Errorf("stream not rewound: read %d bytes, want %d", len(rest), len(content))
	}
}

func TestValidateSizeTolerance(t *testing.T) {
	// 实际 1000 字节,声明值在 4KiB 绝对容差内应当通过
	content := pdfBytes(1000)
	v := New(testMaxFileSize)

	if _, err := v.Validate(bytes.NewReader(content), "a.pdf", 4000); err != nil {
		t.Errorf("declared 4000 vs actual 1000 should pass tolerance, got %v", err)
	}
	if _, err := v.Validate(bytes.NewReader(content), "a.pdf", 6000); !errors.Is(err, xerr.ErrSizeMismatch) {
		t.Errorf("declared 6000 vs actual 1000 should fail, got %v", err)
	}
}
