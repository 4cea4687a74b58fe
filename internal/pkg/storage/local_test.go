package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func newLocalForTest(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return s
}

func TestLocalPutGetRoundtrip(t *testing.T) {
	s := newLocalForTest(t)
	ctx := context.Background()
	content := []byte("%PDF-1.7 resume bytes")
	key := "resumes/1/abc.pdf"

	if err := s.PutObject(ctx, key, bytes.NewReader(content), int64(len(content)), "application/pdf"); err != nil {
		t.Fatalf("PutObject: %v", err)
	}

	reader, size, err := s.GetObject(ctx, key)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	defer reader.Close()

	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("roundtrip content mismatch")
	}
}

func TestLocalGetMissingObject(t *testing.T) {
	s := newLocalForTest(t)
	_, _, err := s.GetObject(context.Background(), "resumes/1/missing.pdf")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("GetObject missing key error = %v, want ErrObjectNotFound", err)
	}

	exists, err := s.StatObject(context.Background(), "resumes/1/missing.pdf")
	if err != nil {
		t.Fatalf("StatObject: %v", err)
	}
	if exists {
		t.Errorf("StatObject reported missing object as existing")
	}
}

func TestLocalRemoveIdempotent(t *testing.T) {
	s := newLocalForTest(t)
	ctx := context.Background()
	key := "resumes/2/xyz.txt"

	if err := s.PutObject(ctx, key, bytes.NewReader([]byte("hi")), 2, "text/plain"); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if err := s.RemoveObject(ctx, key); err != nil {
		t.Fatalf("first RemoveObject: %v", err)
	}
	// 重复删除同一 key 不是错误
	if err := s.RemoveObject(ctx, key); err != nil {
		t.Errorf("second RemoveObject: %v", err)
	}
}

func TestLocalRejectsPathEscape(t *testing.T) {
	s := newLocalForTest(t)
	ctx := context.Background()

	for _, key := range []string{"../outside.txt", "a/../../outside.txt", "/etc/passwd", "."} {
		if err := s.PutObject(ctx, key, bytes.NewReader([]byte("x")), 1, "text/plain"); err == nil {
			t.Errorf("PutObject(%q) should reject path escape", key)
		}
	}
}

func TestLocalSizeMismatchRejected(t *testing.T) {
	s := newLocalForTest(t)
	ctx := context.Background()
	key := "resumes/3/short.txt"

	if err := s.PutObject(ctx, key, bytes.NewReader([]byte("abc")), 10, "text/plain"); err == nil {
		t.Fatalf("PutObject with wrong size should fail")
	}
	// 失败的写入不能留下残留对象
	exists, err := s.StatObject(ctx, key)
	if err != nil {
		t.Fatalf("StatObject: %v", err)
	}
	if exists {
		t.Errorf("failed put left a partial object behind")
	}
}
