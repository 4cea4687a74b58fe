package vault

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/klauspost/compress/zip"
)

func readArchive(t *testing.T, r io.ReadCloser) map[string]string {
	t.Helper()
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read archive stream: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	entries := make(map[string]string)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", zf.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", zf.Name, err)
		}
		entries[zf.Name] = string(body)
	}
	return entries
}

func TestDownloadArchiveSelectedFiles(t *testing.T) {
	f := newVaultFixture(t)
	a := f.upload(t, 1, "a.txt", "first resume")
	f.upload(t, 1, "b.txt", "second resume")
	c := f.upload(t, 1, "c.txt", "third resume")

	reader, err := f.archives.DownloadArchive(context.Background(), 1, []uint64{a.ID, c.ID})
	if err != nil {
		t.Fatalf("DownloadArchive: %v", err)
	}

	entries := readArchive(t, reader)
	if len(entries) != 2 {
		t.Fatalf("entries = %v, want a.txt and c.txt", entries)
	}
	if entries["a.txt"] != "first resume" || entries["c.txt"] != "third resume" {
		t.Errorf("entry contents mismatch: %v", entries)
	}
}

func TestDownloadArchiveAllFiles(t *testing.T) {
	f := newVaultFixture(t)
	f.upload(t, 1, "a.txt", "first resume")
	f.upload(t, 1, "b.txt", "second resume")
	// 软删除的不进包
	deleted := f.upload(t, 1, "gone.txt", "deleted resume")
	if err := f.files.SoftDelete(context.Background(), 1, false, deleted.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	reader, err := f.archives.DownloadArchive(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("DownloadArchive: %v", err)
	}

	entries := readArchive(t, reader)
	if len(entries) != 2 {
		t.Errorf("entries = %v, want 2 live files", entries)
	}
	if _, ok := entries["gone.txt"]; ok {
		t.Errorf("soft-deleted file leaked into archive")
	}
}

func TestDownloadArchiveRejectsForeignFiles(t *testing.T) {
	f := newVaultFixture(t)
	foreign := f.upload(t, 2, "other.txt", "not yours")

	if _, err := f.archives.DownloadArchive(context.Background(), 1, []uint64{foreign.ID}); !errors.Is(err, xerr.ErrFileNotFound) {
		t.Errorf("foreign archive error = %v, want ErrFileNotFound", err)
	}
}

func TestDownloadArchiveEmptySelection(t *testing.T) {
	f := newVaultFixture(t)
	if _, err := f.archives.DownloadArchive(context.Background(), 1, nil); !errors.Is(err, xerr.ErrNoFilesSpecified) {
		t.Errorf("empty archive error = %v, want ErrNoFilesSpecified", err)
	}
}

func TestDownloadArchiveDisambiguatesNames(t *testing.T) {
	f := newVaultFixture(t)
	// 不同内容同名上传各自都是序号 0,展示名相同,ZIP 条目名必须消歧
	a := f.upload(t, 1, "resume.txt", "identical name a")
	b := f.upload(t, 1, "resume.txt", "identical name b")
	if a.FileName != b.FileName {
		t.Fatalf("fixture assumption broken: names %q vs %q", a.FileName, b.FileName)
	}

	reader, err := f.archives.DownloadArchive(context.Background(), 1, []uint64{a.ID, b.ID})
	if err != nil {
		t.Fatalf("DownloadArchive: %v", err)
	}
	entries := readArchive(t, reader)
	if len(entries) != 2 {
		t.Errorf("entries = %v, want 2 uniquely named entries", entries)
	}
	if entries["resume.txt"] != "identical name a" || entries["1_resume.txt"] != "identical name b" {
		t.Errorf("disambiguated entries = %v", entries)
	}
}
