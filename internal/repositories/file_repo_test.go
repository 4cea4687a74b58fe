package repositories

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/3Eeeecho/go-resumevault/internal/models"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ResumeFile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestFile(userID uint64, hash string, seq uint32, name string) *models.ResumeFile {
	id := uuid.New().String()
	return &models.ResumeFile{
		UUID:           id,
		UserID:         userID,
		FileName:       name,
		OriginalName:   name,
		Size:           128,
		Extension:      ".pdf",
		MimeType:       "application/pdf",
		FileHash:       hash,
		StorageBackend: models.BackendLocal,
		StorageKey:     fmt.Sprintf("resumes/%d/%s.pdf", userID, id),
		DuplicateSeq:   seq,
		Status:         models.UploadStatusComplete,
	}
}

const testHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestCreateDuplicateSequenceConflict(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	if err := repo.Create(newTestFile(1, testHash, 0, "a.pdf")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// 相同 (owner, hash, seq) 的活跃记录必须被唯一约束拒绝
	err := repo.Create(newTestFile(1, testHash, 0, "a (1).pdf"))
	if !errors.Is(err, xerr.ErrDuplicateSequenceConflict) {
		t.Fatalf("second create error = %v, want ErrDuplicateSequenceConflict", err)
	}

	// 不同 owner 或不同 seq 不冲突
	if err := repo.Create(newTestFile(2, testHash, 0, "a.pdf")); err != nil {
		t.Errorf("other owner create: %v", err)
	}
	if err := repo.Create(newTestFile(1, testHash, 1, "a (1).pdf")); err != nil {
		t.Errorf("next seq create: %v", err)
	}
}

func TestDedupStateExcludesDeleted(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	f0 := newTestFile(1, testHash, 0, "a.pdf")
	f1 := newTestFile(1, testHash, 1, "a (1).pdf")
	for _, f := range []*models.ResumeFile{f0, f1} {
		if err := repo.Create(f); err != nil {
			t.Fatalf("create seq %d: %v", f.DuplicateSeq, err)
		}
	}

	state, err := repo.DedupStateFor(1, testHash)
	if err != nil {
		t.Fatalf("DedupStateFor: %v", err)
	}
	if !state.Exists || state.MaxSeq != 1 {
		t.Fatalf("state = %+v, want Exists with MaxSeq 1", state)
	}
	if state.OriginalID == nil || *state.OriginalID != f0.ID {
		t.Errorf("OriginalID = %v, want %d", state.OriginalID, f0.ID)
	}

	// 全部软删除后,该内容视为不存在,重新上传从序号 0 开始
	for _, f := range []*models.ResumeFile{f0, f1} {
		if err := repo.SoftDelete(f.ID, 1); err != nil {
			t.Fatalf("soft delete %d: %v", f.ID, err)
		}
	}
	state, err = repo.DedupStateFor(1, testHash)
	if err != nil {
		t.Fatalf("DedupStateFor after delete: %v", err)
	}
	if state.Exists {
		t.Errorf("soft-deleted rows still counted in dedup state: %+v", state)
	}

	// deleted_token 把旧行移出活跃唯一空间,新的序号 0 记录可以插入
	if err := repo.Create(newTestFile(1, testHash, 0, "a.pdf")); err != nil {
		t.Errorf("re-upload after delete: %v", err)
	}
}

func TestSoftDeleteStates(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	f := newTestFile(1, testHash, 0, "a.pdf")
	if err := repo.Create(f); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SoftDelete(f.ID, 7); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	// 默认查询不可见
	if _, err := repo.FindByID(f.ID, false); !errors.Is(err, xerr.ErrFileNotFound) {
		t.Errorf("FindByID live error = %v, want ErrFileNotFound", err)
	}
	// 带删除的查询可见,且操作者被记录
	got, err := repo.FindByID(f.ID, true)
	if err != nil {
		t.Fatalf("FindByID include deleted: %v", err)
	}
	if !got.IsDeleted() || got.DeletedBy == nil || *got.DeletedBy != 7 {
		t.Errorf("deletion fields not recorded: %+v", got)
	}

	// 重复删除
	if err := repo.SoftDelete(f.ID, 7); !errors.Is(err, xerr.ErrFileAlreadyDeleted) {
		t.Errorf("second SoftDelete error = %v, want ErrFileAlreadyDeleted", err)
	}
	// 不存在的记录
	if err := repo.SoftDelete(99999, 7); !errors.Is(err, xerr.ErrFileNotFound) {
		t.Errorf("SoftDelete missing error = %v, want ErrFileNotFound", err)
	}
}

func TestRestore(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	f := newTestFile(1, testHash, 0, "a.pdf")
	if err := repo.Create(f); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 未删除的记录不能恢复
	if err := repo.Restore(f.ID, 9); !errors.Is(err, xerr.ErrFileNotInRecycleBin) {
		t.Fatalf("Restore live error = %v, want ErrFileNotInRecycleBin", err)
	}

	if err := repo.SoftDelete(f.ID, 9); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := repo.Restore(f.ID, 9); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	got, err := repo.FindByID(f.ID, false)
	if err != nil {
		t.Fatalf("FindByID after restore: %v", err)
	}
	if got.IsDeleted() || got.DeletedBy != nil {
		t.Errorf("deletion fields not cleared: %+v", got)
	}
	if got.RestoredAt == nil || got.RestoredBy == nil || *got.RestoredBy != 9 {
		t.Errorf("restore audit fields not recorded: %+v", got)
	}
	if got.DeletedToken != 0 {
		t.Errorf("deleted_token = %d, want 0", got.DeletedToken)
	}
}

func TestRestoreSequenceConflict(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	f := newTestFile(1, testHash, 0, "a.pdf")
	if err := repo.Create(f); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SoftDelete(f.ID, 1); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	// 删除期间同内容被重新上传,占用了原序号 0
	replacement := newTestFile(1, testHash, 0, "a.pdf")
	if err := repo.Create(replacement); err != nil {
		t.Fatalf("replacement create: %v", err)
	}

	err := repo.Restore(f.ID, 1)
	if !errors.Is(err, xerr.ErrDuplicateSequenceConflict) {
		t.Fatalf("Restore error = %v, want ErrDuplicateSequenceConflict", err)
	}

	// 换新序号后可以恢复,并指向新的原始记录
	if err := repo.RestoreWithNewSeq(f.ID, 1, 1, &replacement.ID); err != nil {
		t.Fatalf("RestoreWithNewSeq: %v", err)
	}
	got, err := repo.FindByID(f.ID, false)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.DuplicateSeq != 1 {
		t.Errorf("DuplicateSeq = %d, want 1", got.DuplicateSeq)
	}
	if got.OriginalFileID == nil || *got.OriginalFileID != replacement.ID {
		t.Errorf("OriginalFileID = %v, want %d", got.OriginalFileID, replacement.ID)
	}
}

func TestListPaginationAndFiltering(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	hashes := []string{
		"1111111111111111111111111111111111111111111111111111111111111111",
		"2222222222222222222222222222222222222222222222222222222222222222",
		"3333333333333333333333333333333333333333333333333333333333333333",
		"4444444444444444444444444444444444444444444444444444444444444444",
		"5555555555555555555555555555555555555555555555555555555555555555",
	}
	var files []*models.ResumeFile
	for i, h := range hashes {
		f := newTestFile(1, h, 0, fmt.Sprintf("resume-%d.pdf", i))
		if err := repo.Create(f); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		files = append(files, f)
	}
	// 他人文件不得出现在列表里
	if err := repo.Create(newTestFile(2, testHash, 0, "other.pdf")); err != nil {
		t.Fatalf("create other owner: %v", err)
	}
	// 软删除一条,默认列表应排除
	if err := repo.SoftDelete(files[4].ID, 1); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	page1, total, err := repo.List(1, ListQuery{Page: 1, PageSize: 3, SortBy: "file_name", Order: "asc"})
	if err != nil {
		t.Fatalf("List page 1: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(page1) != 3 {
		t.Fatalf("page 1 size = %d, want 3", len(page1))
	}
	page2, _, err := repo.List(1, ListQuery{Page: 2, PageSize: 3, SortBy: "file_name", Order: "asc"})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("page 2 size = %d, want 1", len(page2))
	}

	// 两页拼起来恰好是有序无重的 4 条
	names := []string{}
	for _, f := range append(page1, page2...) {
		names = append(names, f.FileName)
	}
	want := []string{"resume-0.pdf", "resume-1.pdf", "resume-2.pdf", "resume-3.pdf"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("pages = %v, want %v", names, want)
		}
	}

	// include_deleted 把回收站记录也带出来
	_, totalAll, err := repo.List(1, ListQuery{Page: 1, PageSize: 10, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("List include deleted: %v", err)
	}
	if totalAll != 5 {
		t.Errorf("total with deleted = %d, want 5", totalAll)
	}

	// 展示名模糊匹配
	matched, totalMatched, err := repo.List(1, ListQuery{Page: 1, PageSize: 10, Search: "resume-2"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if totalMatched != 1 || len(matched) != 1 || matched[0].FileName != "resume-2.pdf" {
		t.Errorf("search result = %v (total %d)", matched, totalMatched)
	}

	// ID 集合过滤(全文检索回查路径)
	byIDs, _, err := repo.List(1, ListQuery{Page: 1, PageSize: 10, FilterIDs: []uint64{files[0].ID, files[2].ID}})
	if err != nil {
		t.Fatalf("List filter ids: %v", err)
	}
	if len(byIDs) != 2 {
		t.Errorf("filter ids result size = %d, want 2", len(byIDs))
	}
}

func TestFindDeletedByUserID(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	f1 := newTestFile(1, testHash, 0, "a.pdf")
	f2 := newTestFile(1, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 0, "b.pdf")
	for _, f := range []*models.ResumeFile{f1, f2} {
		if err := repo.Create(f); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.SoftDelete(f1.ID, 1); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	deleted, err := repo.FindDeletedByUserID(1)
	if err != nil {
		t.Fatalf("FindDeletedByUserID: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != f1.ID {
		t.Errorf("recycle bin = %v, want only file %d", deleted, f1.ID)
	}
}

func TestPermanentDelete(t *testing.T) {
	repo := NewDBFileRepository(newTestDB(t))

	f := newTestFile(1, testHash, 0, "a.pdf")
	if err := repo.Create(f); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SoftDelete(f.ID, 1); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := repo.PermanentDelete(f.ID); err != nil {
		t.Fatalf("PermanentDelete: %v", err)
	}
	// 物理删除后连 Unscoped 查询也找不到
	if _, err := repo.FindByID(f.ID, true); !errors.Is(err, xerr.ErrFileNotFound) {
		t.Errorf("FindByID after permanent delete error = %v, want ErrFileNotFound", err)
	}
}
