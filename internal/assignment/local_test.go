package assignment

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"progress-sync/internal/domain"
)

func TestLocalUpsertAndGet(t *testing.T) {
	repo := NewLocalRepository(t.TempDir(), nil)

	stored := repo.Upsert([]domain.CourseAssignment{
		{CourseID: "c1", UserID: "Ana@Example.com", Status: domain.StatusAssigned},
	})
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(stored))
	}
	if stored[0].ID == "" {
		t.Error("expected generated id")
	}
	if stored[0].UserID != "ana@example.com" {
		t.Errorf("expected lower-cased user id, got %q", stored[0].UserID)
	}
	if stored[0].CreatedAt.IsZero() || stored[0].UpdatedAt.IsZero() {
		t.Error("expected timestamps set")
	}

	got := repo.Get("c1", "ANA@example.COM")
	if got == nil {
		t.Fatal("expected lookup hit with differently-cased user id")
	}
	if got.ID != stored[0].ID {
		t.Errorf("expected same record, got id %q", got.ID)
	}
}

func TestLocalUpsertKeepsIdentity(t *testing.T) {
	repo := NewLocalRepository(t.TempDir(), nil)

	first := repo.Upsert([]domain.CourseAssignment{{CourseID: "c1", UserID: "u1"}})
	second := repo.Upsert([]domain.CourseAssignment{{CourseID: "c1", UserID: "u1", Note: "updated"}})

	if second[0].ID != first[0].ID {
		t.Error("upsert must keep the original id for the same (course, user) pair")
	}
	if !second[0].CreatedAt.Equal(first[0].CreatedAt) {
		t.Error("upsert must keep the original createdAt")
	}
	if second[0].Note != "updated" {
		t.Errorf("expected note replaced, got %q", second[0].Note)
	}

	if got := repo.Pending(); len(got) != 1 {
		t.Errorf("expected 1 record after re-upsert, got %d", len(got))
	}
}

func TestLocalSetProgress(t *testing.T) {
	repo := NewLocalRepository(t.TempDir(), nil)
	repo.Upsert([]domain.CourseAssignment{{CourseID: "c1", UserID: "u1"}})

	rec := repo.SetProgress("c1", "u1", 55, domain.StatusInProgress)
	if rec == nil {
		t.Fatal("expected updated record")
	}
	if rec.Progress != 55 || rec.Status != domain.StatusInProgress {
		t.Errorf("unexpected record after update: %+v", rec)
	}

	if miss := repo.SetProgress("c1", "nobody", 10, domain.StatusInProgress); miss != nil {
		t.Error("expected nil for unknown assignment")
	}
}

func TestLocalSanitizesMalformedRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, assignmentsFileName)

	raw := []domain.CourseAssignment{
		{ID: "good", CourseID: "c1", UserID: "u1"},
		{ID: "no-user", CourseID: "c1", UserID: "   "},
		{ID: "no-course", CourseID: "", UserID: "u2"},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	repo := NewLocalRepository(dir, nil)
	got := repo.Pending()
	if len(got) != 1 || got[0].ID != "good" {
		t.Fatalf("expected only the valid record, got %+v", got)
	}

	// The sanitized set was rewritten: a direct re-read stays clean.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	var onDisk []domain.CourseAssignment
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("unmarshal rewritten file: %v", err)
	}
	if len(onDisk) != 1 {
		t.Errorf("expected self-healed file with 1 record, got %d", len(onDisk))
	}
}

func TestLocalCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, assignmentsFileName), []byte("{{{"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	repo := NewLocalRepository(dir, nil)
	if got := repo.Pending(); len(got) != 0 {
		t.Errorf("expected no records from corrupt file, got %d", len(got))
	}
}

func TestLocalClear(t *testing.T) {
	repo := NewLocalRepository(t.TempDir(), nil)
	repo.Upsert([]domain.CourseAssignment{{CourseID: "c1", UserID: "u1"}})

	repo.Clear()
	if got := repo.Pending(); len(got) != 0 {
		t.Errorf("expected empty store after clear, got %d records", len(got))
	}
	// Clearing an already-empty store is fine.
	repo.Clear()
}
