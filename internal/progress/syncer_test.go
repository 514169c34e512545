package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"progress-sync/internal/providers/huddle"
)

type fakeFetcher struct {
	mu      sync.Mutex
	enabled bool
	calls   int
	batches [][]string
	rows    []huddle.LessonProgressRow
	err     error
}

func (f *fakeFetcher) Enabled() bool { return f.enabled }

func (f *fakeFetcher) FetchLessonProgress(_ context.Context, _, _ string, lessonIDs []string) ([]huddle.LessonProgressRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	batch := make([]string, len(lessonIDs))
	copy(batch, lessonIDs)
	f.batches = append(f.batches, batch)
	if f.err != nil {
		return nil, f.err
	}

	// Return rows only for the requested ids.
	var out []huddle.LessonProgressRow
	for _, row := range f.rows {
		for _, id := range lessonIDs {
			if row.LessonID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestSyncer(f *fakeFetcher, store *Store, opts SyncerOptions) *Syncer {
	if opts.ChunkDelay == 0 {
		opts.ChunkDelay = time.Millisecond
	}
	return NewSyncer(f, store, opts, nil)
}

func TestSyncShortCircuits(t *testing.T) {
	f := &fakeFetcher{enabled: true}
	s := newTestSyncer(f, nil, SyncerOptions{})

	cases := []SyncRequest{
		{CourseSlug: "s", CourseID: "", UserID: "u", LessonIDs: []string{"l1"}}, // no course id
		{CourseSlug: "s", CourseID: "c", UserID: "u", LessonIDs: nil},           // no lessons
	}
	for _, req := range cases {
		rec, err := s.SyncCourseProgress(context.Background(), req)
		if rec != nil || err != nil {
			t.Errorf("expected nil/nil short-circuit for %+v, got %v/%v", req, rec, err)
		}
	}

	disabled := &fakeFetcher{enabled: false}
	s = newTestSyncer(disabled, nil, SyncerOptions{})
	rec, err := s.SyncCourseProgress(context.Background(), SyncRequest{CourseID: "c", UserID: "u", LessonIDs: []string{"l1"}})
	if rec != nil || err != nil {
		t.Errorf("expected nil/nil for disabled fetcher, got %v/%v", rec, err)
	}

	if f.callCount() != 0 || disabled.callCount() != 0 {
		t.Error("short-circuited calls must not hit the network")
	}
}

func TestSyncCacheHonored(t *testing.T) {
	f := &fakeFetcher{
		enabled: true,
		rows:    []huddle.LessonProgressRow{{LessonID: "l1", Completed: true}},
	}
	s := newTestSyncer(f, nil, SyncerOptions{CacheTTL: time.Minute})

	req := SyncRequest{CourseSlug: "s", CourseID: "c1", UserID: "u1", LessonIDs: []string{"l1"}}

	first, err := s.SyncCourseProgress(context.Background(), req)
	if err != nil || first == nil {
		t.Fatalf("first sync failed: rec=%v err=%v", first, err)
	}
	second, err := s.SyncCourseProgress(context.Background(), req)
	if err != nil || second == nil {
		t.Fatalf("second sync failed: rec=%v err=%v", second, err)
	}

	if f.callCount() != 1 {
		t.Errorf("expected exactly 1 fetch within TTL, got %d", f.callCount())
	}
	if len(second.CompletedLessonIDs) != 1 || second.CompletedLessonIDs[0] != "l1" {
		t.Errorf("cached record mismatch: %v", second.CompletedLessonIDs)
	}
}

func TestSyncCacheExpires(t *testing.T) {
	f := &fakeFetcher{enabled: true}
	s := newTestSyncer(f, nil, SyncerOptions{CacheTTL: 45 * time.Second})

	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	req := SyncRequest{CourseID: "c1", UserID: "u1", LessonIDs: []string{"l1"}}

	if _, err := s.SyncCourseProgress(context.Background(), req); err != nil {
		t.Fatalf("sync: %v", err)
	}
	current = current.Add(46 * time.Second)
	if _, err := s.SyncCourseProgress(context.Background(), req); err != nil {
		t.Fatalf("sync after expiry: %v", err)
	}

	if f.callCount() != 2 {
		t.Errorf("expected refetch after TTL expiry, got %d calls", f.callCount())
	}
}

func TestSyncCacheKeyedByUserAndCourse(t *testing.T) {
	f := &fakeFetcher{enabled: true}
	s := newTestSyncer(f, nil, SyncerOptions{CacheTTL: time.Minute})

	base := SyncRequest{CourseID: "c1", UserID: "u1", LessonIDs: []string{"l1"}}
	otherUser := base
	otherUser.UserID = "u2"

	_, _ = s.SyncCourseProgress(context.Background(), base)
	_, _ = s.SyncCourseProgress(context.Background(), otherUser)

	if f.callCount() != 2 {
		t.Errorf("expected separate cache entries per user, got %d calls", f.callCount())
	}
}

func TestSyncChunksLongLessonLists(t *testing.T) {
	f := &fakeFetcher{enabled: true}
	s := newTestSyncer(f, nil, SyncerOptions{BatchSize: 25, ChunkDelay: time.Millisecond})

	ids := make([]string, 60)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + "-lesson"
	}
	// unique-ify
	for i := range ids {
		ids[i] = ids[i] + "-" + string(rune('0'+i/26))
	}

	_, err := s.SyncCourseProgress(context.Background(), SyncRequest{CourseID: "c1", UserID: "u1", LessonIDs: ids})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if f.callCount() != 3 { // 25 + 25 + 10
		t.Fatalf("expected 3 chunks for 60 lessons, got %d", f.callCount())
	}
	if len(f.batches[0]) != 25 || len(f.batches[1]) != 25 || len(f.batches[2]) != 10 {
		t.Errorf("unexpected chunk sizes: %d/%d/%d", len(f.batches[0]), len(f.batches[1]), len(f.batches[2]))
	}
}

func TestSyncNoRowsYieldsZeroRecord(t *testing.T) {
	f := &fakeFetcher{enabled: true}
	store := NewStore(t.TempDir(), nil, nil)
	s := newTestSyncer(f, store, SyncerOptions{})

	rec, err := s.SyncCourseProgress(context.Background(), SyncRequest{
		CourseSlug: "slug", CourseID: "c1", UserID: "u1", LessonIDs: []string{"l1"},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if rec == nil {
		t.Fatal("expected zero record, not nil, when backend returns no rows")
	}
	if !rec.IsZero() {
		t.Errorf("expected zero record, got %+v", rec)
	}
}

func TestSyncWritesThroughToStore(t *testing.T) {
	f := &fakeFetcher{
		enabled: true,
		rows: []huddle.LessonProgressRow{
			{LessonID: "l1", ProgressPercentage: 100, TimeSpent: 30},
		},
	}
	store := NewStore(t.TempDir(), nil, nil)
	s := newTestSyncer(f, store, SyncerOptions{})

	// Seed stale local state; the remote result must overwrite it.
	stale := store.Load("slug")
	stale.LessonProgress["l1"] = 10
	store.Save("slug", stale)

	_, err := s.SyncCourseProgress(context.Background(), SyncRequest{
		CourseSlug: "slug", CourseID: "c1", UserID: "u1", LessonIDs: []string{"l1"},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	got := store.Load("slug")
	if got.LessonProgress["l1"] != 100 {
		t.Errorf("expected remote overwrite, got progress %d", got.LessonProgress["l1"])
	}
	if len(got.CompletedLessonIDs) != 1 {
		t.Errorf("expected l1 completed locally, got %v", got.CompletedLessonIDs)
	}
}

func TestSyncFetchErrorPropagates(t *testing.T) {
	f := &fakeFetcher{enabled: true, err: errors.New("backend down")}
	s := newTestSyncer(f, nil, SyncerOptions{})

	rec, err := s.SyncCourseProgress(context.Background(), SyncRequest{
		CourseID: "c1", UserID: "u1", LessonIDs: []string{"l1"},
	})
	if err == nil {
		t.Fatal("expected error from failing fetch")
	}
	if rec != nil {
		t.Errorf("expected nil record on error, got %+v", rec)
	}

	// Errors are not cached; the next call retries.
	f.err = nil
	if _, err := s.SyncCourseProgress(context.Background(), SyncRequest{
		CourseID: "c1", UserID: "u1", LessonIDs: []string{"l1"},
	}); err != nil {
		t.Fatalf("expected retry after failure, got %v", err)
	}
	if f.callCount() != 2 {
		t.Errorf("expected 2 fetch attempts, got %d", f.callCount())
	}
}
