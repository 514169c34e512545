package huddle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"progress-sync/internal/domain"
)

func TestNew(t *testing.T) {
	client := New("https://lms.example.com/", "test-key")

	if client.BaseURL != "https://lms.example.com" {
		t.Errorf("Expected BaseURL without trailing slash, got '%s'", client.BaseURL)
	}

	if client.APIKey != "test-key" {
		t.Errorf("Expected APIKey to be 'test-key', got '%s'", client.APIKey)
	}

	if client.HTTP == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if !client.Enabled() {
		t.Error("Expected configured client to be enabled")
	}
}

func TestEnabledNilClient(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Error("Expected nil client to be disabled")
	}

	rows, err := c.FetchLessonProgress(context.Background(), "u1", "c1", []string{"l1"})
	if err != nil || rows != nil {
		t.Errorf("Expected nil client fetch to no-op, got rows=%v err=%v", rows, err)
	}
}

func TestFetchLessonProgress(t *testing.T) {
	var gotPath string
	var gotReq lessonProgressRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"lesson_id":"l1","progress_percentage":100,"completed":true,"time_spent":320,"last_accessed_at":"2024-03-01T10:00:00Z"},
			{"lesson_id":"l2","progress_percentage":40,"completed":false,"time_spent":90}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	rows, err := c.FetchLessonProgress(context.Background(), "u1", "c1", []string{"l1", "l2"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotPath != "/api/client/lesson-progress" {
		t.Errorf("Expected lesson-progress path, got %s", gotPath)
	}
	if gotReq.UserID != "u1" || gotReq.CourseID != "c1" || len(gotReq.LessonIDs) != 2 {
		t.Errorf("Unexpected request payload: %+v", gotReq)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if !rows[0].IsCompleted() {
		t.Error("Expected l1 to be completed")
	}
	if rows[1].IsCompleted() {
		t.Error("Expected l2 to be incomplete")
	}
}

func TestListAssignments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/client/assignments" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "ana@example.com" {
			t.Errorf("Expected user_id query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"a1","course_id":"c1","user_id":"Ana@Example.com","status":"in-progress","progress":40,
			 "due_date":"2024-04-01","assigned_by":"admin","created_at":"2024-03-01T10:00:00Z","updated_at":"2024-03-02T10:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	rows, err := c.ListAssignments(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}

	a := rows[0].ToDomain()
	if a.UserID != "ana@example.com" {
		t.Errorf("Expected normalized user id, got %q", a.UserID)
	}
	if a.Status != domain.StatusInProgress {
		t.Errorf("Expected in-progress status, got %q", a.Status)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("Expected parsed timestamps")
	}
}

func TestAssignmentRowToDomainDerivedStatus(t *testing.T) {
	row := AssignmentRow{ID: "a1", CourseID: "c1", UserID: "u1", Status: "weird", Progress: 150}
	a := row.ToDomain()
	if a.Progress != 100 {
		t.Errorf("Expected clamped progress 100, got %d", a.Progress)
	}
	if a.Status != domain.StatusCompleted {
		t.Errorf("Expected derived status completed, got %q", a.Status)
	}

	blank := AssignmentRow{ID: "a2", CourseID: "", UserID: "u1"}
	if blank.ToDomain().ID != "" {
		t.Error("Expected zero assignment for row without course id")
	}
}

func TestSyncProgressSnapshotFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.SyncProgressSnapshot(context.Background(), SnapshotRequest{UserID: "u1", CourseID: "c1"})
	if err == nil {
		t.Error("Expected error on 400 response")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Expected healthy ping, got %v", err)
	}
}

func TestParseTime(t *testing.T) {
	testCases := []struct {
		input string
		zero  bool
	}{
		{"2024-03-01T10:00:00Z", false},
		{"2024-03-01", false},
		{"", true},
		{"not-a-date", true},
	}

	for _, tc := range testCases {
		result := ParseTimestamp(tc.input)
		if result.IsZero() != tc.zero {
			t.Errorf("ParseTimestamp(%q).IsZero() = %v, want %v", tc.input, result.IsZero(), tc.zero)
		}
	}

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := ParseTimestamp("2024-03-01T10:00:00Z"); !got.Equal(want) {
		t.Errorf("parseTime RFC3339 = %v, want %v", got, want)
	}
}
