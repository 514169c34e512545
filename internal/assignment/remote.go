package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"progress-sync/internal/domain"
	"progress-sync/internal/supabase"
)

const assignmentColumns = `
	id, course_id, user_id, status, progress,
	coalesce(due_date, ''), coalesce(note, ''), coalesce(assigned_by, ''),
	created_at, updated_at`

// RemoteRepository stores assignments in the Supabase course_assignments
// table. Every write is an upsert keyed on (course_id, user_id).
type RemoteRepository struct {
	db *supabase.Client
}

func NewRemoteRepository(db *supabase.Client) *RemoteRepository {
	if !db.Enabled() {
		return nil
	}
	return &RemoteRepository{db: db}
}

// Upsert writes one row per record and returns the stored rows.
func (r *RemoteRepository) Upsert(ctx context.Context, recs []domain.CourseAssignment) ([]domain.CourseAssignment, error) {
	query := `
		INSERT INTO course_assignments (
			id, course_id, user_id, status, progress,
			due_date, note, assigned_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, nullif($6, ''), nullif($7, ''), nullif($8, ''), $9, $10)
		ON CONFLICT (course_id, user_id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			due_date = EXCLUDED.due_date,
			note = EXCLUDED.note,
			assigned_by = EXCLUDED.assigned_by,
			updated_at = EXCLUDED.updated_at
		RETURNING` + assignmentColumns

	now := time.Now()
	out := make([]domain.CourseAssignment, 0, len(recs))

	for _, rec := range recs {
		rec.UserID = domain.NormalizeUserID(rec.UserID)
		if rec.CourseID == "" || rec.UserID == "" {
			continue
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		row := r.db.Pool.QueryRow(ctx, query,
			rec.ID, rec.CourseID, rec.UserID, string(rec.Status), rec.Progress,
			rec.DueDate, rec.Note, rec.AssignedBy, rec.CreatedAt, rec.UpdatedAt,
		)
		stored, err := scanAssignment(row)
		if err != nil {
			return nil, fmt.Errorf("upsert assignment %s/%s: %w", rec.CourseID, rec.UserID, err)
		}
		out = append(out, *stored)
	}

	return out, nil
}

// ForUser returns every assignment for one normalized user id.
func (r *RemoteRepository) ForUser(ctx context.Context, userID string) ([]domain.CourseAssignment, error) {
	query := `
		SELECT` + assignmentColumns + `
		FROM course_assignments
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query, domain.NormalizeUserID(userID))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.CourseAssignment
	for rows.Next() {
		rec, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Get is the point lookup. (nil, nil) means no assignment exists.
func (r *RemoteRepository) Get(ctx context.Context, courseID, userID string) (*domain.CourseAssignment, error) {
	query := `
		SELECT` + assignmentColumns + `
		FROM course_assignments
		WHERE course_id = $1 AND user_id = $2`

	row := r.db.Pool.QueryRow(ctx, query, courseID, domain.NormalizeUserID(userID))
	rec, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return rec, nil
}

// SetProgress applies an already-clamped value and derived status.
// (nil, nil) means no row matched.
func (r *RemoteRepository) SetProgress(ctx context.Context, courseID, userID string, progress int, status domain.AssignmentStatus) (*domain.CourseAssignment, error) {
	query := `
		UPDATE course_assignments
		SET progress = $3, status = $4, updated_at = now()
		WHERE course_id = $1 AND user_id = $2
		RETURNING` + assignmentColumns

	row := r.db.Pool.QueryRow(ctx, query, courseID, domain.NormalizeUserID(userID), progress, string(status))
	rec, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update assignment progress: %w", err)
	}
	return rec, nil
}

func scanAssignment(row pgx.Row) (*domain.CourseAssignment, error) {
	var rec domain.CourseAssignment
	var status string
	err := row.Scan(
		&rec.ID, &rec.CourseID, &rec.UserID, &status, &rec.Progress,
		&rec.DueDate, &rec.Note, &rec.AssignedBy,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = domain.AssignmentStatus(status)
	return &rec, nil
}
