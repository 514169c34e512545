package huddle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"progress-sync/internal/httpx"
)

const contentTypeJSON = "application/json"

// Client talks to the Huddle LMS client API. A nil *Client is a valid
// "integration disabled" client: every method short-circuits.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string) *Client {
	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP: &http.Client{
			Timeout:   2 * time.Minute, // por-request
			Transport: tr,
		},
	}
}

// Enabled reports whether the client can reach a configured backend.
func (c *Client) Enabled() bool {
	return c != nil && c.BaseURL != ""
}

type lessonProgressRequest struct {
	UserID    string   `json:"user_id"`
	CourseID  string   `json:"course_id"`
	LessonIDs []string `json:"lesson_ids"`
}

type lessonProgressResponse struct {
	Data []LessonProgressRow `json:"data"`
}

// FetchLessonProgress reads the authoritative per-lesson rows for one
// learner and one course. Callers chunk large lesson lists; this method
// sends a single request.
func (c *Client) FetchLessonProgress(ctx context.Context, userID, courseID string, lessonIDs []string) ([]LessonProgressRow, error) {
	if !c.Enabled() {
		return nil, nil
	}

	body, err := json.Marshal(lessonProgressRequest{
		UserID:    userID,
		CourseID:  courseID,
		LessonIDs: lessonIDs,
	})
	if err != nil {
		return nil, err
	}

	var out lessonProgressResponse
	err = httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/client/lesson-progress", bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			c.setHeaders(r)
			return r, nil
		},
		&out,
		c.retryConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("huddle: fetch lesson progress failed: %w", err)
	}
	return out.Data, nil
}

// SyncProgressSnapshot pushes a full per-course progress snapshot. Failures
// come back as errors; callers log and move on, never retry synchronously.
func (c *Client) SyncProgressSnapshot(ctx context.Context, req SnapshotRequest) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	_, _, err = httpx.DoWithRetry(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/client/progress-snapshot", bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			c.setHeaders(r)
			return r, nil
		},
		c.snapshotRetryConfig(),
	)
	if err != nil {
		return fmt.Errorf("huddle: snapshot sync failed: %w", err)
	}
	return nil
}

type assignmentsResponse struct {
	Data []AssignmentRow `json:"data"`
}

// ListAssignments reads every assignment for one learner via the client
// REST endpoint.
func (c *Client) ListAssignments(ctx context.Context, userID string) ([]AssignmentRow, error) {
	if !c.Enabled() {
		return nil, nil
	}

	u, err := url.Parse(c.BaseURL + "/api/client/assignments")
	if err != nil {
		return nil, fmt.Errorf("huddle: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()

	var out assignmentsResponse
	err = httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return nil, err
			}
			c.setHeaders(r)
			return r, nil
		},
		&out,
		c.retryConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("huddle: list assignments failed: %w", err)
	}
	return out.Data, nil
}

// Ping probes the backend health endpoint with a single, non-retried call.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("huddle: integration disabled")
	}

	cfg := httpx.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	_, _, err := httpx.DoWithRetry(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/health", nil)
			if err != nil {
				return nil, err
			}
			c.setHeaders(r)
			return r, nil
		},
		cfg,
	)
	if err != nil {
		return fmt.Errorf("huddle: ping failed: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(r *http.Request) {
	r.Header.Set("Content-Type", contentTypeJSON)
	r.Header.Set("Accept", contentTypeJSON)
	if c.APIKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}

func (c *Client) retryConfig() httpx.RetryConfig {
	return httpx.DefaultRetryConfig()
}

// snapshotRetryConfig keeps snapshot pushes cheap: the caller treats them
// as best effort, so a couple of attempts is enough.
func (c *Client) snapshotRetryConfig() httpx.RetryConfig {
	cfg := httpx.DefaultRetryConfig()
	cfg.MaxAttempts = 2
	cfg.BaseDelay = 300 * time.Millisecond
	cfg.MaxDelay = 2 * time.Second
	return cfg
}
