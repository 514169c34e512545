package assignment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"progress-sync/internal/concurrency"
	"progress-sync/internal/domain"
)

// pushChunkSize bounds how many records one upsert batch carries.
const pushChunkSize = 50

// Reconciler drains locally stored assignments back to the backend after
// an offline period: push everything via upsert, then clear local storage.
// Concurrent invocations collapse into a single in-flight run.
type Reconciler struct {
	local  *LocalRepository
	remote remoteBackend
	log    *zap.Logger

	mu      sync.Mutex
	current *reconcileRun
}

type reconcileRun struct {
	done chan struct{}
	err  error
}

func NewReconciler(local *LocalRepository, remote remoteBackend, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{local: local, remote: remote, log: log}
}

// Run pushes every pending local assignment to the backend. A caller that
// arrives while a run is already in flight waits for that run's result
// instead of starting another.
func (r *Reconciler) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.current != nil {
		cur := r.current
		r.mu.Unlock()
		select {
		case <-cur.done:
			return cur.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	cur := &reconcileRun{done: make(chan struct{})}
	r.current = cur
	r.mu.Unlock()

	cur.err = r.push(ctx)

	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
	close(cur.done)

	return cur.err
}

// Schedule fires Run on a detached goroutine with its own timeout. Errors
// are logged; the next connectivity signal will try again.
func (r *Reconciler) Schedule(timeout time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := r.Run(ctx); err != nil {
			r.log.Warn("assignment reconcile failed", zap.Error(err))
		}
	}()
}

func (r *Reconciler) push(ctx context.Context) error {
	pending := r.local.Pending()
	if len(pending) == 0 {
		return nil
	}

	chunks := chunkAssignments(pending, pushChunkSize)
	errs := concurrency.ForEach(ctx, chunks, concurrency.ParallelOptions{MaxWorkers: 2},
		func(ctx context.Context, _ int, chunk []domain.CourseAssignment) error {
			_, err := r.remote.Upsert(ctx, chunk)
			return err
		})
	if len(errs) > 0 {
		return fmt.Errorf("pushed %d chunks with %d failures: %w", len(chunks), len(errs), errs[0])
	}

	// Everything is on the backend now; local copies would only shadow it.
	r.local.Clear()
	r.log.Info("assignment reconcile complete", zap.Int("pushed", len(pending)))
	return nil
}

func chunkAssignments(recs []domain.CourseAssignment, size int) [][]domain.CourseAssignment {
	if size <= 0 {
		size = len(recs)
	}
	var out [][]domain.CourseAssignment
	for start := 0; start < len(recs); start += size {
		end := start + size
		if end > len(recs) {
			end = len(recs)
		}
		out = append(out, recs[start:end])
	}
	return out
}
