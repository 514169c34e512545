package concurrency

import (
	"context"
	"sync"
)

// ParallelOptions configura el procesamiento paralelo.
type ParallelOptions struct {
	// MaxWorkers es el número máximo de trabajadores en paralelo
	MaxWorkers int
}

// DefaultOptions devuelve opciones predeterminadas.
func DefaultOptions() ParallelOptions {
	return ParallelOptions{MaxWorkers: 10}
}

type indexed[R any] struct {
	index  int
	result R
	err    error
}

// ProcessParallel runs itemFunc over every item with at most MaxWorkers
// goroutines. Results come back in input order; errors are collected
// separately (one entry per failed item).
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = DefaultOptions().MaxWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int, len(items))
	out := make(chan indexed[R], len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				r, err := itemFunc(ctx, i, items[i])
				out <- indexed[R]{index: i, result: r, err: err}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]R, len(items))
	var errs []error
	for res := range out {
		if res.err != nil {
			errs = append(errs, res.err)
		}
		results[res.index] = res.result
	}
	return results, errs
}

// ForEach ejecuta itemFunc para cada elemento en paralelo, sin recolectar
// resultados. Útil cuando solo importan los efectos secundarios.
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) error,
) []error {
	_, errs := ProcessParallel(ctx, items, opts, func(ctx context.Context, i int, item T) (struct{}, error) {
		return struct{}{}, itemFunc(ctx, i, item)
	})
	return errs
}
