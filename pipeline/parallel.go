package pipeline

import (
	"context"
	"sync"
)

// runParallel runs fn for every task with at most maxConcurrent tasks in
// flight. The first error cancels the tasks not yet started and is
// returned once the running ones finish.
func runParallel[T any](ctx context.Context, tasks []T, maxConcurrent int, fn func(context.Context, T) error) error {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for _, task := range tasks {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)

		go func(t T) {
			defer func() {
				<-sem
				wg.Done()
			}()

			if err := fn(ctx, t); err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(task)
	}

	wg.Wait()
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return firstErr
}
