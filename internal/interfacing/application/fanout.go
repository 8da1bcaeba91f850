package application

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachLimit runs fn for every index with at most limit calls in flight.
// The first error cancels the shared context and is returned by Wait.
func forEachLimit(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = defaultWorkers
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return fn(groupCtx, i)
		})
	}
	return group.Wait()
}
