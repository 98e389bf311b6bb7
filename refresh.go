package nanogit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Refresh loads status, branches and the most recent history into the cache
// concurrently, so the next reads under the current fingerprint are hits.
func (r *Repository) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := r.Status(ctx)
		return err
	})
	g.Go(func() error {
		_, err := r.Branches(ctx)
		return err
	})
	g.Go(func() error {
		_, err := r.Log(ctx, LogRange{Limit: r.refreshLimit})
		return err
	})

	return g.Wait()
}

// StartRefresh runs Refresh in the background at the given interval. Errors
// are logged at warn level and do not stop the loop.
//
// Returns a function to stop the loop. It is safe to call multiple times and
// blocks until the background goroutine has stopped.
//
// Example:
//
//	stop := repo.StartRefresh(2 * time.Second)
//	defer stop()
func (r *Repository) StartRefresh(interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
					r.logger.Warn("background refresh failed", "error", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
