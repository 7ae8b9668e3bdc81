package workerpool

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config configures the worker pool.
type Config struct {
	MaxConcurrent int // Maximum concurrent work items (default: 8)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 8,
	}
}

// Pool runs CPU-bound work items with bounded parallelism.
type Pool struct {
	config Config
	logger *zap.Logger
}

// New creates a worker pool.
func New(config Config, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &Pool{
		config: config,
		logger: logger.Named("worker-pool"),
	}
}

// MaxConcurrent returns the concurrency limit.
func (p *Pool) MaxConcurrent() int {
	return p.config.MaxConcurrent
}

// WorkItem is a unit of work.
type WorkItem[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// Map executes all items with bounded parallelism and returns results in
// submission order, so callers can merge deterministically by index.
// The first error cancels the remaining items and is returned.
func Map[T any](ctx context.Context, pool *Pool, items []WorkItem[T]) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]T, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pool.config.MaxConcurrent)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := item.Execute(gctx)
			if err != nil {
				pool.logger.Debug("Work item failed",
					zap.String("item_id", item.ID),
					zap.Error(err))
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
