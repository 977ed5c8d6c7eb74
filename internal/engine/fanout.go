package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WorkFunc executes the unit of work for a single query (search, optionally
// followed by refinement) and returns its results.
type WorkFunc func(ctx context.Context, query string) ([]SearchResult, error)

// Executor fans a batch of queries out over goroutines and joins the results
// into one batch per query, in input order. A failing, empty, or timed-out
// branch degrades to an empty batch for that query; it never cancels its
// siblings and never fails the round.
type Executor struct {
	logger        *zap.Logger
	branchTimeout time.Duration
}

// NewExecutor creates an executor. branchTimeout bounds each branch; zero
// means branches are limited only by the caller's context.
func NewExecutor(logger *zap.Logger, branchTimeout time.Duration) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger, branchTimeout: branchTimeout}
}

// RunAll executes workFn for every query concurrently. The returned slice
// always has len(queries) entries, ordered by input position regardless of
// completion order. Each branch writes only its own slot; the slots are read
// after every branch has settled. Caller cancellation is observed by every
// branch through ctx; branches that already finished keep their results.
func (e *Executor) RunAll(ctx context.Context, queries []string, workFn WorkFunc) []ResultBatch {
	batches := make([]ResultBatch, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		batches[i] = ResultBatch{Query: q}

		wg.Add(1)
		go func(slot int, query string) {
			defer wg.Done()

			branchCtx := ctx
			if e.branchTimeout > 0 {
				var cancel context.CancelFunc
				branchCtx, cancel = context.WithTimeout(ctx, e.branchTimeout)
				defer cancel()
			}

			results, err := workFn(branchCtx, query)
			if err != nil {
				e.logger.Warn("Search branch failed, degrading to empty batch",
					zap.String("query", query),
					zap.Error(err),
				)
				return
			}
			batches[slot].Results = results
		}(i, q)
	}
	wg.Wait()

	return batches
}
