package stages

import (
	"context"

	"go.uber.org/zap"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/llm"
)

// Search fans the pending queries out over the executor and appends one
// batch per query. Branch failures surface as empty batches, never as a
// stage error.
func (s *Set) Search(ctx context.Context, state engine.State) (engine.Delta, error) {
	s.logger.Info("Search: starting round",
		zap.Int("queries", len(state.PendingQueries)),
		zap.Int("iteration", state.Iteration+1),
	)

	batches := s.exec.RunAll(ctx, state.PendingQueries, s.searchOne)

	total := 0
	for _, b := range batches {
		total += len(b.Results)
	}
	s.logger.Info("Search: round complete",
		zap.Int("batches", len(batches)),
		zap.Int("results", total),
	)
	return engine.Delta{Batches: batches}, nil
}

// searchOne is the per-query unit of work: one provider call, optionally
// followed by per-result refinement.
func (s *Set) searchOne(ctx context.Context, query string) ([]engine.SearchResult, error) {
	results, err := s.provider.Search(ctx, query, s.cfg.MaxResultsPerQuery)
	if err != nil {
		return nil, err
	}

	if s.cfg.RefineResults {
		for i := range results {
			s.refine(ctx, query, &results[i])
		}
	}
	return results, nil
}

// refine summarizes one result's content with the basic tier. Failure leaves
// the raw content in place.
func (s *Set) refine(ctx context.Context, query string, result *engine.SearchResult) {
	if result.Content == "" {
		return
	}
	summary, err := s.llm.Complete(ctx, buildRefinePrompt(query, *result), llm.TierBasic, llm.Options{
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if err != nil {
		s.logger.Debug("Search: refinement failed, keeping raw content",
			zap.String("link", result.Link),
			zap.Error(err),
		)
		return
	}
	result.RefinedContent = summary
}
