package stages

import (
	"context"

	"go.uber.org/zap"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/llm"
	"github.com/strandworks/deepresearch/internal/metrics"
)

// placeholderResult is handed to the write stage when filtering yields
// nothing usable, so writing always has a non-empty input.
var placeholderResult = engine.SearchResult{
	Title:   "No relevant results",
	Content: "No relevant results were found for this topic.",
}

// Evaluate judges whether the accumulated evidence suffices and filters the
// result set for the write stage. The sufficiency judgment and the ranking
// both delegate to the completion service; unparsable responses degrade to
// not-sufficient with generic follow-up queries.
func (s *Set) Evaluate(ctx context.Context, state engine.State) (engine.Delta, engine.EvaluationOutcome, error) {
	store := engine.NewStore(state.Batches)
	results := store.DedupByLink()
	s.logger.Info("Evaluate: starting",
		zap.Int("iteration", state.Iteration),
		zap.Int("unique_results", len(results)),
	)

	// Nothing gathered at all: never complete, retry with generic queries.
	if len(results) == 0 {
		s.logger.Warn("Evaluate: no accumulated results, synthesizing fallback queries")
		delta := engine.Delta{
			FilteredResults:    []engine.SearchResult{placeholderResult},
			SetFilteredResults: true,
		}
		outcome := engine.EvaluationOutcome{
			IsComplete:      false,
			FollowUpQueries: fallbackQueries(state.Topic),
		}
		return delta, outcome, nil
	}

	outcome := s.judgeSufficiency(ctx, state.Topic, results)

	// A claimed-complete judgment needs at least one follow-up-free pass;
	// a complete outcome with pending follow-ups is contradictory, trust
	// the flag and drop the queries.
	if outcome.IsComplete {
		outcome.FollowUpQueries = nil
	}

	filtered := s.filterResults(ctx, state.Topic, results)

	s.logger.Info("Evaluate: complete",
		zap.Bool("is_complete", outcome.IsComplete),
		zap.Int("follow_up_queries", len(outcome.FollowUpQueries)),
		zap.Int("filtered_results", len(filtered)),
	)
	delta := engine.Delta{FilteredResults: filtered, SetFilteredResults: true}
	return delta, outcome, nil
}

// judgeSufficiency delegates the completeness decision to the premium tier.
func (s *Set) judgeSufficiency(ctx context.Context, topic string, results []engine.SearchResult) engine.EvaluationOutcome {
	response, err := s.llm.Complete(ctx, buildEvaluationPrompt(topic, results), llm.TierPremium, llm.Options{
		Temperature: 0.2,
		MaxTokens:   1024,
	})

	var isComplete bool
	var followUps []string
	if err == nil {
		isComplete, followUps, err = parseEvaluation(response)
	}
	if err != nil {
		metrics.ParseFallbacks.WithLabelValues("evaluate").Inc()
		s.logger.Warn("Evaluate: sufficiency judgment unusable, defaulting to incomplete", zap.Error(err))
		return engine.EvaluationOutcome{
			IsComplete:      false,
			FollowUpQueries: fallbackQueries(topic),
		}
	}

	// An incomplete judgment without follow-ups would stall the loop.
	if !isComplete && len(followUps) == 0 {
		followUps = fallbackQueries(topic)
	}
	return engine.EvaluationOutcome{IsComplete: isComplete, FollowUpQueries: followUps}
}

// filterResults asks the standard tier for a ranked subset of 1-based
// positions and applies the local validation policy on top: invalid
// positions are dropped, an empty selection falls back to the first five
// originals, the final set is capped, and an empty final set becomes the
// placeholder.
func (s *Set) filterResults(ctx context.Context, topic string, results []engine.SearchResult) []engine.SearchResult {
	var positions []int
	response, err := s.llm.Complete(ctx, buildFilterPrompt(topic, results, s.cfg.MaxFilteredResults), llm.TierStandard, llm.Options{
		Temperature: 0.1,
		MaxTokens:   256,
	})
	if err == nil {
		positions, err = parsePositions(response)
	}
	if err != nil {
		metrics.ParseFallbacks.WithLabelValues("filter").Inc()
		s.logger.Warn("Evaluate: filter response unusable, keeping leading results", zap.Error(err))
	}

	filtered := selectByPosition(results, positions)

	if len(filtered) == 0 {
		n := fallbackFilterSize
		if n > len(results) {
			n = len(results)
		}
		filtered = append(filtered, results[:n]...)
	}
	if len(filtered) > s.cfg.MaxFilteredResults {
		filtered = filtered[:s.cfg.MaxFilteredResults]
	}
	if len(filtered) == 0 {
		filtered = []engine.SearchResult{placeholderResult}
	}
	return filtered
}

// selectByPosition maps 1-based positions onto results, silently dropping
// out-of-range and repeated positions.
func selectByPosition(results []engine.SearchResult, positions []int) []engine.SearchResult {
	var out []engine.SearchResult
	taken := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 1 || p > len(results) || taken[p] {
			continue
		}
		taken[p] = true
		out = append(out, results[p-1])
	}
	return out
}
