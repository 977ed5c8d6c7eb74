package stages

import (
	"context"

	"go.uber.org/zap"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/llm"
	"github.com/strandworks/deepresearch/internal/metrics"
	"github.com/strandworks/deepresearch/internal/util"
)

// Plan produces the initial search queries for the topic. A failed or
// unparsable completion degrades to generic fallback queries; a completion
// that parses to an empty list is passed through so the controller can
// reject the run as invalid input.
func (s *Set) Plan(ctx context.Context, state engine.State) (engine.Delta, error) {
	s.logger.Info("Plan: starting", zap.String("topic", util.TruncateString(state.Topic, 100)))

	prompt := buildPlanPrompt(state.Topic, s.cfg.MaxQueriesPerPlan)
	response, err := s.llm.Complete(ctx, prompt, llm.TierPremiumPlus, llm.Options{
		Temperature: 0.7,
		MaxTokens:   1024,
	})

	var queries []string
	if err == nil {
		queries, err = parseQueryList(response)
	}
	if err != nil {
		metrics.ParseFallbacks.WithLabelValues("plan").Inc()
		s.logger.Warn("Plan: falling back to generic queries", zap.Error(err))
		queries = fallbackQueries(state.Topic)
	}

	if len(queries) > s.cfg.MaxQueriesPerPlan {
		queries = queries[:s.cfg.MaxQueriesPerPlan]
	}

	s.logger.Info("Plan: complete", zap.Int("queries", len(queries)))
	return engine.Delta{PendingQueries: queries, SetPendingQueries: true}, nil
}
