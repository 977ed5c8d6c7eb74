package stages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/llm"
	"github.com/strandworks/deepresearch/internal/metrics"
	"github.com/strandworks/deepresearch/internal/util"
)

// Write synthesizes the terminal report from the filtered results. The
// report title is the first top-level markdown heading of the generated
// text, or the topic verbatim when no heading exists. A failed completion
// degrades to a plain listing of the sources rather than failing the run.
func (s *Set) Write(ctx context.Context, state engine.State) (engine.Delta, error) {
	s.logger.Info("Write: starting", zap.Int("sources", len(state.FilteredResults)))

	content, err := s.llm.Complete(ctx, buildWritePrompt(state.Topic, state.FilteredResults), llm.TierPremiumPlus, llm.Options{
		Temperature: 0.6,
		MaxTokens:   4096,
	})
	if err != nil || strings.TrimSpace(content) == "" {
		metrics.ParseFallbacks.WithLabelValues("write").Inc()
		s.logger.Warn("Write: synthesis unavailable, emitting source digest", zap.Error(err))
		content = sourceDigest(state.Topic, state.FilteredResults)
	}

	title := util.FirstHeading(content)
	if title == "" {
		title = state.Topic
	}

	s.logger.Info("Write: complete",
		zap.String("title", util.TruncateString(title, 100)),
		zap.Int("content_length", len(content)),
	)
	return engine.Delta{Report: &engine.Report{Title: title, Content: content}}, nil
}

// sourceDigest assembles a minimal report directly from the filtered
// results when the completion service is unavailable.
func sourceDigest(topic string, results []engine.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", topic))
	sb.WriteString("Report generation was unavailable; the collected sources are listed below.\n\n")
	for _, r := range results {
		content := r.Content
		if r.RefinedContent != "" {
			content = r.RefinedContent
		}
		sb.WriteString(fmt.Sprintf("- **%s**", r.Title))
		if r.Link != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.Link))
		}
		if content != "" {
			sb.WriteString(fmt.Sprintf(": %s", util.TruncateString(content, 300)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
