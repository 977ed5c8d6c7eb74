// Package stages implements the four workflow stage functions (plan, search,
// evaluate, write) on top of the injected completion and search boundaries.
// Every external failure is recovered here with a stage-local fallback so the
// workflow machine never stalls on a bad service response.
package stages

import (
	"go.uber.org/zap"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/llm"
	"github.com/strandworks/deepresearch/internal/websearch"
)

// Config carries the stage-level knobs.
type Config struct {
	MaxQueriesPerPlan  int
	MaxResultsPerQuery int
	MaxFilteredResults int
	// RefineResults enables per-result summarization with the basic tier
	// during search.
	RefineResults bool
}

// fallbackFilterSize is how many of the original results survive when
// filtering returns nothing usable.
const fallbackFilterSize = 5

// Set implements engine.Stages with the injected service clients.
type Set struct {
	llm      llm.Client
	provider websearch.Provider
	exec     *engine.Executor
	cfg      Config
	logger   *zap.Logger
}

// NewSet wires the stage set. Zero config values get the documented defaults.
func NewSet(client llm.Client, provider websearch.Provider, exec *engine.Executor, cfg Config, logger *zap.Logger) *Set {
	if cfg.MaxQueriesPerPlan <= 0 {
		cfg.MaxQueriesPerPlan = 5
	}
	if cfg.MaxResultsPerQuery <= 0 {
		cfg.MaxResultsPerQuery = 5
	}
	if cfg.MaxFilteredResults <= 0 {
		cfg.MaxFilteredResults = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Set{
		llm:      client,
		provider: provider,
		exec:     exec,
		cfg:      cfg,
		logger:   logger,
	}
}

// fallbackQueries derives two generic queries from the topic. They are used
// whenever planning or evaluation cannot produce real queries.
func fallbackQueries(topic string) []string {
	return []string{
		topic + " overview",
		topic + " key aspects",
	}
}
