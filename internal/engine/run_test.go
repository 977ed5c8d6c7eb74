package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/llm"
	"github.com/strandworks/deepresearch/internal/stages"
)

// queueLLM pops one scripted response per call for each tier, repeating the
// last entry once the queue drains.
type queueLLM struct {
	queues map[llm.Tier][]string
	errs   map[llm.Tier]error
}

func (q *queueLLM) Complete(ctx context.Context, prompt string, tier llm.Tier, opts llm.Options) (string, error) {
	if err, ok := q.errs[tier]; ok {
		return "", err
	}
	queue := q.queues[tier]
	if len(queue) == 0 {
		return "", fmt.Errorf("no scripted response for tier %s", tier)
	}
	resp := queue[0]
	if len(queue) > 1 {
		q.queues[tier] = queue[1:]
	}
	return resp, nil
}

type mapProvider struct {
	results map[string][]engine.SearchResult
}

func (m *mapProvider) Name() string { return "scripted" }

func (m *mapProvider) Search(ctx context.Context, query string, maxResults int) ([]engine.SearchResult, error) {
	res, ok := m.results[query]
	if !ok {
		return nil, errors.New("no results scripted for query")
	}
	return res, nil
}

func newController(client llm.Client, provider *mapProvider, maxIterations int) *engine.Controller {
	set := stages.NewSet(client, provider, engine.NewExecutor(zap.NewNop(), 0), stages.Config{}, zap.NewNop())
	return engine.NewController(set, maxIterations, zap.NewNop())
}

func TestEndToEndTwoRoundResearch(t *testing.T) {
	client := &queueLLM{queues: map[llm.Tier][]string{
		llm.TierPremiumPlus: {
			// First premium_plus call plans, second writes.
			`{"queries": ["ev credit eligibility", "ev credit amounts", "ev credit deadlines"]}`,
			"# Electric Vehicle Tax Credits in 2025\n\nEligibility tightened this year...",
		},
		llm.TierPremium: {
			`{"is_complete": false, "follow_up_queries": ["used ev credit rules", "leased ev credit rules"]}`,
			`{"is_complete": true, "follow_up_queries": []}`,
		},
		llm.TierStandard: {
			`{"positions": [1, 2]}`,
			`{"positions": [1, 2, 3]}`,
		},
	}}
	provider := &mapProvider{results: map[string][]engine.SearchResult{
		"ev credit eligibility": {
			{Title: "IRS guidance", Link: "https://irs.gov/a", Content: "income caps"},
			{Title: "Dealer summary", Link: "https://dealer.com/b", Content: "point of sale"},
		},
		"ev credit amounts":      {},
		"ev credit deadlines":    {},
		"used ev credit rules":   {{Title: "Used EV rules", Link: "https://irs.gov/used", Content: "price cap"}},
		"leased ev credit rules": {{Title: "Lease loophole", Link: "https://news.com/lease", Content: "commercial credit"}},
	}}

	c := newController(client, provider, 3)
	report, err := c.Run(context.Background(), "electric vehicle tax credits 2025")
	require.NoError(t, err)
	assert.Equal(t, "Electric Vehicle Tax Credits in 2025", report.Title)
	assert.Contains(t, report.Content, "Eligibility tightened")
}

func TestEndToEndForcedTerminationAtCap(t *testing.T) {
	client := &queueLLM{queues: map[llm.Tier][]string{
		llm.TierPremiumPlus: {
			`{"queries": ["q"]}`,
			"no heading in this draft",
		},
		llm.TierPremium: {
			// Never sufficient; the cap must force writing anyway.
			`{"is_complete": false, "follow_up_queries": ["again"]}`,
		},
		llm.TierStandard: {
			`{"positions": [1]}`,
		},
	}}
	provider := &mapProvider{results: map[string][]engine.SearchResult{
		"q":     {{Title: "r", Link: "https://x/1", Content: "c"}},
		"again": {{Title: "r2", Link: "https://x/2", Content: "c"}},
	}}

	c := newController(client, provider, 3)
	report, err := c.Run(context.Background(), "stubborn topic")
	require.NoError(t, err)
	// No heading in the draft: the title falls back to the topic.
	assert.Equal(t, "stubborn topic", report.Title)
}

func TestEndToEndAllServicesDownStillProducesReport(t *testing.T) {
	client := &queueLLM{errs: map[llm.Tier]error{
		llm.TierPremiumPlus: errors.New("llm down"),
		llm.TierPremium:     errors.New("llm down"),
		llm.TierStandard:    errors.New("llm down"),
		llm.TierBasic:       errors.New("llm down"),
	}}
	provider := &mapProvider{results: map[string][]engine.SearchResult{}}

	c := newController(client, provider, 2)
	report, err := c.Run(context.Background(), "resilience")
	require.NoError(t, err)
	assert.NotEmpty(t, report.Title)
	assert.NotEmpty(t, report.Content)
}
