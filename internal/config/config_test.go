package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workflow.MaxIterations)
	assert.Equal(t, 5, cfg.Workflow.MaxQueriesPerPlan)
	assert.Equal(t, 5, cfg.Workflow.MaxResultsPerQuery)
	assert.Equal(t, 10, cfg.Workflow.MaxFilteredResults)
	assert.Equal(t, 30*time.Second, cfg.Workflow.SearchTimeout)
	assert.False(t, cfg.Workflow.RefineResults)

	assert.Equal(t, "duckduckgo", cfg.Search.Provider)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.Tracing.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
workflow:
  max_iterations: 7
  refine_results: true
search:
  provider: tavily
  tavily_api_key: tvly-abc
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Workflow.MaxIterations)
	assert.True(t, cfg.Workflow.RefineResults)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, "tvly-abc", cfg.Search.TavilyKey)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	// Keys the file omits keep their defaults.
	assert.Equal(t, 5, cfg.Workflow.MaxQueriesPerPlan)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DEEPRESEARCH_WORKFLOW_MAX_ITERATIONS", "9")
	t.Setenv("DEEPRESEARCH_SEARCH_PROVIDER", "duckduckgo")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Workflow.MaxIterations)
}

func TestLoadEnvOverrideKeysWithoutFileValues(t *testing.T) {
	// Secrets are normally supplied only through the environment, so keys
	// that default to empty must still pick up env values.
	t.Setenv("DEEPRESEARCH_SEARCH_PROVIDER", "tavily")
	t.Setenv("DEEPRESEARCH_SEARCH_TAVILY_API_KEY", "tvly-from-env")
	t.Setenv("DEEPRESEARCH_LLM_API_KEY", "sk-from-env")
	t.Setenv("DEEPRESEARCH_LLM_BASE_URL", "https://llm.internal/v1")
	t.Setenv("DEEPRESEARCH_OBSERVABILITY_TRACING_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, "tvly-from-env", cfg.Search.TavilyKey)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, "https://llm.internal/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "collector:4317", cfg.Observability.Tracing.OTLPEndpoint)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Workflow.MaxIterations = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Search.Provider = "bing"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Workflow.SearchTimeout = -1 * time.Second
	assert.Error(t, cfg.Validate())
	cfg.Workflow.SearchTimeout = 0
	assert.NoError(t, cfg.Validate(), "zero timeout means caller-context only")

	cfg = base()
	cfg.Search.Provider = "tavily"
	assert.Error(t, cfg.Validate(), "tavily without a key must be rejected")
	cfg.Search.TavilyKey = "tvly-x"
	assert.NoError(t, cfg.Validate())
}
