// Package config loads the runtime configuration from a YAML file plus
// DEEPRESEARCH_-prefixed environment overrides, with defaults for every knob.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/strandworks/deepresearch/internal/llm"
	"github.com/strandworks/deepresearch/internal/telemetry"
)

// Workflow holds the orchestration knobs.
type Workflow struct {
	MaxIterations      int `mapstructure:"max_iterations"`
	MaxQueriesPerPlan  int `mapstructure:"max_queries_per_plan"`
	MaxResultsPerQuery int `mapstructure:"max_results_per_query"`
	MaxFilteredResults int `mapstructure:"max_filtered_results"`
	// SearchTimeout bounds each search branch. Zero leaves branches bounded
	// by the caller context only.
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
	RefineResults bool          `mapstructure:"refine_results"`
}

// Search selects and configures the web search provider.
type Search struct {
	Provider    string `mapstructure:"provider"` // duckduckgo or tavily
	TavilyKey   string `mapstructure:"tavily_api_key"`
	TavilyDepth string `mapstructure:"tavily_depth"`
}

// Observability holds logging, metrics, and tracing settings.
type Observability struct {
	LogLevel    string           `mapstructure:"log_level"`
	MetricsAddr string           `mapstructure:"metrics_addr"`
	Tracing     telemetry.Config `mapstructure:"tracing"`
}

// Config is the full runtime configuration.
type Config struct {
	Workflow      Workflow         `mapstructure:"workflow"`
	Search        Search           `mapstructure:"search"`
	LLM           llm.OpenAIConfig `mapstructure:"llm"`
	Observability Observability    `mapstructure:"observability"`
}

// Load reads configuration from path (or CONFIG_PATH when path is empty; a
// missing file is fine, defaults and env apply), then validates.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEEPRESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workflow.max_iterations", 3)
	v.SetDefault("workflow.max_queries_per_plan", 5)
	v.SetDefault("workflow.max_results_per_query", 5)
	v.SetDefault("workflow.max_filtered_results", 10)
	v.SetDefault("workflow.search_timeout", "30s")
	v.SetDefault("workflow.refine_results", false)

	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.tavily_api_key", "")
	v.SetDefault("search.tavily_depth", "basic")

	// Every key needs a default, even an empty one: AutomaticEnv only
	// surfaces env values for keys viper already knows about.
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "2m")
	v.SetDefault("llm.requests_per_minute", 0)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.metrics_addr", "")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.service_name", "deepresearch")
	v.SetDefault("observability.tracing.otlp_endpoint", "")
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Workflow.MaxIterations < 1 {
		return fmt.Errorf("workflow.max_iterations must be >= 1, got %d", c.Workflow.MaxIterations)
	}
	if c.Workflow.MaxQueriesPerPlan < 1 {
		return fmt.Errorf("workflow.max_queries_per_plan must be >= 1, got %d", c.Workflow.MaxQueriesPerPlan)
	}
	if c.Workflow.MaxResultsPerQuery < 1 {
		return fmt.Errorf("workflow.max_results_per_query must be >= 1, got %d", c.Workflow.MaxResultsPerQuery)
	}
	if c.Workflow.MaxFilteredResults < 1 {
		return fmt.Errorf("workflow.max_filtered_results must be >= 1, got %d", c.Workflow.MaxFilteredResults)
	}
	// Zero is allowed and means branches are bounded by the caller context
	// only; anything negative is a mistake.
	if c.Workflow.SearchTimeout < 0 {
		return fmt.Errorf("workflow.search_timeout must be >= 0, got %s", c.Workflow.SearchTimeout)
	}
	switch c.Search.Provider {
	case "duckduckgo":
	case "tavily":
		if c.Search.TavilyKey == "" {
			return fmt.Errorf("search.tavily_api_key is required for the tavily provider")
		}
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}
	return nil
}
