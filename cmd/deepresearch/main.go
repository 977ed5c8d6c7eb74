package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strandworks/deepresearch/internal/config"
	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/llm"
	"github.com/strandworks/deepresearch/internal/metrics"
	"github.com/strandworks/deepresearch/internal/stages"
	"github.com/strandworks/deepresearch/internal/telemetry"
	"github.com/strandworks/deepresearch/internal/websearch"
)

var (
	configPath string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "deepresearch",
	Short: "Iterative research workflow engine",
	Long: `deepresearch runs an autonomous research workflow: it plans search
queries for a topic, executes them concurrently, evaluates whether the
gathered evidence suffices, loops for more searches when it does not, and
synthesizes a final report.`,
}

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Research a topic and print the report",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	runCmd.Flags().BoolVar(&outputJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(runCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Observability.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	if err := telemetry.Initialize(cfg.Observability.Tracing, logger); err != nil {
		logger.Warn("Tracing initialization failed, continuing without it", zap.Error(err))
	}
	if cfg.Observability.MetricsAddr != "" {
		metrics.Serve(cfg.Observability.MetricsAddr, logger)
	}

	client, err := llm.NewOpenAIClient(cfg.LLM, logger)
	if err != nil {
		return err
	}
	provider, err := buildProvider(cfg.Search)
	if err != nil {
		return err
	}

	exec := engine.NewExecutor(logger, cfg.Workflow.SearchTimeout)
	set := stages.NewSet(client, provider, exec, stages.Config{
		MaxQueriesPerPlan:  cfg.Workflow.MaxQueriesPerPlan,
		MaxResultsPerQuery: cfg.Workflow.MaxResultsPerQuery,
		MaxFilteredResults: cfg.Workflow.MaxFilteredResults,
		RefineResults:      cfg.Workflow.RefineResults,
	}, logger)
	controller := engine.NewController(set, cfg.Workflow.MaxIterations, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := controller.Run(ctx, topic)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Println(report.Content)
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// Logs go to stderr so the report on stdout stays clean.
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func buildProvider(cfg config.Search) (websearch.Provider, error) {
	switch cfg.Provider {
	case "tavily":
		return websearch.NewTavily(cfg.TavilyKey, cfg.TavilyDepth), nil
	case "duckduckgo":
		return websearch.NewDuckDuckGo(), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
