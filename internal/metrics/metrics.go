package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// Workflow metrics
	WorkflowsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepresearch_workflows_started_total",
			Help: "Total number of research workflows started",
		},
	)

	WorkflowsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepresearch_workflows_completed_total",
			Help: "Total number of research workflows completed",
		},
		[]string{"status"},
	)

	WorkflowDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deepresearch_workflow_duration_seconds",
			Help:    "Workflow execution duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	WorkflowIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deepresearch_workflow_iterations",
			Help:    "Number of search rounds executed per workflow",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 10},
		},
	)

	ForcedCompletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepresearch_forced_completions_total",
			Help: "Workflows forced into writing by the iteration cap",
		},
	)

	// Stage metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepresearch_stage_duration_seconds",
			Help:    "Stage execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	ParseFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepresearch_parse_fallbacks_total",
			Help: "Structured-output parse failures recovered with a fallback value",
		},
		[]string{"stage"},
	)

	// External service metrics
	CompletionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepresearch_completion_calls_total",
			Help: "Text completion calls by model tier and status",
		},
		[]string{"tier", "status"},
	)

	SearchCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepresearch_search_calls_total",
			Help: "Web search calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	SearchResultsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepresearch_search_results_fetched_total",
			Help: "Total search results returned across all queries",
		},
	)
)

// Serve exposes /metrics on addr in a background goroutine. Errors are logged,
// not fatal: metrics are best-effort observability.
func Serve(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("Metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
}
