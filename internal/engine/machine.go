package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strandworks/deepresearch/internal/metrics"
	"github.com/strandworks/deepresearch/internal/telemetry"
)

// Phase enumerates the states of the workflow machine.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseSearching
	PhaseEvaluating
	PhaseWriting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseSearching:
		return "searching"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseWriting:
		return "writing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Stages supplies the four stage transformations. Each receives a snapshot of
// the state and reports changes through a Delta; none of them reach into
// shared mutable state. Evaluate additionally surfaces the outcome that
// drives the conditional transition.
type Stages interface {
	Plan(ctx context.Context, s State) (Delta, error)
	Search(ctx context.Context, s State) (Delta, error)
	Evaluate(ctx context.Context, s State) (Delta, EvaluationOutcome, error)
	Write(ctx context.Context, s State) (Delta, error)
}

// Transition is the pure transition function out of Evaluating. A sufficient
// outcome moves to Writing. An insufficient outcome loops back to Searching
// while iterations remain; once the budget is spent the machine moves to
// Writing regardless of the outcome, which guarantees termination
// independent of the quality signal.
func Transition(iteration int, outcome EvaluationOutcome, maxIterations int) Phase {
	if outcome.IsComplete {
		return PhaseWriting
	}
	if iteration < maxIterations {
		return PhaseSearching
	}
	return PhaseWriting
}

// Controller owns the workflow state for the lifetime of a run and drives
// the machine from Planning to Done.
type Controller struct {
	stages        Stages
	maxIterations int
	logger        *zap.Logger
}

// NewController wires a controller with its stage implementations.
// maxIterations below 1 is clamped to 1.
func NewController(stages Stages, maxIterations int, logger *zap.Logger) *Controller {
	if maxIterations < 1 {
		maxIterations = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		stages:        stages,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run executes one research workflow for topic and returns the terminal
// report. Only input mistakes and caller cancellation surface as errors;
// service and parse failures inside stages degrade to fallbacks so the
// machine always reaches Done.
func (c *Controller) Run(ctx context.Context, topic string) (Report, error) {
	if strings.TrimSpace(topic) == "" {
		return Report{}, NewInputError("topic is empty")
	}

	runID := uuid.NewString()
	logger := c.logger.With(zap.String("run_id", runID))
	logger.Info("Starting research workflow",
		zap.String("topic", topic),
		zap.Int("max_iterations", c.maxIterations),
	)
	metrics.WorkflowsStarted.Inc()
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "workflow.run")
	defer span.End()

	state := &State{Topic: topic}
	phase := PhasePlanning

	for phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			metrics.WorkflowsCompleted.WithLabelValues("canceled").Inc()
			return Report{}, fmt.Errorf("workflow canceled in %s: %w", phase, err)
		}

		next, err := c.step(ctx, phase, state, logger)
		if err != nil {
			metrics.WorkflowsCompleted.WithLabelValues("error").Inc()
			return Report{}, err
		}
		phase = next
	}

	metrics.WorkflowsCompleted.WithLabelValues("ok").Inc()
	metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
	metrics.WorkflowIterations.Observe(float64(state.Iteration))
	logger.Info("Research workflow complete",
		zap.Int("iterations", state.Iteration),
		zap.Int("batches", len(state.Batches)),
		zap.String("report_title", state.Report.Title),
	)
	return *state.Report, nil
}

// step executes the stage for the current phase, merges its delta, and
// returns the next phase. The Searching branch is the only place the
// iteration counter moves, exactly once per fan-out round.
func (c *Controller) step(ctx context.Context, phase Phase, state *State, logger *zap.Logger) (Phase, error) {
	stageCtx, span := telemetry.StartSpan(ctx, "stage."+phase.String())
	defer span.End()
	stageStart := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(phase.String()).Observe(time.Since(stageStart).Seconds())
	}()

	switch phase {
	case PhasePlanning:
		delta, err := c.stages.Plan(stageCtx, *state)
		if err != nil {
			return phase, fmt.Errorf("plan stage: %w", err)
		}
		state.apply(delta)
		if len(state.PendingQueries) == 0 {
			return phase, NewInputError("plan produced no queries for topic %q", state.Topic)
		}
		logger.Info("Planning complete", zap.Int("queries", len(state.PendingQueries)))
		return PhaseSearching, nil

	case PhaseSearching:
		delta, err := c.stages.Search(stageCtx, *state)
		if err != nil {
			return phase, fmt.Errorf("search stage: %w", err)
		}
		state.apply(delta)
		state.PendingQueries = nil
		state.Iteration++
		logger.Info("Search round complete",
			zap.Int("iteration", state.Iteration),
			zap.Int("total_batches", len(state.Batches)),
		)
		return PhaseEvaluating, nil

	case PhaseEvaluating:
		delta, outcome, err := c.stages.Evaluate(stageCtx, *state)
		if err != nil {
			return phase, fmt.Errorf("evaluate stage: %w", err)
		}
		state.apply(delta)

		next := Transition(state.Iteration, outcome, c.maxIterations)
		if next == PhaseSearching {
			state.IsComplete = false
			state.PendingQueries = outcome.FollowUpQueries
			logger.Info("Evidence insufficient, looping back to search",
				zap.Int("iteration", state.Iteration),
				zap.Int("follow_up_queries", len(outcome.FollowUpQueries)),
			)
			return next, nil
		}
		state.IsComplete = true
		if !outcome.IsComplete {
			// Iteration budget spent: proceed to writing with what we have.
			metrics.ForcedCompletions.Inc()
			logger.Info("Iteration budget exhausted, forcing completion",
				zap.Int("iteration", state.Iteration),
				zap.Int("max_iterations", c.maxIterations),
			)
		}
		return next, nil

	case PhaseWriting:
		delta, err := c.stages.Write(stageCtx, *state)
		if err != nil {
			return phase, fmt.Errorf("write stage: %w", err)
		}
		state.apply(delta)
		if state.Report == nil {
			return phase, fmt.Errorf("write stage produced no report")
		}
		return PhaseDone, nil

	default:
		return phase, fmt.Errorf("unexpected phase %s", phase)
	}
}
