package engine

// SearchResult is a single item returned by the web search boundary.
// RefinedContent is filled in when per-result refinement is enabled;
// otherwise downstream consumers fall back to Content.
type SearchResult struct {
	Title          string `json:"title"`
	Link           string `json:"link"`
	Content        string `json:"content"`
	RefinedContent string `json:"refined_content,omitempty"`
}

// ResultBatch holds the results produced for one query within one search
// round. Batches are append-only: once added to the state they are never
// mutated or reordered.
type ResultBatch struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// EvaluationOutcome is the decision produced by the evaluate stage. It drives
// the conditional transition out of Evaluating.
type EvaluationOutcome struct {
	IsComplete      bool     `json:"is_complete"`
	FollowUpQueries []string `json:"follow_up_queries"`
}

// Report is the terminal artifact of a run.
type Report struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// State is the aggregate record threaded through the stages. It is owned
// exclusively by the Controller for the lifetime of a run; stages receive a
// snapshot and communicate changes back through a Delta.
type State struct {
	Topic          string
	PendingQueries []string
	Batches        []ResultBatch
	// IsComplete is written by the Controller at the Evaluating transition,
	// never by a stage delta.
	IsComplete      bool
	FilteredResults []SearchResult
	Report          *Report
	Iteration       int
}

// Delta is a partial state update returned by a stage. Zero-value fields are
// ignored unless their companion Set flag is true, so a stage only reports
// what it actually changed. Batches are always concatenated, never replaced.
type Delta struct {
	PendingQueries    []string
	SetPendingQueries bool

	Batches []ResultBatch

	FilteredResults    []SearchResult
	SetFilteredResults bool

	Report *Report
}

// apply merges a stage delta into the state. Batch history is extended, not
// replaced; everything else overwrites only when the stage marked it set.
func (s *State) apply(d Delta) {
	if d.SetPendingQueries {
		s.PendingQueries = d.PendingQueries
	}
	if len(d.Batches) > 0 {
		s.Batches = append(s.Batches, d.Batches...)
	}
	if d.SetFilteredResults {
		s.FilteredResults = d.FilteredResults
	}
	if d.Report != nil {
		s.Report = d.Report
	}
}
