package engine

// Store provides the merge and deduplication operations over the batch
// history accumulated by a run. All operations are pure: they never mutate
// the underlying batches and always return fresh slices.
type Store struct {
	batches []ResultBatch
}

// NewStore creates a store over an existing batch sequence. The slice is
// used as-is; callers hand over ownership.
func NewStore(batches []ResultBatch) *Store {
	return &Store{batches: batches}
}

// Append extends the batch sequence with one batch. Existing order is
// preserved; nothing is ever removed or reordered.
func (s *Store) Append(batch ResultBatch) {
	s.batches = append(s.batches, batch)
}

// Batches returns the current batch sequence.
func (s *Store) Batches() []ResultBatch {
	return s.batches
}

// Flatten concatenates all batches' results in batch order, then per-batch
// order.
func (s *Store) Flatten() []SearchResult {
	var out []SearchResult
	for _, b := range s.batches {
		out = append(out, b.Results...)
	}
	return out
}

// DedupByLink removes duplicate results, first-seen-wins, keyed on the
// literal Link value. An empty Link is deliberately treated as just another
// key: multiple results without a link collapse into one. That matches the
// historical merge behavior and downstream consumers rely on the resulting
// ordering, so it stays this way.
func (s *Store) DedupByLink() []SearchResult {
	return DedupByLink(s.Flatten())
}

// DedupByLink is the free-function form used on already-flattened sequences.
// It is idempotent: applying it twice yields the same sequence as once.
func DedupByLink(results []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		out = append(out, r)
	}
	return out
}
