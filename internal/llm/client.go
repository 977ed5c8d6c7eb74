package llm

import "context"

// Tier selects a model capability class. Higher tiers trade rate budget for
// reasoning quality; callers pick the cheapest tier that can do the job.
type Tier string

const (
	// TierPremiumPlus handles complex reasoning: planning and final writing.
	TierPremiumPlus Tier = "premium_plus"
	// TierPremium handles evaluation.
	TierPremium Tier = "premium"
	// TierStandard handles structured-data extraction and filtering.
	TierStandard Tier = "standard"
	// TierBasic handles high-volume summarization.
	TierBasic Tier = "basic"
)

// Options carries per-call generation knobs.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client is the text completion boundary. Implementations return an error on
// any failure; callers are expected to recover with stage-local fallbacks
// rather than aborting the run.
type Client interface {
	Complete(ctx context.Context, prompt string, tier Tier, opts Options) (string, error)
}
