package scenario

import "time"

// Outcome classifies how an item ended.
type Outcome string

const (
	OutcomeReused    Outcome = "reused"
	OutcomeGenerated Outcome = "generated"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult is the per-item entry in a run report.
type ItemResult struct {
	Index       int
	Kind        string
	SourcePath  string
	Fingerprint string
	Outcome     Outcome
	Location    string
	// StaleRecovered marks a generation that replaced a manifest entry whose
	// artifact had gone missing.
	StaleRecovered bool
	Err            error
}

// Report aggregates the outcomes of one scenario run.
type Report struct {
	RunID      string
	Scenario   string
	WorkingDir string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []ItemResult
}

// Counts returns the number of reused, generated, and failed items.
func (r *Report) Counts() (reused, generated, failed int) {
	for _, item := range r.Items {
		switch item.Outcome {
		case OutcomeReused:
			reused++
		case OutcomeGenerated:
			generated++
		case OutcomeFailed:
			failed++
		}
	}
	return reused, generated, failed
}

// AllFailed reports whether every item failed.
func (r *Report) AllFailed() bool {
	if len(r.Items) == 0 {
		return false
	}
	_, _, failed := r.Counts()
	return failed == len(r.Items)
}
