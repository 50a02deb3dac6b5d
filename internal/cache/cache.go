package cache

import (
	"context"
	"time"
)

// Outcome is the result of one SMS dispatch run.
type Outcome struct {
	JobID       int64     `json:"jobId"`
	Total       int       `json:"total"`
	Failed      int       `json:"failed"`
	Summary     string    `json:"summary"`
	CompletedAt time.Time `json:"completedAt"`
}

type OutcomeCache interface {
	StoreOutcome(ctx context.Context, o Outcome) error
	// LoadOutcome reports false when nothing is cached for the job.
	LoadOutcome(ctx context.Context, jobID int64) (Outcome, bool, error)
}
