package pipeline

import (
	"context"

	"safe-bets/internal/domain"
)

// Result is the outcome of one engine run.
type Result struct {
	RunDate         string
	CurrentSeason   string
	PriorSeason     string // empty when only one season is loaded
	Ratings         int
	TeamsSkipped    int
	Pairs           int
	Absent          int
	Evaluations     []*domain.MatchEvaluation
	History         []*domain.HistoryEntry
	Recommendations []domain.Recommendation
}

// Publisher delivers a finished run somewhere outside the process.
// Delivery failures are logged and never fail the run.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, res *Result) error
}
