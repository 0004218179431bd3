package reporting

import (
	"time"

	"safe-bets/internal/decision"
	"safe-bets/internal/domain"
)

// Generator assembles daily reports.
type Generator struct {
	thresholds decision.Thresholds
	minTier    domain.Tier
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator for the given decision table.
func NewGenerator(thresholds decision.Thresholds, minTier domain.Tier) *Generator {
	return &Generator{
		thresholds: thresholds,
		minTier:    minTier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of one run.
func (g *Generator) Generate(runDate string, summary RunSummary, evals []*domain.MatchEvaluation, recs []domain.Recommendation) *Report {
	return &Report{
		GeneratedAt:     g.now(),
		RunDate:         runDate,
		Thresholds:      g.thresholds,
		MinTier:         g.minTier,
		Summary:         summary,
		TierCounts:      CountByTier(evals),
		Recommendations: recs,
		Evaluations:     evals,
	}
}
