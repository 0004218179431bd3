package decision

import (
	"context"
	"errors"
	"fmt"
	"math"

	"safe-bets/internal/domain"
	"safe-bets/internal/storage"
)

// Reasons an evaluation is absent. Neither is fatal to a run.
var (
	ErrTeamNotRated = errors.New("team not in rating cache")
	ErrCrossLeague  = errors.New("teams belong to different leagues")
	ErrSameTeam     = errors.New("team cannot play itself")
)

// Evaluator classifies matches from the rating cache.
type Evaluator struct {
	ratings    storage.RatingReader
	thresholds Thresholds
}

// NewEvaluator creates an evaluator. Thresholds are copied and never change afterwards.
func NewEvaluator(ratings storage.RatingReader, thresholds Thresholds) *Evaluator {
	return &Evaluator{ratings: ratings, thresholds: thresholds}
}

// Thresholds returns the table the evaluator was built with.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate looks both teams up and evaluates the match.
func (e *Evaluator) Evaluate(ctx context.Context, teamAID, teamBID int) (*domain.MatchEvaluation, error) {
	if teamAID == teamBID {
		return nil, fmt.Errorf("%w: %d", ErrSameTeam, teamAID)
	}
	a, err := e.lookup(ctx, teamAID)
	if err != nil {
		return nil, err
	}
	b, err := e.lookup(ctx, teamBID)
	if err != nil {
		return nil, err
	}
	return e.EvaluateRatings(a, b)
}

func (e *Evaluator) lookup(ctx context.Context, teamID int) (*domain.TeamRating, error) {
	r, err := e.ratings.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrTeamNotRated, teamID)
		}
		return nil, fmt.Errorf("get rating %d: %w", teamID, err)
	}
	return r, nil
}

// EvaluateRatings evaluates two already-resolved ratings. A is the home side.
func (e *Evaluator) EvaluateRatings(a, b *domain.TeamRating) (*domain.MatchEvaluation, error) {
	if a.LeagueID() != b.LeagueID() {
		return nil, fmt.Errorf("%w: %s (%d) vs %s (%d)",
			ErrCrossLeague, a.TeamName(), a.LeagueID(), b.TeamName(), b.LeagueID())
	}

	overIndex := OverIndex(a.Over15Rate(), b.Over15Rate())
	rsiA := RelativeStrength(a, b)
	flags := e.flags(a, b)

	return &domain.MatchEvaluation{
		TeamA:     domain.TeamRef{ID: a.TeamID(), Name: a.TeamName()},
		TeamB:     domain.TeamRef{ID: b.TeamID(), Name: b.TeamName()},
		LeagueID:  a.LeagueID(),
		OverIndex: overIndex,
		RSIA:      rsiA,
		RSIB:      -rsiA,
		Over:      e.decideOver(overIndex, flags),
		Result:    e.decideResult(rsiA, flags),
		Flags:     flags,
	}, nil
}

// flags raises every caution marker independently.
func (e *Evaluator) flags(a, b *domain.TeamRating) domain.FlagSet {
	var flags domain.FlagSet
	if a.PlayedTotal() < e.thresholds.PlayedMin {
		flags = flags.With(domain.FlagLowSampleA)
	}
	if b.PlayedTotal() < e.thresholds.PlayedMin {
		flags = flags.With(domain.FlagLowSampleB)
	}
	if a.PlayedTotal()+b.PlayedTotal() < e.thresholds.PlayedCombinedMin {
		flags = flags.With(domain.FlagCombinedSampleLow)
	}
	if math.Abs(a.GoalDiffAvg()-b.GoalDiffAvg()) > e.thresholds.LargeGap {
		flags = flags.With(domain.FlagLargeGap)
	}
	return flags
}

// decideOver classifies the +1.5 goals bet. over_index is its own confidence.
func (e *Evaluator) decideOver(overIndex float64, flags domain.FlagSet) domain.Decision {
	ultra, safe := penalized(e.thresholds.UltraOver15, e.thresholds.SafeOver15, flags.AnySampleRelated(), e.thresholds)

	d := domain.Decision{Bet: domain.BetOver15, Tier: domain.TierAvoid, Confidence: overIndex}
	switch {
	case overIndex >= ultra:
		d.Tier = domain.TierUltra
	case overIndex >= safe:
		d.Tier = domain.TierSafe
	}
	return d
}

// decideResult classifies the "X or Draw" bet. A is checked before B, ultra before safe.
// Ultra additionally needs a combined sample that is not thin.
func (e *Evaluator) decideResult(rsiA float64, flags domain.FlagSet) domain.Decision {
	ultra, safe := penalized(e.thresholds.UltraResult, e.thresholds.SafeResult, flags.AnySampleRelated(), e.thresholds)
	ultraAllowed := !flags.Has(domain.FlagCombinedSampleLow)

	sides := []struct {
		side domain.Side
		rsi  float64
	}{
		{domain.SideA, rsiA},
		{domain.SideB, -rsiA},
	}
	for _, s := range sides {
		if ultraAllowed && s.rsi >= ultra {
			return domain.Decision{Bet: domain.BetResult, Tier: domain.TierUltra, Side: s.side, Confidence: math.Abs(s.rsi)}
		}
		if s.rsi >= safe {
			return domain.Decision{Bet: domain.BetResult, Tier: domain.TierSafe, Side: s.side, Confidence: math.Abs(s.rsi)}
		}
	}

	return domain.Decision{
		Bet:        domain.BetResult,
		Tier:       domain.TierAvoid,
		Side:       domain.SideNone,
		Confidence: math.Max(math.Abs(rsiA), math.Abs(-rsiA)),
	}
}
