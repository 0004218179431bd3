// Package blend merges a team's current and prior season statistics into one rating.
package blend

import (
	"errors"
	"fmt"
	"log"
	"math"

	"safe-bets/internal/domain"
)

// Reasons a team gets no rating.
var (
	ErrNoUsableRecord = errors.New("no usable record in either season")
	ErrZeroPlayed     = errors.New("blended played_total is zero")
)

// Over-rate estimate used when neither season reports one.
const (
	minEstimatedOverRate = 0.30
	maxEstimatedOverRate = 0.95
	overRateGoalScale    = 3.0
)

// RecordSource looks up raw season records.
type RecordSource interface {
	Lookup(teamID int, season string) (*domain.SeasonRecord, bool)
	TeamIDs() []int
}

// Blender builds ratings for one current/prior season pair.
type Blender struct {
	source  RecordSource
	current string
	prior   string
	weights Weights
	logger  *log.Logger
}

// NewBlender creates a blender. prior may be empty when only one season is known.
func NewBlender(source RecordSource, current, prior string, weights Weights) *Blender {
	return &Blender{
		source:  source,
		current: current,
		prior:   prior,
		weights: weights,
		logger:  log.Default(),
	}
}

// WithLogger sets the logger used for skipped teams.
func (b *Blender) WithLogger(logger *log.Logger) *Blender {
	b.logger = logger
	return b
}

// Blend builds the rating of one team.
func (b *Blender) Blend(teamID int) (*domain.TeamRating, error) {
	current, _ := b.source.Lookup(teamID, b.current)
	var prior *domain.SeasonRecord
	if b.prior != "" {
		prior, _ = b.source.Lookup(teamID, b.prior)
	}
	r, capped, err := blendRecords(current, prior, b.weights)
	if err == nil && capped {
		b.logger.Printf("WARN: team %d: blended wins_total capped at played_total %.2f", teamID, r.PlayedTotal())
	}
	return r, err
}

// BlendAll builds every rating the source allows, ascending by team ID.
// Teams that cannot be rated are logged and counted.
func (b *Blender) BlendAll() ([]*domain.TeamRating, int) {
	var ratings []*domain.TeamRating
	skipped := 0
	for _, id := range b.source.TeamIDs() {
		r, err := b.Blend(id)
		if err != nil {
			skipped++
			b.logger.Printf("WARN: team %d skipped: %v", id, err)
			continue
		}
		ratings = append(ratings, r)
	}
	return ratings, skipped
}

// BlendRecords merges two season records. Either may be nil.
//
// Each field is weighted when both seasons report it, taken as-is when one does,
// and otherwise left at zero (counts, averages) or absent (optional counts).
// Weights depend on the current season's played_total.
//
// When only one season reports wins, the blended wins_total can exceed the
// blended played_total. It is capped at played_total so win_rate stays within
// [0,1]. A season that itself reports more wins than games is still rejected.
func BlendRecords(current, prior *domain.SeasonRecord, weights Weights) (*domain.TeamRating, error) {
	r, _, err := blendRecords(current, prior, weights)
	return r, err
}

func blendRecords(current, prior *domain.SeasonRecord, weights Weights) (*domain.TeamRating, bool, error) {
	if !current.Usable() {
		current = nil
	}
	if !prior.Usable() {
		prior = nil
	}
	if current == nil && prior == nil {
		return nil, false, ErrNoUsableRecord
	}

	meta := current
	if meta == nil {
		meta = prior
	}

	var cur, pri domain.SeasonStats
	playedCurrent := 0.0
	if current != nil {
		cur = current.Stats
		playedCurrent = *cur.PlayedTotal
	}
	if prior != nil {
		pri = prior.Stats
	}
	wc, wp := weights.For(playedCurrent)

	mix := func(c, p *float64) *float64 {
		switch {
		case c != nil && p != nil:
			v := wc*(*c) + wp*(*p)
			return &v
		case c != nil:
			v := *c
			return &v
		case p != nil:
			v := *p
			return &v
		}
		return nil
	}

	in := domain.RatingInput{
		TeamID:             meta.TeamID,
		TeamName:           meta.TeamName,
		LeagueID:           meta.LeagueID,
		PlayedTotal:        orZero(mix(cur.PlayedTotal, pri.PlayedTotal)),
		WinsTotal:          orZero(mix(cur.WinsTotal, pri.WinsTotal)),
		GoalsForAvg:        orZero(mix(cur.GoalsForAvg, pri.GoalsForAvg)),
		GoalsAgainstAvg:    orZero(mix(cur.GoalsAgainstAvg, pri.GoalsAgainstAvg)),
		CleanSheetsTotal:   mix(cur.CleanSheetsTotal, pri.CleanSheetsTotal),
		FailedToScoreTotal: mix(cur.FailedToScoreTotal, pri.FailedToScoreTotal),
	}
	if in.PlayedTotal == 0 {
		return nil, false, ErrZeroPlayed
	}

	capped := false
	if in.WinsTotal > in.PlayedTotal && consistent(cur) && consistent(pri) {
		in.WinsTotal = in.PlayedTotal
		capped = true
	}

	if over := mix(cur.Over15Rate, pri.Over15Rate); over != nil {
		in.Over15Rate = *over
	} else {
		in.Over15Rate = EstimateOverRate(in.GoalsForAvg, in.GoalsAgainstAvg)
	}

	r, err := domain.NewTeamRating(in)
	if err != nil {
		return nil, false, fmt.Errorf("team %d: %w", in.TeamID, err)
	}
	return r, capped, nil
}

// EstimateOverRate approximates the over-1.5 rate from goal averages.
func EstimateOverRate(goalsForAvg, goalsAgainstAvg float64) float64 {
	v := (goalsForAvg + goalsAgainstAvg) / overRateGoalScale
	return math.Min(maxEstimatedOverRate, math.Max(minEstimatedOverRate, v))
}

// consistent reports whether a season's own wins fit in its games played.
func consistent(s domain.SeasonStats) bool {
	return s.WinsTotal == nil || s.PlayedTotal == nil || *s.WinsTotal <= *s.PlayedTotal
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
