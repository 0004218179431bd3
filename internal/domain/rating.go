package domain

import (
	"errors"
	"math"
)

// Reliability estimation constants used when the raw counts are unknown.
const (
	reliabilityGoalScale   = 1.5
	maxEstimatedAttackRate = 0.95
)

// TeamRating validation errors.
var (
	ErrInvalidTeamID      = errors.New("team id must be non-zero")
	ErrNegativePlayed     = errors.New("played_total must be >= 0")
	ErrNegativeWins       = errors.New("wins_total must be >= 0")
	ErrWinsExceedPlayed   = errors.New("wins_total exceeds played_total")
	ErrNegativeGoalAvg    = errors.New("goal averages must be >= 0")
	ErrNegativeCount      = errors.New("clean sheet and failed-to-score counts must be >= 0")
	ErrInvalidOverRate    = errors.New("over_1_5_rate must be within [0, 1]")
	ErrNonFiniteStatistic = errors.New("statistics must be finite")
)

// RatingInput is the blended statistics a TeamRating is built from.
type RatingInput struct {
	TeamID   int
	TeamName string
	LeagueID int

	PlayedTotal     float64
	WinsTotal       float64
	GoalsForAvg     float64
	GoalsAgainstAvg float64

	CleanSheetsTotal   *float64 // nil when neither season reported it
	FailedToScoreTotal *float64 // nil when neither season reported it
	Over15Rate         float64  // blended or estimated, always set
}

// TeamRating is a team's blended, season-weighted profile.
// It is built once by NewTeamRating and cannot be modified afterwards.
type TeamRating struct {
	teamID   int
	teamName string
	leagueID int

	playedTotal     float64
	winsTotal       float64
	goalsForAvg     float64
	goalsAgainstAvg float64

	cleanSheetsTotal   *float64
	failedToScoreTotal *float64
	over15Rate         float64

	winRate            float64
	goalDiffAvg        float64
	reliabilityAttack  float64
	reliabilityDefense float64
	attackExact        bool
	defenseExact       bool
}

// NewTeamRating validates the input and computes every derived metric.
func NewTeamRating(in RatingInput) (*TeamRating, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	r := &TeamRating{
		teamID:          in.TeamID,
		teamName:        in.TeamName,
		leagueID:        in.LeagueID,
		playedTotal:     in.PlayedTotal,
		winsTotal:       in.WinsTotal,
		goalsForAvg:     in.GoalsForAvg,
		goalsAgainstAvg: in.GoalsAgainstAvg,
		over15Rate:      in.Over15Rate,
	}
	if in.CleanSheetsTotal != nil {
		v := *in.CleanSheetsTotal
		r.cleanSheetsTotal = &v
	}
	if in.FailedToScoreTotal != nil {
		v := *in.FailedToScoreTotal
		r.failedToScoreTotal = &v
	}

	r.winRate = in.WinsTotal / math.Max(in.PlayedTotal, 1)
	r.goalDiffAvg = in.GoalsForAvg - in.GoalsAgainstAvg

	if in.FailedToScoreTotal != nil && in.PlayedTotal > 0 {
		r.reliabilityAttack = 1 - *in.FailedToScoreTotal/in.PlayedTotal
		r.attackExact = true
	} else {
		r.reliabilityAttack = math.Min(in.GoalsForAvg/reliabilityGoalScale, maxEstimatedAttackRate)
	}

	if in.CleanSheetsTotal != nil && in.PlayedTotal > 0 {
		r.reliabilityDefense = *in.CleanSheetsTotal / in.PlayedTotal
		r.defenseExact = true
	} else {
		r.reliabilityDefense = math.Max(0, 1-in.GoalsAgainstAvg/reliabilityGoalScale)
	}

	return r, nil
}

func (in RatingInput) validate() error {
	if in.TeamID == 0 {
		return ErrInvalidTeamID
	}
	for _, v := range []float64{in.PlayedTotal, in.WinsTotal, in.GoalsForAvg, in.GoalsAgainstAvg, in.Over15Rate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteStatistic
		}
	}
	if in.PlayedTotal < 0 {
		return ErrNegativePlayed
	}
	if in.WinsTotal < 0 {
		return ErrNegativeWins
	}
	if in.WinsTotal > in.PlayedTotal {
		return ErrWinsExceedPlayed
	}
	if in.GoalsForAvg < 0 || in.GoalsAgainstAvg < 0 {
		return ErrNegativeGoalAvg
	}
	if (in.CleanSheetsTotal != nil && *in.CleanSheetsTotal < 0) ||
		(in.FailedToScoreTotal != nil && *in.FailedToScoreTotal < 0) {
		return ErrNegativeCount
	}
	if in.Over15Rate < 0 || in.Over15Rate > 1 {
		return ErrInvalidOverRate
	}
	return nil
}

func (r *TeamRating) TeamID() int { return r.teamID }
func (r *TeamRating) TeamName() string { return r.teamName }
func (r *TeamRating) LeagueID() int { return r.leagueID }
func (r *TeamRating) PlayedTotal() float64 { return r.playedTotal }
func (r *TeamRating) WinsTotal() float64 { return r.winsTotal }
func (r *TeamRating) GoalsForAvg() float64 { return r.goalsForAvg }
func (r *TeamRating) GoalsAgainstAvg() float64 { return r.goalsAgainstAvg }
func (r *TeamRating) Over15Rate() float64 { return r.over15Rate }
func (r *TeamRating) WinRate() float64 { return r.winRate }
func (r *TeamRating) GoalDiffAvg() float64 { return r.goalDiffAvg }

// CleanSheetsTotal returns the blended count and whether any season reported it.
func (r *TeamRating) CleanSheetsTotal() (float64, bool) {
	if r.cleanSheetsTotal == nil {
		return 0, false
	}
	return *r.cleanSheetsTotal, true
}

// FailedToScoreTotal returns the blended count and whether any season reported it.
func (r *TeamRating) FailedToScoreTotal() (float64, bool) {
	if r.failedToScoreTotal == nil {
		return 0, false
	}
	return *r.failedToScoreTotal, true
}

// ReliabilityAttack is the share of matches the team scores in.
// The second value is false when it was estimated from the goal average.
func (r *TeamRating) ReliabilityAttack() (float64, bool) {
	return r.reliabilityAttack, r.attackExact
}

// ReliabilityDefense is the share of matches the team keeps a clean sheet in.
// The second value is false when it was estimated from the goal average.
func (r *TeamRating) ReliabilityDefense() (float64, bool) {
	return r.reliabilityDefense, r.defenseExact
}
