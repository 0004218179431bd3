package blend

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned when a weight pair is unusable.
var ErrInvalidWeights = errors.New("invalid blend weights")

// Weights decides how much of each season a rating takes.
type Weights struct {
	EarlySeasonPlayed float64 // current played_total below this is "early season"

	EarlyCurrent float64
	EarlyPrior   float64

	StandardCurrent float64
	StandardPrior   float64
}

// DefaultWeights leans on the prior season until eight matches are played.
func DefaultWeights() Weights {
	return Weights{
		EarlySeasonPlayed: 8,
		EarlyCurrent:      0.3,
		EarlyPrior:        0.7,
		StandardCurrent:   0.7,
		StandardPrior:     0.3,
	}
}

// Validate checks each pair is non-negative and sums to one.
func (w Weights) Validate() error {
	if w.EarlySeasonPlayed < 0 {
		return fmt.Errorf("%w: early_season_played must be >= 0", ErrInvalidWeights)
	}
	pairs := []struct {
		name    string
		current float64
		prior   float64
	}{
		{"early", w.EarlyCurrent, w.EarlyPrior},
		{"standard", w.StandardCurrent, w.StandardPrior},
	}
	for _, p := range pairs {
		if p.current < 0 || p.prior < 0 {
			return fmt.Errorf("%w: %s weights must be >= 0", ErrInvalidWeights, p.name)
		}
		if math.Abs(p.current+p.prior-1) > 1e-9 {
			return fmt.Errorf("%w: %s weights sum to %.4f", ErrInvalidWeights, p.name, p.current+p.prior)
		}
	}
	return nil
}

// For returns the current and prior weights for a team with playedCurrent matches
// in the current season.
func (w Weights) For(playedCurrent float64) (float64, float64) {
	if playedCurrent < w.EarlySeasonPlayed {
		return w.EarlyCurrent, w.EarlyPrior
	}
	return w.StandardCurrent, w.StandardPrior
}
