package decision

import (
	"errors"
	"fmt"
)

// Threshold validation errors.
var (
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvertedTiers    = errors.New("safe threshold above ultra threshold")
)

// Thresholds holds the decision tree cut points.
// Six of them are the user-tunable table; the penalties and gap are fixed defaults
// that can still be overridden from configuration.
type Thresholds struct {
	UltraOver15       float64 // over_index cut for UltraSafe +1.5
	SafeOver15        float64 // over_index cut for Safe +1.5
	UltraResult       float64 // |RSI| cut for UltraSafe X or Draw
	SafeResult        float64 // |RSI| cut for Safe X or Draw
	PlayedMin         float64 // per-team played_total below this raises low_sample_<side>
	PlayedCombinedMin float64 // sum of played_total below this raises combined_sample_low

	UltraPenalty float64 // added to both ultra cuts when a sample flag is raised
	SafePenalty  float64 // added to both safe cuts when a sample flag is raised
	LargeGap     float64 // |goal_diff_avg delta| above this raises large_gap
}

// DefaultThresholds returns the built-in decision table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		UltraOver15:       0.78,
		SafeOver15:        0.68,
		UltraResult:       0.55,
		SafeResult:        0.40,
		PlayedMin:         6,
		PlayedCombinedMin: 10,
		UltraPenalty:      0.05,
		SafePenalty:       0.03,
		LargeGap:          2.0,
	}
}

// Validate checks the table is usable by the decision tree.
func (t Thresholds) Validate() error {
	cuts := []struct {
		name  string
		value float64
	}{
		{"ultrasafe_over15", t.UltraOver15},
		{"safe_over15", t.SafeOver15},
		{"ultrasafe_result", t.UltraResult},
		{"safe_result", t.SafeResult},
	}
	for _, c := range cuts {
		if c.value <= 0 || c.value > 1 {
			return fmt.Errorf("%w: %s=%.4f must be in (0, 1]", ErrInvalidThreshold, c.name, c.value)
		}
	}
	if t.SafeOver15 > t.UltraOver15 {
		return fmt.Errorf("%w: over15 %.4f > %.4f", ErrInvertedTiers, t.SafeOver15, t.UltraOver15)
	}
	if t.SafeResult > t.UltraResult {
		return fmt.Errorf("%w: result %.4f > %.4f", ErrInvertedTiers, t.SafeResult, t.UltraResult)
	}
	if t.PlayedMin < 0 || t.PlayedCombinedMin < 0 {
		return fmt.Errorf("%w: sample minimums must be >= 0", ErrInvalidThreshold)
	}
	if t.UltraPenalty < 0 || t.SafePenalty < 0 {
		return fmt.Errorf("%w: penalties must be >= 0", ErrInvalidThreshold)
	}
	if t.LargeGap <= 0 {
		return fmt.Errorf("%w: large_gap must be > 0", ErrInvalidThreshold)
	}
	return nil
}

// penalized returns the ultra and safe cuts after the sample penalty, if any.
func penalized(ultra, safe float64, penalty bool, t Thresholds) (float64, float64) {
	if !penalty {
		return ultra, safe
	}
	return ultra + t.UltraPenalty, safe + t.SafePenalty
}
