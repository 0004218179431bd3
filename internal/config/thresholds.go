package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"safe-bets/internal/blend"
	"safe-bets/internal/decision"
)

// ThresholdsOverride is a partial decision table. Unset keys keep their base value.
type ThresholdsOverride struct {
	UltraOver15       *float64 `yaml:"ultrasafe_over15"`
	SafeOver15        *float64 `yaml:"safe_over15"`
	UltraResult       *float64 `yaml:"ultrasafe_result"`
	SafeResult        *float64 `yaml:"safe_result"`
	PlayedMin         *float64 `yaml:"played_min"`
	PlayedCombinedMin *float64 `yaml:"played_combine_min"`
	UltraPenalty      *float64 `yaml:"ultra_penalty"`
	SafePenalty       *float64 `yaml:"safe_penalty"`
	LargeGap          *float64 `yaml:"large_gap"`
}

// Apply returns base with every set key replaced.
func (o ThresholdsOverride) Apply(base decision.Thresholds) decision.Thresholds {
	set(&base.UltraOver15, o.UltraOver15)
	set(&base.SafeOver15, o.SafeOver15)
	set(&base.UltraResult, o.UltraResult)
	set(&base.SafeResult, o.SafeResult)
	set(&base.PlayedMin, o.PlayedMin)
	set(&base.PlayedCombinedMin, o.PlayedCombinedMin)
	set(&base.UltraPenalty, o.UltraPenalty)
	set(&base.SafePenalty, o.SafePenalty)
	set(&base.LargeGap, o.LargeGap)
	return base
}

// BlendOverride is a partial season weight table.
type BlendOverride struct {
	EarlySeasonPlayed *float64 `yaml:"early_season_played"`
	EarlyCurrent      *float64 `yaml:"early_current"`
	EarlyPrior        *float64 `yaml:"early_prior"`
	StandardCurrent   *float64 `yaml:"standard_current"`
	StandardPrior     *float64 `yaml:"standard_prior"`
}

// Apply returns base with every set key replaced.
func (o BlendOverride) Apply(base blend.Weights) blend.Weights {
	set(&base.EarlySeasonPlayed, o.EarlySeasonPlayed)
	set(&base.EarlyCurrent, o.EarlyCurrent)
	set(&base.EarlyPrior, o.EarlyPrior)
	set(&base.StandardCurrent, o.StandardCurrent)
	set(&base.StandardPrior, o.StandardPrior)
	return base
}

func set(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// LoadThresholds reads a flat override file (YAML or JSON) over base.
// On error it returns base unchanged alongside the error; callers warn and continue.
func LoadThresholds(path string, base decision.Thresholds) (decision.Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read thresholds %s: %w", path, err)
	}

	var o ThresholdsOverride
	if err := yaml.Unmarshal(data, &o); err != nil {
		return base, fmt.Errorf("parse thresholds %s: %w", path, err)
	}

	t := o.Apply(base)
	if err := t.Validate(); err != nil {
		return base, fmt.Errorf("thresholds %s: %w", path, err)
	}
	return t, nil
}
