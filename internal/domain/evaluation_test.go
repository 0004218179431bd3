package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecision_Label(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{Decision{Bet: BetOver15, Tier: TierUltra}, "UltraSafe +1.5"},
		{Decision{Bet: BetOver15, Tier: TierSafe}, "Safe +1.5"},
		{Decision{Bet: BetOver15, Tier: TierAvoid}, "Avoid"},
		{Decision{Bet: BetResult, Tier: TierUltra, Side: SideA}, "UltraSafe A or Draw"},
		{Decision{Bet: BetResult, Tier: TierSafe, Side: SideB}, "Safe B or Draw"},
		{Decision{Bet: BetResult, Tier: TierAvoid}, "Avoid"},
	}
	for _, tt := range tests {
		if got := tt.d.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestDecision_Actionable(t *testing.T) {
	ultra := Decision{Tier: TierUltra}
	safe := Decision{Tier: TierSafe}
	avoid := Decision{Tier: TierAvoid}

	assert.True(t, ultra.Actionable(TierUltra))
	assert.False(t, safe.Actionable(TierUltra))
	assert.True(t, safe.Actionable(TierSafe))
	assert.False(t, avoid.Actionable(TierSafe))
	assert.False(t, avoid.Actionable(TierAvoid), "avoid is never actionable")
}

func TestFlag_SampleRelatedIsExhaustive(t *testing.T) {
	related := map[Flag]bool{
		FlagLowSampleA:        true,
		FlagLowSampleB:        true,
		FlagCombinedSampleLow: true,
		FlagLargeGap:          false,
	}
	require.Len(t, related, len(AllFlags))
	for _, f := range AllFlags {
		want, ok := related[f]
		require.True(t, ok, "flag %s missing from table", f)
		assert.Equal(t, want, f.SampleRelated(), f.String())
	}
}

func TestFlagSet_StringRoundTrip(t *testing.T) {
	var s FlagSet
	assert.True(t, s.Empty())
	assert.Equal(t, "", s.String())

	s = s.With(FlagLargeGap).With(FlagLowSampleA)
	assert.Equal(t, "low_sample_a|large_gap", s.String())
	assert.True(t, s.AnySampleRelated())

	parsed, err := ParseFlagSet(s.String())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	_, err = ParseFlagSet("low_sample_a|bogus")
	assert.Error(t, err)
}

func TestFlagSet_LargeGapAloneIsNotSampleRelated(t *testing.T) {
	s := FlagSet(0).With(FlagLargeGap)
	assert.False(t, s.AnySampleRelated())
}

func TestMatchResult_Settlement(t *testing.T) {
	r := MatchResult{HomeTeam: "A", AwayTeam: "B", HomeGoals: 1, AwayGoals: 1}
	assert.Equal(t, OutcomeWin, r.Over15())
	assert.Equal(t, OutcomeWin, r.HomeOrDraw())
	assert.Equal(t, OutcomeWin, r.AwayOrDraw())

	r = MatchResult{HomeTeam: "A", AwayTeam: "B", HomeGoals: 0, AwayGoals: 1}
	assert.Equal(t, OutcomeLoss, r.Over15())
	assert.Equal(t, OutcomeLoss, r.HomeOrDraw())
	assert.Equal(t, OutcomeWin, r.AwayOrDraw())
}

func TestNormalizeMatchLabel(t *testing.T) {
	assert.Equal(t,
		NormalizeMatchLabel("Paris Saint-Germain vs Lyon"),
		NormalizeMatchLabel("paris saint germain v  lyon"))
}

func TestResultSideFromLabel(t *testing.T) {
	for _, side := range []Side{SideA, SideB} {
		for _, tier := range []Tier{TierSafe, TierUltra} {
			label := Decision{Bet: BetResult, Tier: tier, Side: side}.Label()
			if got := ResultSideFromLabel(label); got != side {
				t.Errorf("ResultSideFromLabel(%q) = %q, want %q", label, got, side)
			}
		}
	}
	if got := ResultSideFromLabel(LabelAvoid); got != SideNone {
		t.Errorf("ResultSideFromLabel(Avoid) = %q", got)
	}
}
