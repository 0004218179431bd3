package reporting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safe-bets/internal/domain"
	"safe-bets/internal/idhash"
)

func TestNewRecommendationViews(t *testing.T) {
	e := evaluation("Paris", "Metz", over(domain.TierUltra, 0.9), result(domain.TierUltra, domain.SideA, 0.6),
		domain.FlagSet(0).With(domain.FlagLargeGap))
	views := NewRecommendationViews("2025-10-04", Rank([]*domain.MatchEvaluation{e}, domain.TierUltra, 0))

	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Rank)
	assert.Equal(t, 2, views[1].Rank)
	assert.Equal(t, "ULTRA", views[0].Tier)
	assert.Equal(t, []string{"large_gap"}, views[0].Flags)
	assert.NotEqual(t, views[0].ID, views[1].ID, "one id per bet family")

	evalID := idhash.ComputeEvaluationID("2025-10-04", 39, e.TeamA.ID, e.TeamB.ID)
	assert.Equal(t, idhash.ComputeRecommendationID(evalID, domain.BetOver15), views[0].ID)
}

func TestNewEvaluationViews_EmptyFlagsEncodeAsArray(t *testing.T) {
	e := evaluation("Lyon", "Nice", over(domain.TierAvoid, 0.5), result(domain.TierAvoid, "", 0.1), 0)
	views := NewEvaluationViews("2025-10-04", []*domain.MatchEvaluation{e})

	require.Len(t, views, 1)
	assert.Equal(t, "Avoid", views[0].DecisionOver15)

	data, err := json.Marshal(views[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"flags":[]`)
}

func TestNewHistoryViews(t *testing.T) {
	e := evaluation("Paris", "Metz", over(domain.TierUltra, 0.9), result(domain.TierSafe, domain.SideA, 0.45),
		domain.FlagSet(0).With(domain.FlagLargeGap))
	entry := domain.NewHistoryEntry("abc", "2025-10-04", e)

	views := NewHistoryViews([]*domain.HistoryEntry{&entry})
	require.Len(t, views, 1)
	assert.Equal(t, "abc", views[0].EvaluationID)
	assert.Equal(t, "Paris vs Metz", views[0].Match)
	assert.Equal(t, 0.9, views[0].ConfidenceOver15)
	assert.Equal(t, []string{"large_gap"}, views[0].Flags)
}
