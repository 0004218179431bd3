package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safe-bets/internal/domain"
)

func TestRank_UltraOnly(t *testing.T) {
	evals := []*domain.MatchEvaluation{
		evaluation("Lyon", "Nice", over(domain.TierSafe, 0.70), result(domain.TierAvoid, "", 0.10), 0),
		evaluation("Paris", "Metz", over(domain.TierUltra, 0.85), result(domain.TierUltra, domain.SideA, 0.60), 0),
		evaluation("Lens", "Brest", over(domain.TierAvoid, 0.50), result(domain.TierAvoid, "", 0.30), 0),
	}

	recs := Rank(evals, domain.TierUltra, 0)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.BetOver15, recs[0].Bet)
	assert.Equal(t, "Paris vs Metz", recs[0].Match)
	assert.Equal(t, domain.BetResult, recs[1].Bet)
	assert.Equal(t, "UltraSafe A or Draw", recs[1].Decision)
}

func TestRank_UltraOrSafe(t *testing.T) {
	evals := []*domain.MatchEvaluation{
		evaluation("Lyon", "Nice", over(domain.TierSafe, 0.70), result(domain.TierSafe, domain.SideB, 0.45), 0),
		evaluation("Paris", "Metz", over(domain.TierUltra, 0.85), result(domain.TierAvoid, "", 0.20), 0),
	}

	recs := Rank(evals, domain.TierSafe, 0)
	require.Len(t, recs, 3)
	assert.InDelta(t, 0.85, recs[0].Confidence, 1e-9)
	assert.InDelta(t, 0.70, recs[1].Confidence, 1e-9)
	assert.InDelta(t, 0.45, recs[2].Confidence, 1e-9)
	assert.Equal(t, "Safe B or Draw", recs[2].Decision)
}

func TestRank_StableTies(t *testing.T) {
	evals := []*domain.MatchEvaluation{
		evaluation("First", "X", over(domain.TierUltra, 0.80), result(domain.TierUltra, domain.SideA, 0.80), 0),
		evaluation("Second", "Y", over(domain.TierUltra, 0.80), result(domain.TierAvoid, "", 0.10), 0),
	}

	recs := Rank(evals, domain.TierUltra, 0)
	require.Len(t, recs, 3)
	assert.Equal(t, "First vs X", recs[0].Match)
	assert.Equal(t, domain.BetOver15, recs[0].Bet)
	assert.Equal(t, "First vs X", recs[1].Match)
	assert.Equal(t, domain.BetResult, recs[1].Bet)
	assert.Equal(t, "Second vs Y", recs[2].Match)
}

func TestRank_TopN(t *testing.T) {
	evals := []*domain.MatchEvaluation{
		evaluation("A", "B", over(domain.TierUltra, 0.80), result(domain.TierAvoid, "", 0), 0),
		evaluation("C", "D", over(domain.TierUltra, 0.90), result(domain.TierAvoid, "", 0), 0),
		evaluation("E", "F", over(domain.TierUltra, 0.85), result(domain.TierAvoid, "", 0), 0),
	}

	recs := Rank(evals, domain.TierUltra, 2)
	require.Len(t, recs, 2)
	assert.Equal(t, "C vs D", recs[0].Match)
	assert.Equal(t, "E vs F", recs[1].Match)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, domain.TierUltra, 0))
	assert.Empty(t, Rank([]*domain.MatchEvaluation{nil}, domain.TierSafe, 5))
}

func TestCountByTier(t *testing.T) {
	evals := []*domain.MatchEvaluation{
		evaluation("A", "B", over(domain.TierUltra, 0.80), result(domain.TierAvoid, "", 0), 0),
		evaluation("C", "D", over(domain.TierSafe, 0.70), result(domain.TierSafe, domain.SideA, 0.45), 0),
	}

	counts := CountByTier(evals)
	assert.Equal(t, 1, counts[domain.TierUltra])
	assert.Equal(t, 2, counts[domain.TierSafe])
	assert.Equal(t, 1, counts[domain.TierAvoid])
}
