package blend

import (
	"bytes"
	"log"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safe-bets/internal/domain"
)

func f(v float64) *float64 { return &v }

type fakeSource map[int]map[string]*domain.SeasonRecord

func (s fakeSource) Lookup(teamID int, season string) (*domain.SeasonRecord, bool) {
	r, ok := s[teamID][season]
	return r, ok
}

func (s fakeSource) TeamIDs() []int {
	var ids []int
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func record(teamID int, name, season string, stats domain.SeasonStats) *domain.SeasonRecord {
	return &domain.SeasonRecord{TeamID: teamID, TeamName: name, LeagueID: 39, Season: season, Stats: stats}
}

func TestBlendRecords_WeightedAverage(t *testing.T) {
	current := record(1, "Now", "2025", domain.SeasonStats{
		PlayedTotal: f(10), WinsTotal: f(6), GoalsForAvg: f(2.0), GoalsAgainstAvg: f(1.0), Over15Rate: f(0.8),
	})
	prior := record(1, "Then", "2024", domain.SeasonStats{
		PlayedTotal: f(38), WinsTotal: f(19), GoalsForAvg: f(1.0), GoalsAgainstAvg: f(1.5), Over15Rate: f(0.6),
	})

	r, err := BlendRecords(current, prior, DefaultWeights())
	require.NoError(t, err)

	// played_current=10 >= 8: standard weights 0.7 / 0.3
	assert.InDelta(t, 0.7*10+0.3*38, r.PlayedTotal(), 1e-9)
	assert.InDelta(t, 0.7*6+0.3*19, r.WinsTotal(), 1e-9)
	assert.InDelta(t, 0.7*2.0+0.3*1.0, r.GoalsForAvg(), 1e-9)
	assert.InDelta(t, 0.7*1.0+0.3*1.5, r.GoalsAgainstAvg(), 1e-9)
	assert.InDelta(t, 0.7*0.8+0.3*0.6, r.Over15Rate(), 1e-9)
	assert.Equal(t, "Now", r.TeamName(), "metadata comes from the current season")

	// Every blended field lies between its two inputs.
	assert.True(t, r.GoalsForAvg() >= 1.0 && r.GoalsForAvg() <= 2.0)
	assert.True(t, r.Over15Rate() >= 0.6 && r.Over15Rate() <= 0.8)
}

func TestBlendRecords_EarlySeasonFavoursPrior(t *testing.T) {
	current := record(1, "A", "2025", domain.SeasonStats{PlayedTotal: f(3), WinsTotal: f(3), GoalsForAvg: f(3.0), GoalsAgainstAvg: f(0)})
	prior := record(1, "A", "2024", domain.SeasonStats{PlayedTotal: f(38), WinsTotal: f(10), GoalsForAvg: f(1.0), GoalsAgainstAvg: f(1.0)})

	r, err := BlendRecords(current, prior, DefaultWeights())
	require.NoError(t, err)
	assert.InDelta(t, 0.3*3+0.7*38, r.PlayedTotal(), 1e-9)
	assert.InDelta(t, 0.3*3.0+0.7*1.0, r.GoalsForAvg(), 1e-9)
}

func TestBlendRecords_SingleSeasonUnweighted(t *testing.T) {
	prior := record(2, "Old", "2024", domain.SeasonStats{
		PlayedTotal: f(30), WinsTotal: f(12), GoalsForAvg: f(1.4), GoalsAgainstAvg: f(1.2), CleanSheetsTotal: f(9),
	})

	r, err := BlendRecords(nil, prior, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 30.0, r.PlayedTotal())
	assert.Equal(t, 1.4, r.GoalsForAvg())
	assert.Equal(t, "Old", r.TeamName())

	cs, ok := r.CleanSheetsTotal()
	assert.True(t, ok)
	assert.Equal(t, 9.0, cs)
	_, ok = r.FailedToScoreTotal()
	assert.False(t, ok, "absent optional count stays absent")
}

func TestBlendRecords_FieldFromOneSeasonOnly(t *testing.T) {
	current := record(3, "C", "2025", domain.SeasonStats{PlayedTotal: f(12), WinsTotal: f(6), GoalsForAvg: f(1.5), GoalsAgainstAvg: f(1.0)})
	prior := record(3, "C", "2024", domain.SeasonStats{PlayedTotal: f(38), WinsTotal: f(20), GoalsForAvg: f(1.5), GoalsAgainstAvg: f(1.0), FailedToScoreTotal: f(4)})

	r, err := BlendRecords(current, prior, DefaultWeights())
	require.NoError(t, err)
	fts, ok := r.FailedToScoreTotal()
	require.True(t, ok)
	assert.Equal(t, 4.0, fts, "single-season field taken unweighted")
}

func TestBlendRecords_MissingAveragesDefaultToZero(t *testing.T) {
	current := record(4, "D", "2025", domain.SeasonStats{PlayedTotal: f(5)})

	r, err := BlendRecords(current, nil, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.WinsTotal())
	assert.Equal(t, 0.0, r.GoalsForAvg())
	assert.Equal(t, minEstimatedOverRate, r.Over15Rate())
}

func TestBlendRecords_Absent(t *testing.T) {
	_, err := BlendRecords(nil, nil, DefaultWeights())
	assert.ErrorIs(t, err, ErrNoUsableRecord)

	zero := record(5, "Z", "2025", domain.SeasonStats{PlayedTotal: f(0)})
	_, err = BlendRecords(zero, nil, DefaultWeights())
	assert.ErrorIs(t, err, ErrZeroPlayed)

	unusable := record(6, "U", "2025", domain.SeasonStats{WinsTotal: f(3)})
	_, err = BlendRecords(unusable, nil, DefaultWeights())
	assert.ErrorIs(t, err, ErrNoUsableRecord)

	bad := record(7, "B", "2025", domain.SeasonStats{PlayedTotal: f(3), WinsTotal: f(5)})
	_, err = BlendRecords(bad, nil, DefaultWeights())
	assert.ErrorIs(t, err, domain.ErrWinsExceedPlayed)
}

func TestBlendRecords_WinsCappedAtPlayed(t *testing.T) {
	current := record(1, "A", "2025", domain.SeasonStats{
		PlayedTotal: f(20), WinsTotal: f(15), GoalsForAvg: f(2.0), GoalsAgainstAvg: f(0.8),
	})
	prior := record(1, "A", "2024", domain.SeasonStats{PlayedTotal: f(2)})

	r, err := BlendRecords(current, prior, DefaultWeights())
	require.NoError(t, err, "team with usable data keeps its rating")
	assert.InDelta(t, 0.7*20+0.3*2, r.PlayedTotal(), 1e-9)
	assert.InDelta(t, r.PlayedTotal(), r.WinsTotal(), 1e-9)
	assert.LessOrEqual(t, r.WinRate(), 1.0)
}

func TestBlender_LogsCappedWins(t *testing.T) {
	src := fakeSource{1: {
		"2025": record(1, "A", "2025", domain.SeasonStats{PlayedTotal: f(20), WinsTotal: f(15), GoalsForAvg: f(2.0), GoalsAgainstAvg: f(0.8)}),
		"2024": record(1, "A", "2024", domain.SeasonStats{PlayedTotal: f(2)}),
	}}
	logs := &bytes.Buffer{}

	ratings, skipped := NewBlender(src, "2025", "2024", DefaultWeights()).WithLogger(log.New(logs, "", 0)).BlendAll()
	require.Len(t, ratings, 1)
	assert.Equal(t, 0, skipped)
	assert.Contains(t, logs.String(), "WARN: team 1: blended wins_total capped")
}

func TestEstimateOverRate(t *testing.T) {
	tests := []struct {
		gf, ga float64
		want   float64
	}{
		{0, 0, 0.30},
		{1.5, 1.2, 0.90},
		{3.0, 2.0, 0.95},
		{0.6, 0.3, 0.30},
	}
	for _, tt := range tests {
		if got := EstimateOverRate(tt.gf, tt.ga); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("EstimateOverRate(%v, %v) = %v, want %v", tt.gf, tt.ga, got, tt.want)
		}
	}
}

func TestBlender_BlendAll(t *testing.T) {
	source := fakeSource{
		10: {"2025": record(10, "Ten", "2025", domain.SeasonStats{PlayedTotal: f(9), WinsTotal: f(5), GoalsForAvg: f(1.8), GoalsAgainstAvg: f(0.9)})},
		3:  {"2024": record(3, "Three", "2024", domain.SeasonStats{PlayedTotal: f(38), WinsTotal: f(14), GoalsForAvg: f(1.2), GoalsAgainstAvg: f(1.3)})},
		7:  {"2025": record(7, "Seven", "2025", domain.SeasonStats{PlayedTotal: f(0)})},
		8:  {"2023": record(8, "Eight", "2023", domain.SeasonStats{PlayedTotal: f(30)})},
	}

	var logs bytes.Buffer
	b := NewBlender(source, "2025", "2024", DefaultWeights()).WithLogger(log.New(&logs, "", 0))

	ratings, skipped := b.BlendAll()
	require.Len(t, ratings, 2)
	assert.Equal(t, 3, ratings[0].TeamID())
	assert.Equal(t, 10, ratings[1].TeamID())
	assert.Equal(t, 2, skipped, "zero played and out-of-window seasons are skipped")
	assert.Contains(t, logs.String(), "team 7 skipped")
}

func TestBlender_NoPriorSeason(t *testing.T) {
	source := fakeSource{
		1: {"2025": record(1, "One", "2025", domain.SeasonStats{PlayedTotal: f(4), WinsTotal: f(2), GoalsForAvg: f(1.0), GoalsAgainstAvg: f(1.0)})},
	}
	r, err := NewBlender(source, "2025", "", DefaultWeights()).Blend(1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.PlayedTotal(), "early-season weighting only applies when both seasons exist")
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())

	w := DefaultWeights()
	w.EarlyCurrent = 0.5
	assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)

	w = DefaultWeights()
	w.StandardCurrent, w.StandardPrior = 1.2, -0.2
	assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
}
