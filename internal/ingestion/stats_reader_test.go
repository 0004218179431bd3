package ingestion

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safe-bets/internal/domain"
)

func testLoader(buf *bytes.Buffer) *Loader {
	return NewLoader(log.New(buf, "[ingestion] ", 0))
}

func fptr(v float64) *float64 { return &v }

func TestReadStats_CanonicalAndLegacyKeys(t *testing.T) {
	input := strings.Join([]string{
		`{"team_id":33,"team_name":"Man Utd","league_id":39,"season":"2025","available":true,"stats":{"played_total":8,"wins_total":4,"goals_for_avg":1.5,"goals_against_avg":1.1,"clean_sheets_total":2,"failed_to_score_total":1,"over_1_5_rate":0.75}}`,
		`{"team_id":40,"team_name":"Liverpool","league_id":39,"season":2024,"stats":{"played_total":38,"wins_total":"25","gf_avg":"2.3","ga_avg":0.9,"over15_rate":0.81}}`,
	}, "\n")

	var logs bytes.Buffer
	store := NewRawStore()
	summary, err := testLoader(&logs).ReadStats(strings.NewReader(input), "test", store)
	require.NoError(t, err)
	assert.Equal(t, ReadSummary{Lines: 2, Loaded: 2}, summary)

	utd, ok := store.Lookup(33, "2025")
	require.True(t, ok)
	assert.Equal(t, "Man Utd", utd.TeamName)
	assert.Equal(t, 39, utd.LeagueID)
	assert.Equal(t, fptr(8), utd.Stats.PlayedTotal)
	assert.Equal(t, fptr(2), utd.Stats.CleanSheetsTotal)
	assert.Equal(t, fptr(0.75), utd.Stats.Over15Rate)

	pool, ok := store.Lookup(40, "2024")
	require.True(t, ok, "numeric season is read as a string")
	assert.Equal(t, fptr(25), pool.Stats.WinsTotal)
	assert.Equal(t, fptr(2.3), pool.Stats.GoalsForAvg)
	assert.Equal(t, fptr(0.9), pool.Stats.GoalsAgainstAvg)
	assert.Equal(t, fptr(0.81), pool.Stats.Over15Rate)
	assert.Nil(t, pool.Stats.CleanSheetsTotal)
}

func TestReadStats_SkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		`not json`,
		``,
		`{"team_name":"No Id","season":"2025","stats":{"played_total":3}}`,
		`{"team_id":7,"season":"2025","available":false,"stats":{"played_total":3}}`,
		`{"team_id":8,"season":"2025","stats":{"wins_total":3}}`,
		`{"team_id":9,"season":"2025","stats":{"played_total":5,"wins_total":2}}`,
	}, "\n")

	var logs bytes.Buffer
	store := NewRawStore()
	summary, err := testLoader(&logs).ReadStats(strings.NewReader(input), "feed", store)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Lines)
	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, 3, summary.Unusable)
	assert.Equal(t, 1, summary.Loaded)
	assert.Equal(t, 1, store.Len())
	assert.Contains(t, logs.String(), "WARN: feed:1: malformed line")

	rec, ok := store.Lookup(9, "2025")
	require.True(t, ok)
	assert.Equal(t, "Team 9", rec.TeamName, "missing name gets a placeholder")
}

func TestReadStats_DuplicateLaterWins(t *testing.T) {
	input := `{"team_id":9,"season":"2025","stats":{"played_total":5}}
{"team_id":9,"season":"2025","stats":{"played_total":6}}`

	var logs bytes.Buffer
	store := NewRawStore()
	summary, err := testLoader(&logs).ReadStats(strings.NewReader(input), "feed", store)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Replaced)
	rec, _ := store.Lookup(9, "2025")
	assert.Equal(t, fptr(6), rec.Stats.PlayedTotal)
	assert.Contains(t, logs.String(), "later line wins")
}

func TestReadStatsFile_Missing(t *testing.T) {
	var logs bytes.Buffer
	_, err := testLoader(&logs).ReadStatsFile(filepath.Join(t.TempDir(), "absent.jsonl"), NewRawStore())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteStats_RoundTripsThroughReader(t *testing.T) {
	records := []*domain.SeasonRecord{{
		TeamID:   50,
		TeamName: "City",
		LeagueID: 39,
		Season:   "2025",
		Stats: domain.SeasonStats{
			PlayedTotal:        fptr(7),
			WinsTotal:          fptr(5),
			GoalsForAvg:        fptr(2.4),
			GoalsAgainstAvg:    fptr(0.6),
			FailedToScoreTotal: fptr(0),
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, records))

	var logs bytes.Buffer
	store := NewRawStore()
	_, err := testLoader(&logs).ReadStats(&buf, "roundtrip", store)
	require.NoError(t, err)

	got, ok := store.Lookup(50, "2025")
	require.True(t, ok)
	assert.Equal(t, records[0].Stats, got.Stats)
	assert.Equal(t, "City", got.TeamName)
}
