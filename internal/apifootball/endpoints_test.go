package apifootball

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safe-bets/internal/domain"
)

const statisticsBody = `{"errors":[],"response":{
 "league":{"id":39,"season":2025},
 "team":{"id":33,"name":"Manchester United"},
 "fixtures":{"played":{"home":4,"away":4,"total":8},"wins":{"home":3,"away":1,"total":4}},
 "goals":{"for":{"total":{"total":12},"average":{"home":"1.8","away":"1.3","total":"1.5"}},
          "against":{"total":{"total":9},"average":{"total":"1.1"}}},
 "clean_sheet":{"total":2},
 "failed_to_score":{"total":null}}}`

func TestTeamStatistics(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams/statistics", r.URL.Path)
		assert.Equal(t, "33", r.URL.Query().Get("team"))
		w.Write([]byte(statisticsBody))
	})

	s, err := c.TeamStatistics(context.Background(), 39, "2025", 33)
	require.NoError(t, err)
	assert.Equal(t, "Manchester United", s.TeamName)
	require.NotNil(t, s.PlayedTotal)
	assert.Equal(t, 8.0, *s.PlayedTotal)
	assert.Equal(t, 4.0, *s.WinsTotal)
	assert.Equal(t, 1.5, *s.GoalsForAvg)
	assert.Equal(t, 1.1, *s.GoalsAgainstAvg)
	assert.Equal(t, 2.0, *s.CleanSheetsTotal)
	assert.Nil(t, s.FailedToScoreTotal)

	rec := s.SeasonRecord("2025-10-04T06:00:00Z")
	assert.Equal(t, 33, rec.TeamID)
	assert.Equal(t, 39, rec.LeagueID)
	assert.Equal(t, "2025", rec.Season)
	assert.True(t, rec.Usable())
	assert.Nil(t, rec.Stats.Over15Rate)
}

func TestTeamStatistics_Empty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[],"results":0,"response":[]}`))
	})

	_, err := c.TeamStatistics(context.Background(), 39, "2025", 33)
	assert.True(t, errors.Is(err, ErrNoStatistics))
}

const fixturesBody = `{"errors":[],"response":[
 {"fixture":{"id":1001,"date":"2025-10-04T15:00:00+02:00","status":{"short":"FT"}},"league":{"id":61},
  "teams":{"home":{"id":85,"name":"Paris SG"},"away":{"id":112,"name":"Metz"}},"goals":{"home":3,"away":0}},
 {"fixture":{"id":1002,"date":"2025-10-04T21:00:00+02:00","status":{"short":"NS"}},"league":{"id":61},
  "teams":{"home":{"id":80,"name":"Lyon"},"away":{"id":84,"name":"Nice"}},"goals":{"home":null,"away":null}}]}`

func TestFixtures(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2025-10-04", q.Get("date"))
		assert.Equal(t, "Europe/Paris", q.Get("timezone"))
		w.Write([]byte(fixturesBody))
	})

	fixtures, err := c.Fixtures(context.Background(), 61, "2025", "2025-10-04", "Europe/Paris")
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Equal(t, 85, fixtures[0].HomeID)
	assert.Equal(t, "Nice", fixtures[1].AwayName)
	assert.True(t, fixtures[0].Finished())
	assert.False(t, fixtures[1].Finished())
}

func TestResults(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixturesBody))
	})

	results, err := c.Results(context.Background(), 61, "2025", "2025-10-04", "")
	require.NoError(t, err)
	assert.Equal(t, []domain.MatchResult{{HomeTeam: "Paris SG", AwayTeam: "Metz", HomeGoals: 3, AwayGoals: 0}}, results)
}
