package apifootball

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"safe-bets/internal/domain"
)

// ErrNoStatistics is returned when the API has no statistics for a team.
var ErrNoStatistics = errors.New("no statistics for team")

// StatusFinished is the short status of a completed fixture.
const StatusFinished = "FT"

// Team is one club of a league listing.
type Team struct {
	ID   int
	Name string
}

// TeamStatistics is the season summary of one team.
type TeamStatistics struct {
	TeamID             int
	TeamName           string
	LeagueID           int
	Season             string
	PlayedTotal        *float64
	WinsTotal          *float64
	GoalsForAvg        *float64
	GoalsAgainstAvg    *float64
	CleanSheetsTotal   *float64
	FailedToScoreTotal *float64
}

// SeasonRecord converts the statistics to the raw record the engine reads.
func (s *TeamStatistics) SeasonRecord(timestamp string) *domain.SeasonRecord {
	return &domain.SeasonRecord{
		TeamID:          s.TeamID,
		TeamName:        s.TeamName,
		LeagueID:        s.LeagueID,
		Season:          s.Season,
		SourceTimestamp: timestamp,
		Stats: domain.SeasonStats{
			PlayedTotal:        s.PlayedTotal,
			WinsTotal:          s.WinsTotal,
			GoalsForAvg:        s.GoalsForAvg,
			GoalsAgainstAvg:    s.GoalsAgainstAvg,
			CleanSheetsTotal:   s.CleanSheetsTotal,
			FailedToScoreTotal: s.FailedToScoreTotal,
		},
	}
}

// Fixture is one scheduled or played match.
type Fixture struct {
	ID        int
	LeagueID  int
	Kickoff   string // ISO timestamp in the requested timezone
	Status    string // short status, "FT" when finished
	HomeID    int
	HomeName  string
	AwayID    int
	AwayName  string
	HomeGoals *int
	AwayGoals *int
}

// Finished reports whether the fixture has a final score.
func (f Fixture) Finished() bool {
	return f.Status == StatusFinished && f.HomeGoals != nil && f.AwayGoals != nil
}

// Result returns the final score for settlement.
func (f Fixture) Result() (domain.MatchResult, bool) {
	if !f.Finished() || f.HomeName == "" || f.AwayName == "" {
		return domain.MatchResult{}, false
	}
	return domain.MatchResult{
		HomeTeam:  f.HomeName,
		AwayTeam:  f.AwayName,
		HomeGoals: *f.HomeGoals,
		AwayGoals: *f.AwayGoals,
	}, true
}

// Wire types.

type wireTeam struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type teamItem struct {
	Team wireTeam `json:"team"`
}

type wireTotal struct {
	Total *number `json:"total"`
}

type statisticsResponse struct {
	Team     wireTeam `json:"team"`
	Fixtures struct {
		Played wireTotal `json:"played"`
		Wins   wireTotal `json:"wins"`
	} `json:"fixtures"`
	Goals struct {
		For struct {
			Average wireTotal `json:"average"`
		} `json:"for"`
		Against struct {
			Average wireTotal `json:"average"`
		} `json:"against"`
	} `json:"goals"`
	CleanSheet    wireTotal `json:"clean_sheet"`
	FailedToScore wireTotal `json:"failed_to_score"`
}

type fixtureItem struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	Teams struct {
		Home wireTeam `json:"home"`
		Away wireTeam `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

// number accepts JSON numbers and numeric strings ("1.5"); null and "" stay unset.
type number struct {
	v   float64
	set bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n.v, n.set = v, true
	return nil
}

func (w wireTotal) ptr() *float64 {
	if w.Total == nil || !w.Total.set {
		return nil
	}
	v := w.Total.v
	return &v
}

// Teams lists the teams of a league season.
func (c *Client) Teams(ctx context.Context, leagueID int, season string) ([]Team, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", season)

	var items []teamItem
	if err := c.get(ctx, "/teams", params, &items); err != nil {
		return nil, err
	}

	teams := make([]Team, 0, len(items))
	for _, it := range items {
		if it.Team.ID == 0 {
			continue
		}
		teams = append(teams, Team{ID: it.Team.ID, Name: it.Team.Name})
	}
	return teams, nil
}

// TeamStatistics fetches the season statistics of one team.
func (c *Client) TeamStatistics(ctx context.Context, leagueID int, season string, teamID int) (*TeamStatistics, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", season)
	params.Set("team", strconv.Itoa(teamID))

	var raw json.RawMessage
	if err := c.get(ctx, "/teams/statistics", params, &raw); err != nil {
		return nil, err
	}
	// An empty result comes back as [] instead of an object.
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
		return nil, ErrNoStatistics
	}

	var resp statisticsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	stats := &TeamStatistics{
		TeamID:             teamID,
		TeamName:           resp.Team.Name,
		LeagueID:           leagueID,
		Season:             season,
		PlayedTotal:        resp.Fixtures.Played.ptr(),
		WinsTotal:          resp.Fixtures.Wins.ptr(),
		GoalsForAvg:        resp.Goals.For.Average.ptr(),
		GoalsAgainstAvg:    resp.Goals.Against.Average.ptr(),
		CleanSheetsTotal:   resp.CleanSheet.ptr(),
		FailedToScoreTotal: resp.FailedToScore.ptr(),
	}
	return stats, nil
}

// Fixtures lists the fixtures of a league on one date (YYYY-MM-DD).
func (c *Client) Fixtures(ctx context.Context, leagueID int, season, date, timezone string) ([]Fixture, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", season)
	if timezone != "" {
		params.Set("timezone", timezone)
	}

	var items []fixtureItem
	if err := c.get(ctx, "/fixtures", params, &items); err != nil {
		return nil, err
	}

	fixtures := make([]Fixture, 0, len(items))
	for _, it := range items {
		fixtures = append(fixtures, Fixture{
			ID:        it.Fixture.ID,
			LeagueID:  leagueID,
			Kickoff:   it.Fixture.Date,
			Status:    it.Fixture.Status.Short,
			HomeID:    it.Teams.Home.ID,
			HomeName:  it.Teams.Home.Name,
			AwayID:    it.Teams.Away.ID,
			AwayName:  it.Teams.Away.Name,
			HomeGoals: it.Goals.Home,
			AwayGoals: it.Goals.Away,
		})
	}
	return fixtures, nil
}

// Results returns the final scores of the finished fixtures of a league on one date.
func (c *Client) Results(ctx context.Context, leagueID int, season, date, timezone string) ([]domain.MatchResult, error) {
	fixtures, err := c.Fixtures(ctx, leagueID, season, date, timezone)
	if err != nil {
		return nil, err
	}
	var results []domain.MatchResult
	for _, f := range fixtures {
		if r, ok := f.Result(); ok {
			results = append(results, r)
		}
	}
	return results, nil
}
