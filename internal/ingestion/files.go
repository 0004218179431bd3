package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"safe-bets/internal/domain"
)

// FixtureTeam is one side of a fixture.
type FixtureTeam struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
}

// Fixture is one scheduled match as written by the fetcher.
type Fixture struct {
	FixtureID  int         `json:"fixture_id"`
	LeagueID   int         `json:"league_id"`
	LeagueName string      `json:"league_name,omitempty"`
	Date       string      `json:"date"`
	Kickoff    string      `json:"kickoff,omitempty"`
	Status     string      `json:"status,omitempty"`
	HomeTeam   FixtureTeam `json:"home_team"`
	AwayTeam   FixtureTeam `json:"away_team"`
}

// FixturesFile is the daily fixtures document. The match loader accepts it as a pairs file.
type FixturesFile struct {
	GeneratedAt string    `json:"generated_at,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Date        string    `json:"date"`
	Season      string    `json:"season"`
	Count       int       `json:"count"`
	Fixtures    []Fixture `json:"fixtures"`
}

// TeamEntry is one team of a league listing.
type TeamEntry struct {
	TeamID int    `json:"team_id"`
	Name   string `json:"name"`
}

// LeagueTeams lists the teams of one league.
type LeagueTeams struct {
	LeagueID   int         `json:"league_id"`
	LeagueName string      `json:"league_name"`
	Teams      []TeamEntry `json:"teams"`
}

// TeamsFile is the team-id listing consumed by the stats fetcher.
type TeamsFile struct {
	Season  string        `json:"season"`
	Leagues []LeagueTeams `json:"leagues"`
}

// wireStats is the canonical statistics object written to JSONL.
type wireStats struct {
	PlayedTotal        *float64 `json:"played_total"`
	WinsTotal          *float64 `json:"wins_total"`
	GoalsForAvg        *float64 `json:"goals_for_avg"`
	GoalsAgainstAvg    *float64 `json:"goals_against_avg"`
	CleanSheetsTotal   *float64 `json:"clean_sheets_total,omitempty"`
	FailedToScoreTotal *float64 `json:"failed_to_score_total,omitempty"`
	Over15Rate         *float64 `json:"over_1_5_rate,omitempty"`
}

type wireRecord struct {
	TeamID          int       `json:"team_id"`
	TeamName        string    `json:"team_name"`
	LeagueID        int       `json:"league_id"`
	Season          string    `json:"season"`
	Available       bool      `json:"available"`
	Stats           wireStats `json:"stats"`
	SourceTimestamp string    `json:"source_timestamp,omitempty"`
}

// WriteStats writes one JSON line per record in the form ReadStats reads.
func WriteStats(w io.Writer, records []*domain.SeasonRecord) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		line := wireRecord{
			TeamID:          r.TeamID,
			TeamName:        r.TeamName,
			LeagueID:        r.LeagueID,
			Season:          r.Season,
			Available:       r.Usable(),
			SourceTimestamp: r.SourceTimestamp,
			Stats: wireStats{
				PlayedTotal:        r.Stats.PlayedTotal,
				WinsTotal:          r.Stats.WinsTotal,
				GoalsForAvg:        r.Stats.GoalsForAvg,
				GoalsAgainstAvg:    r.Stats.GoalsAgainstAvg,
				CleanSheetsTotal:   r.Stats.CleanSheetsTotal,
				FailedToScoreTotal: r.Stats.FailedToScoreTotal,
				Over15Rate:         r.Stats.Over15Rate,
			},
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encode team %d: %w", r.TeamID, err)
		}
	}
	return nil
}

// WriteJSONFile writes v as indented JSON, creating parent directories.
func WriteJSONFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadJSONFile decodes a JSON document into v.
func ReadJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
