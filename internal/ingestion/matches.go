package ingestion

import (
	"encoding/json"
	"os"

	"safe-bets/internal/domain"
)

// matchesFile is the hand-written pair list. "matchs" is the legacy key.
type matchesFile struct {
	Matches  []rawPair `json:"matches"`
	Matchs   []rawPair `json:"matchs"`
	Fixtures []Fixture `json:"fixtures"`
}

type rawPair struct {
	TeamAID *int `json:"team_a_id"`
	TeamBID *int `json:"team_b_id"`
}

// LoadMatchPairs reads the day's pairs in file order.
// An unreadable or malformed file logs a warning and yields no pairs.
// Entries missing either team are dropped with a warning.
func (l *Loader) LoadMatchPairs(path string) []domain.MatchPair {
	data, err := os.ReadFile(path)
	if err != nil {
		l.warnf("matches %s unreadable: %v", path, err)
		return nil
	}

	var file matchesFile
	if err := json.Unmarshal(data, &file); err != nil {
		l.warnf("matches %s malformed: %v", path, err)
		return nil
	}

	var pairs []domain.MatchPair
	add := func(i int, a, b *int) {
		if a == nil || b == nil || *a == 0 || *b == 0 {
			l.warnf("matches %s: entry %d missing a team id, dropped", path, i)
			return
		}
		pairs = append(pairs, domain.MatchPair{TeamAID: *a, TeamBID: *b})
	}

	raw := file.Matches
	if len(raw) == 0 {
		raw = file.Matchs
	}
	for i, p := range raw {
		add(i, p.TeamAID, p.TeamBID)
	}
	for i, f := range file.Fixtures {
		add(i, f.HomeTeam.ID, f.AwayTeam.ID)
	}

	l.logger.Printf("Loaded %d match pairs from %s", len(pairs), path)
	return pairs
}
