package domain

// SeasonStats holds one team's raw statistics for one season.
// Nil fields were not reported by the source feed.
type SeasonStats struct {
	PlayedTotal        *float64 // matches played
	WinsTotal          *float64 // matches won
	GoalsForAvg        *float64 // goals scored per match
	GoalsAgainstAvg    *float64 // goals conceded per match
	CleanSheetsTotal   *float64 // matches without conceding (optional)
	FailedToScoreTotal *float64 // matches without scoring (optional)
	Over15Rate         *float64 // share of matches with 2+ goals (optional, precomputed)
}

// SeasonRecord is one line of the raw statistics feed: one team, one season.
type SeasonRecord struct {
	TeamID          int
	TeamName        string
	LeagueID        int
	Season          string
	Stats           SeasonStats
	SourceTimestamp string // as written by the fetcher, informational only
}

// Usable reports whether the record carries the minimum the blender needs.
func (r *SeasonRecord) Usable() bool {
	return r != nil && r.TeamID != 0 && r.Stats.PlayedTotal != nil
}

// MatchPair identifies one match to evaluate. TeamA is the home side.
type MatchPair struct {
	TeamAID int
	TeamBID int
}
