package domain

// Recommendation is one actionable bet from a match evaluation.
type Recommendation struct {
	Bet        BetType
	Match      string
	LeagueID   int
	TeamAID    int
	TeamBID    int
	Decision   string // rendered label, e.g. "UltraSafe +1.5"
	Tier       Tier
	Confidence float64
	OverIndex  float64
	RSIA       float64
	Flags      FlagSet
}

// NewRecommendation builds the recommendation for one decision of an evaluation.
func NewRecommendation(e *MatchEvaluation, d Decision) Recommendation {
	return Recommendation{
		Bet:        d.Bet,
		Match:      e.Match(),
		LeagueID:   e.LeagueID,
		TeamAID:    e.TeamA.ID,
		TeamBID:    e.TeamB.ID,
		Decision:   d.Label(),
		Tier:       d.Tier,
		Confidence: d.Confidence,
		OverIndex:  e.OverIndex,
		RSIA:       e.RSIA,
		Flags:      e.Flags,
	}
}
