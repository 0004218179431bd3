package reporting

import "safe-bets/internal/domain"

func evaluation(a, b string, over domain.Decision, result domain.Decision, flags domain.FlagSet) *domain.MatchEvaluation {
	return &domain.MatchEvaluation{
		TeamA:     domain.TeamRef{ID: len(a), Name: a},
		TeamB:     domain.TeamRef{ID: 100 + len(b), Name: b},
		LeagueID:  39,
		OverIndex: over.Confidence,
		RSIA:      0.1,
		RSIB:      -0.1,
		Over:      over,
		Result:    result,
		Flags:     flags,
	}
}

func over(tier domain.Tier, conf float64) domain.Decision {
	return domain.Decision{Bet: domain.BetOver15, Tier: tier, Confidence: conf}
}

func result(tier domain.Tier, side domain.Side, conf float64) domain.Decision {
	if tier == domain.TierAvoid {
		side = domain.SideNone
	}
	return domain.Decision{Bet: domain.BetResult, Tier: tier, Side: side, Confidence: conf}
}
