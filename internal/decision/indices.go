package decision

import "safe-bets/internal/domain"

// Relative strength weights. They sum to 1.
const (
	weightWinRate     = 0.40
	weightGoalDiff    = 0.25
	weightDefense     = 0.15
	weightAttack      = 0.10
	weightReliability = 0.05 // applied to attack and defense reliability each

	goalDiffScale = 2.0
	goalAvgScale  = 3.0
)

// OverIndex combines two over-1.5 rates as a probabilistic OR:
// the chance that at least one side's scoring tendency shows up.
func OverIndex(rateA, rateB float64) float64 {
	return 1 - (1-rateA)*(1-rateB)
}

// RelativeStrength scores a against b. RelativeStrength(b, a) is its exact negation.
func RelativeStrength(a, b *domain.TeamRating) float64 {
	attA, _ := a.ReliabilityAttack()
	attB, _ := b.ReliabilityAttack()
	defA, _ := a.ReliabilityDefense()
	defB, _ := b.ReliabilityDefense()

	deltaWin := a.WinRate() - b.WinRate()
	deltaGoalDiff := (a.GoalDiffAvg() - b.GoalDiffAvg()) / goalDiffScale
	deltaDefense := (b.GoalsAgainstAvg() - a.GoalsAgainstAvg()) / goalAvgScale
	deltaAttack := (a.GoalsForAvg() - b.GoalsForAvg()) / goalAvgScale

	return weightWinRate*deltaWin +
		weightGoalDiff*deltaGoalDiff +
		weightDefense*deltaDefense +
		weightAttack*deltaAttack +
		weightReliability*(attA-attB) +
		weightReliability*(defA-defB)
}
