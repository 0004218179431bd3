package decision

import (
	"fmt"
	"strings"

	"safe-bets/internal/domain"
)

// RenderMarkdown renders one evaluation as a Markdown section.
func RenderMarkdown(e *domain.MatchEvaluation, t Thresholds) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s (league %d)\n\n", e.Match(), e.LeagueID))

	sb.WriteString("| Index | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Over index | %.3f |\n", e.OverIndex))
	sb.WriteString(fmt.Sprintf("| RSI %s | %.3f |\n", e.TeamA.Name, e.RSIA))
	sb.WriteString(fmt.Sprintf("| RSI %s | %.3f |\n", e.TeamB.Name, e.RSIB))
	sb.WriteString("\n")

	penalty := e.Flags.AnySampleRelated()
	overUltra, overSafe := penalized(t.UltraOver15, t.SafeOver15, penalty, t)
	resUltra, resSafe := penalized(t.UltraResult, t.SafeResult, penalty, t)

	sb.WriteString("| Bet | Decision | Confidence | Ultra cut | Safe cut |\n")
	sb.WriteString("|-----|----------|------------|-----------|----------|\n")
	sb.WriteString(fmt.Sprintf("| %s | %s | %.3f | %.2f | %.2f |\n",
		e.Over.Bet, e.Over.Label(), e.Over.Confidence, overUltra, overSafe))
	sb.WriteString(fmt.Sprintf("| %s | %s | %.3f | %.2f | %.2f |\n",
		e.Result.Bet, e.Result.Label(), e.Result.Confidence, resUltra, resSafe))
	sb.WriteString("\n")

	if e.Flags.Empty() {
		sb.WriteString("Flags: none\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Flags: %s\n\n", strings.ReplaceAll(e.Flags.String(), "|", ", ")))
	}
	if penalty {
		sb.WriteString(fmt.Sprintf("Sample penalty applied (+%.2f ultra, +%.2f safe).\n\n", t.UltraPenalty, t.SafePenalty))
	}

	return sb.String()
}
