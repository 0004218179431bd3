package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"safe-bets/internal/decision"
	"safe-bets/internal/domain"
)

// RenderMarkdown renders the report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Daily Recommendations %s\n\n", r.RunDate))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02T15:04:05Z")))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Current season | %s |\n", r.Summary.CurrentSeason))
	prior := r.Summary.PriorSeason
	if prior == "" {
		prior = "-"
	}
	sb.WriteString(fmt.Sprintf("| Prior season | %s |\n", prior))
	sb.WriteString(fmt.Sprintf("| Ratings built | %d |\n", r.Summary.RatingsBuilt))
	sb.WriteString(fmt.Sprintf("| Teams skipped | %d |\n", r.Summary.TeamsSkipped))
	sb.WriteString(fmt.Sprintf("| Pairs loaded | %d |\n", r.Summary.PairsLoaded))
	sb.WriteString(fmt.Sprintf("| Pairs absent | %d |\n", r.Summary.PairsAbsent))
	sb.WriteString(fmt.Sprintf("| Evaluations | %d |\n", len(r.Evaluations)))
	sb.WriteString(fmt.Sprintf("| Recommendations | %d |\n", len(r.Recommendations)))
	sb.WriteString(fmt.Sprintf("| Actionable from | %s |\n", r.MinTier))
	sb.WriteString("\n")

	// Tier Distribution
	sb.WriteString("## Tier Distribution\n\n")
	sb.WriteString("| Tier | Decisions |\n")
	sb.WriteString("|------|-----------|\n")
	for _, tier := range []domain.Tier{domain.TierUltra, domain.TierSafe, domain.TierAvoid} {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", tier, r.TierCounts[tier]))
	}
	sb.WriteString("\n")

	// Recommendations
	sb.WriteString("## Recommendations\n\n")
	if len(r.Recommendations) > 0 {
		sb.WriteString("| # | Type | Match | League | Decision | Confidence | Flags |\n")
		sb.WriteString("|---|------|-------|--------|----------|------------|-------|\n")
		for i, rec := range r.Recommendations {
			flags := rec.Flags.String()
			if flags == "" {
				flags = "-"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s | %.3f | %s |\n",
				i+1, rec.Bet, rec.Match, rec.LeagueID, rec.Decision, rec.Confidence, flags))
		}
	} else {
		sb.WriteString("No actionable recommendations.\n")
	}
	sb.WriteString("\n")

	// Evaluations
	sb.WriteString("## Evaluations\n\n")
	if len(r.Evaluations) == 0 {
		sb.WriteString("No matches evaluated.\n\n")
	}
	for _, e := range r.Evaluations {
		sb.WriteString(decision.RenderMarkdown(e, r.Thresholds))
	}

	return sb.String()
}

// WriteMarkdownFile renders the report to path.
func WriteMarkdownFile(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
