package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"safe-bets/internal/decision"
	"safe-bets/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, 10, 4, 7, 30, 0, 0, time.UTC)
}

func TestRenderMarkdown(t *testing.T) {
	evals := []*domain.MatchEvaluation{
		evaluation("Paris", "Metz", over(domain.TierUltra, 0.85), result(domain.TierSafe, domain.SideA, 0.45), 0),
		evaluation("Lens", "Brest", over(domain.TierAvoid, 0.50), result(domain.TierAvoid, "", 0.30), domain.FlagSet(0).With(domain.FlagLowSampleB)),
	}
	recs := Rank(evals, domain.TierUltra, 0)

	g := NewGenerator(decision.DefaultThresholds(), domain.TierUltra).WithClock(fixedClock)
	r := g.Generate("2025-10-04", RunSummary{CurrentSeason: "2025", PriorSeason: "2024", RatingsBuilt: 40, PairsLoaded: 3, PairsAbsent: 1}, evals, recs)

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Daily Recommendations 2025-10-04",
		"Generated: 2025-10-04T07:30:00Z",
		"| Prior season | 2024 |",
		"| Pairs absent | 1 |",
		"| Recommendations | 1 |",
		"| ULTRA | 1 |",
		"| SAFE | 1 |",
		"| AVOID | 2 |",
		"| 1 | Over15 | Paris vs Metz | 39 | UltraSafe +1.5 | 0.850 | - |",
		"### Lens vs Brest (league 39)",
		"Flags: low_sample_b",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	g := NewGenerator(decision.DefaultThresholds(), domain.TierSafe).WithClock(fixedClock)
	md := RenderMarkdown(g.Generate("2025-10-04", RunSummary{CurrentSeason: "2025"}, nil, nil))

	for _, want := range []string{
		"| Prior season | - |",
		"| Actionable from | SAFE |",
		"No actionable recommendations.",
		"No matches evaluated.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	evals := []*domain.MatchEvaluation{
		evaluation("Paris", "Metz", over(domain.TierUltra, 0.85), result(domain.TierAvoid, "", 0.1), 0),
	}
	g := NewGenerator(decision.DefaultThresholds(), domain.TierUltra).WithClock(fixedClock)

	first := RenderMarkdown(g.Generate("2025-10-04", RunSummary{}, evals, Rank(evals, domain.TierUltra, 0)))
	second := RenderMarkdown(g.Generate("2025-10-04", RunSummary{}, evals, Rank(evals, domain.TierUltra, 0)))
	if first != second {
		t.Error("rendering is not deterministic")
	}
}

func TestWriteMarkdownFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "daily.md")
	g := NewGenerator(decision.DefaultThresholds(), domain.TierUltra).WithClock(fixedClock)

	if err := WriteMarkdownFile(path, g.Generate("2025-10-04", RunSummary{}, nil, nil)); err != nil {
		t.Fatalf("WriteMarkdownFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Daily Recommendations 2025-10-04") {
		t.Errorf("unexpected report start: %q", string(data)[:40])
	}
}
