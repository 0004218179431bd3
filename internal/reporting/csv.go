package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"safe-bets/internal/domain"
)

// RecommendationsHeader is the header row of the recommendations file.
var RecommendationsHeader = []string{"Type", "Match", "League_ID", "Decision", "Confidence", "O15I", "RSI_A", "Flags"}

// WriteRecommendationsCSV writes the header and one row per recommendation.
// An empty slice produces a header-only document.
func WriteRecommendationsCSV(w io.Writer, recs []domain.Recommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecommendationsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			string(r.Bet),
			r.Match,
			strconv.Itoa(r.LeagueID),
			r.Decision,
			fmt.Sprintf("%.3f", r.Confidence),
			fmt.Sprintf("%.3f", r.OverIndex),
			fmt.Sprintf("%.3f", r.RSIA),
			r.Flags.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", r.Match, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecommendationsFile overwrites path with the recommendations CSV.
// Parent directories are created as needed.
func WriteRecommendationsFile(path string, recs []domain.Recommendation) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recommendations file: %w", err)
	}
	if err := WriteRecommendationsCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
