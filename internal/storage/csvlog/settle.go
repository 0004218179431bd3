package csvlog

import (
	"fmt"

	"safe-bets/internal/domain"
)

// SettleSummary counts what a settlement pass changed.
type SettleSummary struct {
	Rows      int // rows of the date
	Settled   int // rows that received at least one outcome
	Unmatched int // rows of the date with no result
}

// Settle fills Result_Over15 and Result_Result for rows of date.
// Rows with an avoided decision, rows already settled and rows without a matching
// result keep their cells. Match labels are compared after domain.NormalizeMatchLabel.
func (l *HistoryLog) Settle(date string, results []domain.MatchResult) (SettleSummary, error) {
	var summary SettleSummary

	l.mu.Lock()
	defer l.mu.Unlock()

	header, rows, err := l.read()
	if err != nil {
		return summary, err
	}
	if header == nil {
		return summary, fmt.Errorf("settle: history %s is empty", l.path)
	}

	byMatch := make(map[string]domain.MatchResult, len(results))
	for _, r := range results {
		byMatch[domain.NormalizeMatchLabel(r.Match())] = r
	}

	wanted := append(append([]string(nil), HistoryHeader...), ColResultOver15, ColResultResult)
	union, _ := unionHeader(header, wanted)
	rows = realign(header, union, rows)
	index := columnIndex(union)

	for _, row := range rows {
		if row[index[ColDate]] != date {
			continue
		}
		summary.Rows++

		result, ok := byMatch[domain.NormalizeMatchLabel(row[index[ColMatch]])]
		if !ok {
			summary.Unmatched++
			continue
		}

		changed := false
		if cell := &row[index[ColResultOver15]]; *cell == "" && row[index[ColDecisionOver15]] != domain.LabelAvoid {
			*cell = string(result.Over15())
			changed = true
		}
		if cell := &row[index[ColResultResult]]; *cell == "" {
			switch domain.ResultSideFromLabel(row[index[ColDecisionResult]]) {
			case domain.SideA:
				*cell = string(result.HomeOrDraw())
				changed = true
			case domain.SideB:
				*cell = string(result.AwayOrDraw())
				changed = true
			}
		}
		if changed {
			summary.Settled++
		}
	}

	if err := l.rewrite(union, rows); err != nil {
		return summary, err
	}
	return summary, nil
}
