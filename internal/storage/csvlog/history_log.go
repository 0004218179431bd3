// Package csvlog keeps the append-only history CSV that audits every evaluation.
package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"safe-bets/internal/domain"
)

// Canonical history columns, in file order.
const (
	ColDate             = "Date"
	ColMatch            = "Match"
	ColTeamAID          = "Team_A_ID"
	ColTeamBID          = "Team_B_ID"
	ColLeagueID         = "League_ID"
	ColDecisionOver15   = "Decision_Over15"
	ColDecisionResult   = "Decision_Result"
	ColOverIndex        = "O15I"
	ColRSIA             = "RSI_A"
	ColConfidenceOver15 = "Confidence_Over15"
	ColConfidenceResult = "Confidence_Result"
	ColFlags            = "Flags"

	// Added by settlement.
	ColResultOver15 = "Result_Over15"
	ColResultResult = "Result_Result"
)

// HistoryHeader is the header written to a new history file.
var HistoryHeader = []string{
	ColDate, ColMatch, ColTeamAID, ColTeamBID, ColLeagueID,
	ColDecisionOver15, ColDecisionResult, ColOverIndex, ColRSIA,
	ColConfidenceOver15, ColConfidenceResult, ColFlags,
}

// ErrMalformedHistory is returned when the existing file cannot be parsed as CSV.
var ErrMalformedHistory = errors.New("malformed history file")

// HistoryLog appends evaluations to a CSV file.
// One HistoryLog per file; methods serialise on an internal mutex.
type HistoryLog struct {
	mu   sync.Mutex
	path string
}

// NewHistoryLog creates a history log for path. The file is created on first append.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path}
}

// Path returns the file path.
func (l *HistoryLog) Path() string {
	return l.path
}

// Append writes one row per entry.
// The header is written only when the file is new. Columns already present in an
// existing header are kept and left empty for new rows; canonical columns missing from
// it are added by rewriting the file once before appending.
func (l *HistoryLog) Append(entries []*domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	header, rows, err := l.read()
	if err != nil {
		return err
	}

	if header == nil {
		return l.write(HistoryHeader, toRecords(HistoryHeader, entries), os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	}

	if union, changed := unionHeader(header, HistoryHeader); changed {
		if err := l.rewrite(union, realign(header, union, rows)); err != nil {
			return err
		}
		header = union
	}

	return l.write(nil, toRecords(header, entries), os.O_APPEND|os.O_WRONLY)
}

// ReadAll returns the header and every data row. A missing file yields nil, nil.
func (l *HistoryLog) ReadAll() ([]string, [][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// read parses the file. Missing or empty files return a nil header.
func (l *HistoryLog) read() ([]string, [][]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedHistory, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedHistory, err)
	}
	return header, rows, nil
}

// write writes an optional header and rows with the given open flags.
func (l *HistoryLog) write(header []string, rows [][]string, flag int) error {
	f, err := os.OpenFile(l.path, flag, 0o644)
	if err != nil {
		return fmt.Errorf("open history for write: %w", err)
	}

	w := csv.NewWriter(f)
	if header != nil {
		if err := w.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("write history header: %w", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write history rows: %w", err)
	}
	return f.Close()
}

// rewrite replaces the file through a temp file in the same directory.
func (l *HistoryLog) rewrite(header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	err = w.Write(header)
	if err == nil {
		err = w.WriteAll(rows)
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// unionHeader appends the wanted columns missing from existing.
func unionHeader(existing, wanted []string) ([]string, bool) {
	have := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		have[c] = struct{}{}
	}

	union := append([]string(nil), existing...)
	for _, c := range wanted {
		if _, ok := have[c]; !ok {
			union = append(union, c)
		}
	}
	return union, len(union) != len(existing)
}

// realign maps rows written under from onto the column order of to.
func realign(from, to []string, rows [][]string) [][]string {
	index := columnIndex(from)
	out := make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, len(to))
		for j, col := range to {
			if k, ok := index[col]; ok && k < len(row) {
				rec[j] = row[k]
			}
		}
		out[i] = rec
	}
	return out
}

func columnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, c := range header {
		index[c] = i
	}
	return index
}

// toRecords renders entries under header; unknown columns are left empty.
func toRecords(header []string, entries []*domain.HistoryEntry) [][]string {
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		values := entryValues(e)
		rec := make([]string, len(header))
		for i, col := range header {
			rec[i] = values[col]
		}
		records = append(records, rec)
	}
	return records
}

func entryValues(e *domain.HistoryEntry) map[string]string {
	return map[string]string{
		ColDate:             e.RunDate,
		ColMatch:            e.Match,
		ColTeamAID:          strconv.Itoa(e.TeamAID),
		ColTeamBID:          strconv.Itoa(e.TeamBID),
		ColLeagueID:         strconv.Itoa(e.LeagueID),
		ColDecisionOver15:   e.DecisionOver15,
		ColDecisionResult:   e.DecisionResult,
		ColOverIndex:        formatFloat(e.OverIndex),
		ColRSIA:             formatFloat(e.RSIA),
		ColConfidenceOver15: formatFloat(e.ConfidenceOver15),
		ColConfidenceResult: formatFloat(e.ConfidenceResult),
		ColFlags:            e.Flags.String(),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
