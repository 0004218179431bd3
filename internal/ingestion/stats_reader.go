package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"safe-bets/internal/domain"
)

// maxLineBytes bounds one JSONL line.
const maxLineBytes = 1 << 20

// Loader reads the input files of a run. Per-line problems are logged and skipped.
type Loader struct {
	logger *log.Logger
}

// NewLoader creates a new input loader. A nil logger uses log.Default().
func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{logger: logger}
}

// ReadSummary counts what a stats read did.
type ReadSummary struct {
	Lines     int // non-blank lines
	Loaded    int // records stored
	Malformed int // lines that are not a JSON object
	Unusable  int // unavailable, missing team_id or played_total
	Replaced  int // duplicate (team, season) lines that overrode an earlier one
}

// rawRecord is the wire form of one statistics line.
type rawRecord struct {
	TeamID          *int       `json:"team_id"`
	TeamName        string     `json:"team_name"`
	LeagueID        flexInt    `json:"league_id"`
	Season          flexString `json:"season"`
	Available       *bool      `json:"available"`
	Stats           rawStats   `json:"stats"`
	SourceTimestamp string     `json:"source_timestamp"`
}

type rawStats struct {
	PlayedTotal        *flexFloat `json:"played_total"`
	WinsTotal          *flexFloat `json:"wins_total"`
	GoalsForAvg        *flexFloat `json:"goals_for_avg"`
	GoalsAgainstAvg    *flexFloat `json:"goals_against_avg"`
	CleanSheetsTotal   *flexFloat `json:"clean_sheets_total"`
	FailedToScoreTotal *flexFloat `json:"failed_to_score_total"`
	Over15Rate         *flexFloat `json:"over_1_5_rate"`

	// Legacy keys.
	GFAvg            *flexFloat `json:"gf_avg"`
	GAAvg            *flexFloat `json:"ga_avg"`
	LegacyOver15Rate *flexFloat `json:"over15_rate"`
}

// ReadStatsFile reads a JSONL statistics file into store.
// A file that cannot be opened is an error; bad lines are not.
func (l *Loader) ReadStatsFile(path string, store *RawStore) (ReadSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReadSummary{}, fmt.Errorf("open stats %s: %w", path, err)
	}
	defer f.Close()

	summary, err := l.ReadStats(f, path, store)
	if err != nil {
		return summary, err
	}

	l.logger.Printf("Read %s: %d lines, %d loaded, %d malformed, %d unusable, %d replaced",
		path, summary.Lines, summary.Loaded, summary.Malformed, summary.Unusable, summary.Replaced)
	return summary, nil
}

// ReadStats reads JSONL from r into store. source names r in log lines.
func (l *Loader) ReadStats(r io.Reader, source string, store *RawStore) (ReadSummary, error) {
	var summary ReadSummary

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		summary.Lines++

		var raw rawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			summary.Malformed++
			l.warnf("%s:%d: malformed line: %v", source, lineNo, err)
			continue
		}

		rec, reason := raw.toRecord()
		if rec == nil {
			summary.Unusable++
			l.warnf("%s:%d: skipped: %s", source, lineNo, reason)
			continue
		}

		if store.Add(rec) {
			summary.Replaced++
			l.warnf("%s:%d: duplicate team %d season %s, later line wins",
				source, lineNo, rec.TeamID, rec.Season)
		}
		summary.Loaded++
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scan %s: %w", source, err)
	}
	return summary, nil
}

func (l *Loader) warnf(format string, args ...interface{}) {
	l.logger.Printf("WARN: "+format, args...)
}

// toRecord converts the wire form, or explains why the line is unusable.
func (raw *rawRecord) toRecord() (*domain.SeasonRecord, string) {
	if raw.TeamID == nil || *raw.TeamID == 0 {
		return nil, "missing team_id"
	}
	if raw.Available != nil && !*raw.Available {
		return nil, fmt.Sprintf("team %d marked unavailable", *raw.TeamID)
	}

	rec := &domain.SeasonRecord{
		TeamID:          *raw.TeamID,
		TeamName:        raw.TeamName,
		LeagueID:        int(raw.LeagueID),
		Season:          string(raw.Season),
		SourceTimestamp: raw.SourceTimestamp,
		Stats: domain.SeasonStats{
			PlayedTotal:        raw.Stats.PlayedTotal.ptr(),
			WinsTotal:          raw.Stats.WinsTotal.ptr(),
			GoalsForAvg:        firstOf(raw.Stats.GoalsForAvg, raw.Stats.GFAvg),
			GoalsAgainstAvg:    firstOf(raw.Stats.GoalsAgainstAvg, raw.Stats.GAAvg),
			CleanSheetsTotal:   raw.Stats.CleanSheetsTotal.ptr(),
			FailedToScoreTotal: raw.Stats.FailedToScoreTotal.ptr(),
			Over15Rate:         firstOf(raw.Stats.Over15Rate, raw.Stats.LegacyOver15Rate),
		},
	}
	if rec.TeamName == "" {
		rec.TeamName = "Team " + strconv.Itoa(rec.TeamID)
	}
	if !rec.Usable() {
		return nil, fmt.Sprintf("team %d has no played_total", rec.TeamID)
	}
	return rec, ""
}

func firstOf(values ...*flexFloat) *float64 {
	for _, v := range values {
		if p := v.ptr(); p != nil {
			return p
		}
	}
	return nil
}

// flexFloat accepts a JSON number, a numeric string or null.
// The sports API reports some averages as strings.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	f.value, f.set = v, true
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if f == nil || !f.set {
		return nil
	}
	v := f.value
	return &v
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("season must be a string or number: %s", data)
	}
	*s = flexString(num.String())
	return nil
}

// flexInt accepts a JSON number or numeric string.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*i = flexInt(v)
	return nil
}
