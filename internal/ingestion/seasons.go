package ingestion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Season detection errors.
var (
	ErrNoSeasons     = errors.New("no season present in raw statistics")
	ErrUnknownSeason = errors.New("requested season not present in raw statistics")
)

// DetectSeasons picks the current and prior seasons.
// current defaults to the most recent season present; prior is the most recent
// season older than current, or "" when there is none.
func DetectSeasons(store *RawStore, current string) (string, string, error) {
	seasons := store.Seasons()
	if len(seasons) == 0 {
		return "", "", ErrNoSeasons
	}

	if current == "" {
		current = seasons[0]
	} else if !containsSeason(seasons, current) {
		return "", "", fmt.Errorf("%w: %s (have %s)", ErrUnknownSeason, current, strings.Join(seasons, ", "))
	}

	for _, s := range seasons {
		if seasonLess(s, current) {
			return current, s, nil
		}
	}
	return current, "", nil
}

func containsSeason(seasons []string, season string) bool {
	for _, s := range seasons {
		if s == season {
			return true
		}
	}
	return false
}

// seasonLess orders seasons by start year when both parse ("2024", "2024/2025",
// "2024-25"), else lexically.
func seasonLess(a, b string) bool {
	ya, errA := seasonStartYear(a)
	yb, errB := seasonStartYear(b)
	if errA == nil && errB == nil && ya != yb {
		return ya < yb
	}
	return a < b
}

func seasonStartYear(season string) (int, error) {
	head := season
	if i := strings.IndexAny(season, "/-"); i > 0 {
		head = season[:i]
	}
	return strconv.Atoi(strings.TrimSpace(head))
}
