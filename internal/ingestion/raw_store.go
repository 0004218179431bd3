package ingestion

import (
	"sort"

	"safe-bets/internal/domain"
)

// RawStore indexes usable season records by team and season.
// It is filled by the stats reader and only read afterwards.
type RawStore struct {
	records map[int]map[string]*domain.SeasonRecord
}

// NewRawStore creates an empty store.
func NewRawStore() *RawStore {
	return &RawStore{records: make(map[int]map[string]*domain.SeasonRecord)}
}

// Add stores r, replacing any record of the same team and season.
// Reports whether a record was replaced.
func (s *RawStore) Add(r *domain.SeasonRecord) bool {
	bySeason, ok := s.records[r.TeamID]
	if !ok {
		bySeason = make(map[string]*domain.SeasonRecord)
		s.records[r.TeamID] = bySeason
	}
	_, replaced := bySeason[r.Season]
	bySeason[r.Season] = r
	return replaced
}

// Lookup returns the record of a team for one season.
func (s *RawStore) Lookup(teamID int, season string) (*domain.SeasonRecord, bool) {
	r, ok := s.records[teamID][season]
	return r, ok
}

// TeamIDs returns every team with at least one record, ascending.
func (s *RawStore) TeamIDs() []int {
	ids := make([]int, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Seasons returns every season present, most recent first.
func (s *RawStore) Seasons() []string {
	seen := make(map[string]struct{})
	for _, bySeason := range s.records {
		for season := range bySeason {
			seen[season] = struct{}{}
		}
	}

	seasons := make([]string, 0, len(seen))
	for season := range seen {
		seasons = append(seasons, season)
	}
	sort.Slice(seasons, func(i, j int) bool {
		return seasonLess(seasons[j], seasons[i])
	})
	return seasons
}

// Len returns the number of stored records.
func (s *RawStore) Len() int {
	n := 0
	for _, bySeason := range s.records {
		n += len(bySeason)
	}
	return n
}
