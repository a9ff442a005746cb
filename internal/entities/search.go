package entities

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// SavedSearch is one monitored classifieds search. The CRUD layer owns these
// rows; the scanner consumes them read-only during a sweep.
type SavedSearch struct {
	ID              int
	Name            string
	SearchURL       string
	IntervalMinutes int
	ModelWhitelist  string
	ModelBlacklist  string
	MinGroupSize    int
	LastScannedAt   time.Time
	CreatedAt       time.Time
}

func NewSavedSearch(name, searchURL string, intervalMinutes int, whitelist, blacklist []string) *SavedSearch {
	return &SavedSearch{
		Name:            name,
		SearchURL:       searchURL,
		IntervalMinutes: intervalMinutes,
		ModelWhitelist:  strings.Join(whitelist, ","),
		ModelBlacklist:  strings.Join(blacklist, ","),
	}
}

func (s *SavedSearch) WhitelistAsArray() []string {
	return splitTerms(s.ModelWhitelist)
}

func (s *SavedSearch) BlacklistAsArray() []string {
	return splitTerms(s.ModelBlacklist)
}

// IsDue reports whether enough time has passed since the last scan.
func (s *SavedSearch) IsDue(now time.Time) bool {
	if s.LastScannedAt.IsZero() {
		return true
	}
	return now.Sub(s.LastScannedAt) >= time.Duration(s.IntervalMinutes)*time.Minute
}

func splitTerms(joined string) []string {
	if joined == "" {
		return []string{}
	}

	terms := lo.Map(strings.Split(joined, ","), func(term string, _ int) string {
		return strings.TrimSpace(term)
	})
	return lo.Filter(terms, func(term string, _ int) bool { return term != "" })
}
