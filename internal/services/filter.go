package services

import (
	"strings"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"github.com/samber/lo"
)

// ApplyModelFilters applies the search's whitelist and then blacklist over
// derived model names. A non-empty whitelist keeps only listings whose model
// contains one of its terms; the blacklist then drops matching models.
// Listings without a model never match the blacklist and so pass it.
func ApplyModelFilters(listings []entities.Listing, whitelist, blacklist []string) []entities.Listing {

	filtered := listings
	if len(whitelist) > 0 {
		filtered = lo.Filter(filtered, func(listing entities.Listing, _ int) bool {
			return listing.Model != nil && modelMatchesAny(*listing.Model, whitelist)
		})
	}

	if len(blacklist) > 0 {
		filtered = lo.Filter(filtered, func(listing entities.Listing, _ int) bool {
			return listing.Model == nil || !modelMatchesAny(*listing.Model, blacklist)
		})
	}

	return filtered
}

func modelMatchesAny(model string, terms []string) bool {
	lowered := strings.ToLower(model)
	return lo.SomeBy(terms, func(term string) bool {
		return strings.Contains(lowered, strings.ToLower(term))
	})
}
