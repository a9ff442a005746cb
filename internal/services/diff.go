package services

import (
	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"github.com/samber/lo"
)

// Diff returns the listings whose id is absent from the seen-set. Pure set
// subtraction; no storage or network access happens here.
func Diff(current []entities.Listing, seen map[string]struct{}) []entities.Listing {
	return lo.Filter(current, func(listing entities.Listing, _ int) bool {
		_, ok := seen[listing.ListingID]
		return !ok
	})
}
