package services

import (
	"testing"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"github.com/stretchr/testify/assert"
)

func listingsWithIDs(ids ...string) []entities.Listing {
	listings := make([]entities.Listing, 0, len(ids))
	for _, id := range ids {
		listings = append(listings, entities.Listing{ListingID: id})
	}
	return listings
}

func Test_Diff_ReturnsOnlyUnseenListings(t *testing.T) {

	current := listingsWithIDs("1", "2", "3")
	seen := map[string]struct{}{"2": {}}

	fresh := Diff(current, seen)

	assert.Equal(t, listingsWithIDs("1", "3"), fresh)
}

func Test_Diff_EmptyCurrentYieldsEmptyResult(t *testing.T) {
	assert.Empty(t, Diff(nil, map[string]struct{}{"1": {}}))
}

func Test_Diff_IsIdempotentForSameSeenSet(t *testing.T) {

	current := listingsWithIDs("1", "2", "3")
	seen := map[string]struct{}{"3": {}}

	first := Diff(current, seen)
	second := Diff(current, seen)

	assert.Equal(t, first, second)
}

func Test_Diff_AllSeenYieldsEmptyResult(t *testing.T) {

	current := listingsWithIDs("1", "2")
	seen := map[string]struct{}{"1": {}, "2": {}}

	assert.Empty(t, Diff(current, seen))
}
