package entities

import "time"

// Listing is the canonical normalized record produced by the parser.
// It is immutable once created and only persisted (as an Alert) for
// listings that were not previously seen.
type Listing struct {
	ListingID     string
	SearchID      int
	Subject       string
	Price         string
	Municipality  string
	Neighbourhood string
	AdURL         string
	Model         *string
	MileageKm     *int
	CollectedAt   time.Time
}
