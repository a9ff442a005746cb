package entities

import "time"

// SeenID marks a listing id as already observed for a search. At most one
// row exists per (search id, listing id); rows are only removed by the
// per-search cap eviction or when the search itself is deleted.
type SeenID struct {
	ID          int
	SearchID    int
	ListingID   string
	FirstSeenAt time.Time
}
