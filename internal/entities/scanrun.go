package entities

import "time"

// ScanRun is the append-only execution log of one scanner invocation.
type ScanRun struct {
	ID             int
	SearchID       int
	PagesScanned   int
	FoundCount     int
	NewCount       int
	FirstListingID string
	StopReason     string
	DurationMs     int64
	RequestCount   int
	Error          string
	CreatedAt      time.Time
}
