package entities

import "time"

type AlertStatus string

const (
	AlertNew      AlertStatus = "new"
	AlertSeen     AlertStatus = "seen"
	AlertOpened   AlertStatus = "opened"
	AlertMuted    AlertStatus = "muted"
	AlertFavorite AlertStatus = "favorite"
)

// Alert is the persisted snapshot of a newly detected listing that passed
// the model filters. Status is the only mutable field.
type Alert struct {
	ID            int
	SearchID      int
	ListingID     string
	Subject       string
	Price         string
	Municipality  string
	Neighbourhood string
	AdURL         string
	Model         *string
	MileageKm     *int
	Status        AlertStatus
	CollectedAt   time.Time
	CreatedAt     time.Time
}

func NewAlert(listing Listing) Alert {
	return Alert{
		SearchID:      listing.SearchID,
		ListingID:     listing.ListingID,
		Subject:       listing.Subject,
		Price:         listing.Price,
		Municipality:  listing.Municipality,
		Neighbourhood: listing.Neighbourhood,
		AdURL:         listing.AdURL,
		Model:         listing.Model,
		MileageKm:     listing.MileageKm,
		Status:        AlertNew,
		CollectedAt:   listing.CollectedAt,
	}
}
