package events

import "github.com/rcoelho-dev/olx-radar/internal/entities"

var AlertsCreatedTopic = "AlertsCreatedEvent"

// AlertsCreated is published once per scan that produced new alerts. The
// notification surfaces (extension badge, push) subscribe outside the core.
type AlertsCreated struct {
	Search entities.SavedSearch
	Alerts []entities.Alert
}
