package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type alertCleanupRepository interface {
	RemoveOld(ctx context.Context, before time.Time) (int64, error)
}

// AlertsCleaner removes alerts past the retention window once a day.
type AlertsCleaner struct {
	alerts          alertCleanupRepository
	cron            *cron.Cron
	retentionInDays int
}

func NewAlertsCleaner(alerts alertCleanupRepository, retentionInDays int) (*AlertsCleaner, error) {

	if retentionInDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	ac := &AlertsCleaner{
		alerts:          alerts,
		cron:            cron.New(),
		retentionInDays: retentionInDays,
	}

	_, err := ac.cron.AddFunc("0 0 * * *", ac.cleanOldAlerts)
	if err != nil {
		return nil, err
	}

	ac.cron.Start()
	log.Infof("alerts cleaner started, retention in days: %d", ac.retentionInDays)
	return ac, nil
}

func (ac *AlertsCleaner) Stop() {
	ac.cron.Stop()
}

func (ac *AlertsCleaner) cleanOldAlerts() {
	before := time.Now().Add(-time.Duration(ac.retentionInDays) * 24 * time.Hour)
	rowsAffected, err := ac.alerts.RemoveOld(context.Background(), before)
	if err != nil {
		log.Errorf("Failed to clean old alerts: %v", err)
	} else {
		log.Infof("Old alerts were cleaned at %v, affected rows: %v", time.Now(), rowsAffected)
	}
}
