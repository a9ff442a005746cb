package repositories

import (
	"context"
	"time"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"gorm.io/gorm"
)

type Alerts struct {
	db *gorm.DB
}

func NewAlertsRepository(db *gorm.DB) *Alerts {
	return &Alerts{db: db}
}

// Insert persists one row per listing. Callers guarantee the listings are
// already diffed as new; the unique (search_id, listing_id) index backstops
// that contract.
func (repo *Alerts) Insert(ctx context.Context, alerts []entities.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return repo.db.WithContext(ctx).Create(&alerts).Error
}

// Get returns alerts newest-first. searchID 0 loads all searches; limit 0
// means no limit.
func (repo *Alerts) Get(ctx context.Context, searchID int, limit int) ([]entities.Alert, error) {

	query := repo.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if searchID != 0 {
		query = query.Where("search_id = ?", searchID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var alerts []entities.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (repo *Alerts) UpdateStatus(ctx context.Context, alertID int, status entities.AlertStatus) error {
	return repo.db.WithContext(ctx).Model(&entities.Alert{}).Where("id = ?", alertID).
		Update("status", status).Error
}

func (repo *Alerts) RemoveOld(ctx context.Context, before time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Delete(&entities.Alert{}, "created_at < ?", before)
	return res.RowsAffected, res.Error
}
