package repositories

import (
	"context"
	"time"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"gorm.io/gorm"
)

type Searches struct {
	db *gorm.DB
}

func NewSearchRepository(db *gorm.DB) *Searches {
	return &Searches{db: db}
}

func (repo *Searches) Add(ctx context.Context, search entities.SavedSearch) error {
	return repo.db.WithContext(ctx).Create(&search).Error
}

func (repo *Searches) Get(ctx context.Context) ([]entities.SavedSearch, error) {

	var searches []entities.SavedSearch
	if err := repo.db.WithContext(ctx).Find(&searches).Error; err != nil {
		return nil, err
	}
	return searches, nil
}

func (repo *Searches) GetByID(ctx context.Context, searchID int) (*entities.SavedSearch, error) {

	var search entities.SavedSearch
	if err := repo.db.WithContext(ctx).First(&search, "id = ?", searchID).Error; err != nil {
		return nil, err
	}
	return &search, nil
}

func (repo *Searches) Update(ctx context.Context, search entities.SavedSearch) error {
	return repo.db.WithContext(ctx).Model(&entities.SavedSearch{}).Where("id = ?", search.ID).Updates(search).Error
}

func (repo *Searches) UpdateLastScanned(ctx context.Context, searchID int, scannedAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.SavedSearch{}).Where("id = ?", searchID).
		Updates(map[string]any{
			"last_scanned_at": scannedAt.UTC(),
		}).Error
}

// Remove deletes a search together with its seen-set, alerts and scan log.
func (repo *Searches) Remove(ctx context.Context, searchID int) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entities.SeenID{}, "search_id = ?", searchID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entities.Alert{}, "search_id = ?", searchID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entities.ScanRun{}, "search_id = ?", searchID).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.SavedSearch{ID: searchID}).Error
	})
}
