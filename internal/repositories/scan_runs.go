package repositories

import (
	"context"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"gorm.io/gorm"
)

// ScanRuns is the append-only execution log of scanner invocations.
type ScanRuns struct {
	db *gorm.DB
}

func NewScanRunsRepository(db *gorm.DB) *ScanRuns {
	return &ScanRuns{db: db}
}

func (repo *ScanRuns) Add(ctx context.Context, run entities.ScanRun) error {
	return repo.db.WithContext(ctx).Create(&run).Error
}

func (repo *ScanRuns) GetRecent(ctx context.Context, searchID int, limit int) ([]entities.ScanRun, error) {

	query := repo.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if searchID != 0 {
		query = query.Where("search_id = ?", searchID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []entities.ScanRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
