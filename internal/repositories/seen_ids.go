package repositories

import (
	"context"
	"time"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultSeenIDsCap = 2000

// SeenIDs maintains the capped per-search record of already observed
// listing ids.
type SeenIDs struct {
	db  *gorm.DB
	cap int
}

func NewSeenIDsRepository(db *gorm.DB, cap int) *SeenIDs {
	if cap <= 0 {
		cap = DefaultSeenIDsCap
	}
	return &SeenIDs{db: db, cap: cap}
}

func (repo *SeenIDs) GetIDs(ctx context.Context, searchID int) (map[string]struct{}, error) {

	var ids []string
	if err := repo.db.WithContext(ctx).Model(&entities.SeenID{}).
		Where("search_id = ?", searchID).
		Pluck("listing_id", &ids).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// Record inserts all given ids, silently skipping ones already present,
// then evicts the oldest rows beyond the cap. Idempotent.
func (repo *SeenIDs) Record(ctx context.Context, searchID int, listingIDs []string) error {

	if len(listingIDs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]entities.SeenID, 0, len(listingIDs))
	for _, id := range listingIDs {
		rows = append(rows, entities.SeenID{
			SearchID:    searchID,
			ListingID:   id,
			FirstSeenAt: now,
		})
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return err
	}

	return repo.evictBeyondCap(ctx, searchID)
}

func (repo *SeenIDs) evictBeyondCap(ctx context.Context, searchID int) error {
	return repo.db.WithContext(ctx).Exec(
		`DELETE FROM seen_ids WHERE search_id = ? AND id NOT IN (
			SELECT id FROM seen_ids WHERE search_id = ?
			ORDER BY first_seen_at DESC, id DESC LIMIT ?)`,
		searchID, searchID, repo.cap).Error
}

func (repo *SeenIDs) CountForSearch(ctx context.Context, searchID int) (int64, error) {

	var count int64
	if err := repo.db.WithContext(ctx).Model(&entities.SeenID{}).
		Where("search_id = ?", searchID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
