package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Alerts_GetFiltersBySearch(t *testing.T) {

	dbContext := newTestDbContext(t)
	repo := NewAlertsRepository(dbContext.DB)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, []entities.Alert{
		{SearchID: 1, ListingID: "a", Status: entities.AlertNew},
		{SearchID: 1, ListingID: "b", Status: entities.AlertNew},
		{SearchID: 2, ListingID: "c", Status: entities.AlertNew},
	}))

	alerts, err := repo.Get(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	all, err := repo.Get(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func Test_Alerts_UpdateStatus(t *testing.T) {

	dbContext := newTestDbContext(t)
	repo := NewAlertsRepository(dbContext.DB)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, []entities.Alert{
		{SearchID: 1, ListingID: "a", Status: entities.AlertNew},
	}))

	alerts, err := repo.Get(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	require.NoError(t, repo.UpdateStatus(ctx, alerts[0].ID, entities.AlertFavorite))

	alerts, err = repo.Get(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.AlertFavorite, alerts[0].Status)
}

func Test_Alerts_RemoveOldRespectsRetentionBoundary(t *testing.T) {

	dbContext := newTestDbContext(t)
	repo := NewAlertsRepository(dbContext.DB)
	ctx := context.Background()

	old := entities.Alert{SearchID: 1, ListingID: "old", Status: entities.AlertNew,
		CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := entities.Alert{SearchID: 1, ListingID: "recent", Status: entities.AlertNew,
		CreatedAt: time.Now()}
	require.NoError(t, dbContext.DB.Create(&old).Error)
	require.NoError(t, dbContext.DB.Create(&recent).Error)

	removed, err := repo.RemoveOld(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	alerts, err := repo.Get(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "recent", alerts[0].ListingID)
}

func Test_Searches_RemoveCascadesSeenIDsAlertsAndRuns(t *testing.T) {

	dbContext := newTestDbContext(t)
	searches := NewSearchRepository(dbContext.DB)
	seenIDs := NewSeenIDsRepository(dbContext.DB, 100)
	alerts := NewAlertsRepository(dbContext.DB)
	runs := NewScanRunsRepository(dbContext.DB)
	ctx := context.Background()

	search := entities.SavedSearch{ID: 1, Name: "civic", SearchURL: "https://www.olx.com.br/autos"}
	require.NoError(t, searches.Add(ctx, search))
	require.NoError(t, seenIDs.Record(ctx, 1, []string{"a"}))
	require.NoError(t, alerts.Insert(ctx, []entities.Alert{{SearchID: 1, ListingID: "a"}}))
	require.NoError(t, runs.Add(ctx, entities.ScanRun{SearchID: 1, StopReason: "completed"}))

	require.NoError(t, searches.Remove(ctx, 1))

	seen, err := seenIDs.GetIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, seen)

	remaining, err := alerts.Get(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	recent, err := runs.GetRecent(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
