package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDbContext(t *testing.T) *DbContext {
	dbContext, err := NewDbContext(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	require.NoError(t, dbContext.Migrate())
	t.Cleanup(func() { _ = dbContext.Close() })
	return dbContext
}

func Test_SeenIDs_RecordIsIdempotent(t *testing.T) {

	dbContext := newTestDbContext(t)
	repo := NewSeenIDsRepository(dbContext.DB, 100)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, 1, []string{"a", "b"}))
	require.NoError(t, repo.Record(ctx, 1, []string{"b", "c"}))

	seen, err := repo.GetIDs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.Contains(t, seen, "a")
	assert.Contains(t, seen, "b")
	assert.Contains(t, seen, "c")
}

func Test_SeenIDs_SearchesDoNotShareSeenSets(t *testing.T) {

	dbContext := newTestDbContext(t)
	repo := NewSeenIDsRepository(dbContext.DB, 100)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, 1, []string{"a"}))
	require.NoError(t, repo.Record(ctx, 2, []string{"b"}))

	seen, err := repo.GetIDs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
	assert.Contains(t, seen, "a")
}

func Test_SeenIDs_CapEvictsOldestFirstSeen(t *testing.T) {

	dbContext := newTestDbContext(t)
	repo := NewSeenIDsRepository(dbContext.DB, 5)
	ctx := context.Background()

	// Insert with distinct first-seen times so eviction order is unambiguous.
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 8; i++ {
		row := entities.SeenID{
			SearchID:    1,
			ListingID:   fmt.Sprintf("id-%d", i),
			FirstSeenAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, dbContext.DB.Create(&row).Error)
	}
	require.NoError(t, repo.Record(ctx, 1, []string{"id-8"}))

	count, err := repo.CountForSearch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	seen, err := repo.GetIDs(ctx, 1)
	require.NoError(t, err)
	// The most recently first-seen entries survive.
	assert.Contains(t, seen, "id-8")
	assert.Contains(t, seen, "id-7")
	assert.NotContains(t, seen, "id-0")
	assert.NotContains(t, seen, "id-1")
}

func Test_SeenIDs_CapIsPerSearch(t *testing.T) {

	dbContext := newTestDbContext(t)
	repo := NewSeenIDsRepository(dbContext.DB, 3)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, 1, []string{"a", "b", "c"}))
	require.NoError(t, repo.Record(ctx, 2, []string{"d", "e", "f"}))

	countOne, err := repo.CountForSearch(ctx, 1)
	require.NoError(t, err)
	countTwo, err := repo.CountForSearch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), countOne)
	assert.Equal(t, int64(3), countTwo)
}
