package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(entities.SavedSearch{})
	if err != nil {
		return fmt.Errorf("failed to migrate SavedSearch entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.SeenID{})
	if err != nil {
		return fmt.Errorf("failed to migrate SeenID entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Alert{})
	if err != nil {
		return fmt.Errorf("failed to migrate Alert entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.ScanRun{})
	if err != nil {
		return fmt.Errorf("failed to migrate ScanRun entity: %w", err)
	}

	if err = c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_seen_search_listing ON seen_ids (search_id, listing_id); " +
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_alert_search_listing ON alerts (search_id, listing_id);").
		Error; err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
