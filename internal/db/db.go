package db

import (
	"fmt"

	"deckhand/internal/auth"
	"deckhand/internal/jobs"
	"deckhand/internal/prefs"
	"deckhand/internal/store"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&store.CardRecord{},
		&jobs.Job{},
		&prefs.Preference{},
		&auth.User{},
	); err != nil {
		return err
	}

	// Tag filter (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_cards_tags on cards using gin (tags);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	// Note: table/column names depend on GORM naming. Default is snake_case plural.
	stmts := []string{
		`create index if not exists idx_cards_status_created on cards(status, created_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
