package database

import (
	"log/slog"

	"price-pipeline/internal/database/versions"
	"price-pipeline/internal/database/versions/migration_1"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID:      "0",
			Migrate: versions.Migration0,
		},
		{
			ID:       "1",
			Migrate:  migration_1.Migration,
			Rollback: migration_1.Rollback,
		},
	})

	migrator.InitSchema(func(txn *gorm.DB) error {
		// Runs instead of the migration list when the database is empty, creating
		// the latest schema directly.
		slog.Info("clean database detected, running full schema initialization")
		return txn.AutoMigrate(&RunRecord{})
	})

	return migrator
}
