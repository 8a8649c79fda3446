package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

// No default here: existing rows must come out NULL so they get backfilled.
type RunRecord struct {
	RowsDropped int
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&RunRecord{}, "rows_dropped"); err != nil {
		return fmt.Errorf("error adding RowsDropped column: %w", err)
	}

	// Completed runs stored rows in and out; the difference is what was dropped.
	if err := db.Model(&RunRecord{}).
		Where("rows_dropped IS NULL").
		Update("rows_dropped", gorm.Expr("CASE WHEN status = ? THEN rows_in - rows_out ELSE 0 END", "COMPLETED")).Error; err != nil {
		return fmt.Errorf("error backfilling RowsDropped: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&RunRecord{}, "rows_dropped"); err != nil {
		return fmt.Errorf("error dropping RowsDropped column: %w", err)
	}
	return nil
}
