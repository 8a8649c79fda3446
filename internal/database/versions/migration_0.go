package versions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunRecord struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	WorkflowName string `gorm:"not null;index:idx_run_records_workflow_run"`
	RunId        string `gorm:"not null;index:idx_run_records_workflow_run"`

	SourceBucket string
	SourceKey    string
	DestBucket   sql.NullString
	DestKey      sql.NullString

	Status       string `gorm:"size:20;not null"`
	ErrorMessage sql.NullString

	RowsIn  int  `gorm:"default:0"`
	RowsOut int  `gorm:"default:0"`
	Anomaly bool `gorm:"default:false"`

	CreationTime   time.Time
	CompletionTime sql.NullTime
}

func Migration0(db *gorm.DB) error {
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return fmt.Errorf("error creating run_records table: %w", err)
	}
	return nil
}
