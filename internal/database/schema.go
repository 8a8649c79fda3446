package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	RunQueued    string = "QUEUED"
	RunRunning   string = "RUNNING"
	RunCompleted string = "COMPLETED"
	RunFailed    string = "FAILED"
)

// RunRecord is one transformer run. WorkflowName + RunId is what Glue knows
// the run as; Id is ours.
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

	RowsIn      int  `gorm:"default:0"`
	RowsDropped int  `gorm:"default:0"`
	RowsOut     int  `gorm:"default:0"`
	Anomaly     bool `gorm:"default:false"`

	CreationTime   time.Time
	CompletionTime sql.NullTime
}
