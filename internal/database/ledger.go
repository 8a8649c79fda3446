package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"price-pipeline/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("run not found")

// RunSummary is what a finished run reports back to the ledger.
type RunSummary struct {
	Dest        models.ObjectRef
	RowsIn      int
	RowsDropped int
	RowsOut     int
	Anomaly     bool
}

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Start records a run as QUEUED. The source is empty unless it was given
// explicitly; it is filled in by Running once the trigger is resolved.
func (l *Ledger) Start(ctx context.Context, rc models.RunContext, source models.ObjectRef) (uuid.UUID, error) {
	record := RunRecord{
		Id:           uuid.New(),
		WorkflowName: rc.WorkflowName,
		RunId:        rc.RunId,
		SourceBucket: source.Bucket,
		SourceKey:    source.Key,
		Status:       RunQueued,
		CreationTime: time.Now().UTC(),
	}

	if err := l.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error creating run record", "workflow", rc.WorkflowName, "run_id", rc.RunId, "error", err)
		return uuid.Nil, fmt.Errorf("error creating run record: %w", err)
	}
	return record.Id, nil
}

// Running moves a queued run to RUNNING once its source object is known.
func (l *Ledger) Running(ctx context.Context, id uuid.UUID, source models.ObjectRef) error {
	return l.update(ctx, id, map[string]any{
		"status":        RunRunning,
		"source_bucket": source.Bucket,
		"source_key":    source.Key,
	})
}

func (l *Ledger) Complete(ctx context.Context, id uuid.UUID, source models.ObjectRef, summary RunSummary) error {
	return l.update(ctx, id, map[string]any{
		"status":          RunCompleted,
		"source_bucket":   source.Bucket,
		"source_key":      source.Key,
		"dest_bucket":     sql.NullString{String: summary.Dest.Bucket, Valid: true},
		"dest_key":        sql.NullString{String: summary.Dest.Key, Valid: true},
		"rows_in":         summary.RowsIn,
		"rows_dropped":    summary.RowsDropped,
		"rows_out":        summary.RowsOut,
		"anomaly":         summary.Anomaly,
		"completion_time": time.Now().UTC(),
	})
}

func (l *Ledger) Fail(ctx context.Context, id uuid.UUID, runErr error) error {
	updates := map[string]any{
		"status":          RunFailed,
		"completion_time": time.Now().UTC(),
	}
	if runErr != nil {
		updates["error_message"] = sql.NullString{String: runErr.Error(), Valid: true}
	}
	return l.update(ctx, id, updates)
}

func (l *Ledger) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := l.db.WithContext(ctx).Model(&RunRecord{Id: id}).Updates(updates)
	if result.Error != nil {
		slog.Error("error updating run record", "ledger_id", id, "status", updates["status"], "error", result.Error)
		return fmt.Errorf("error updating run record %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func (l *Ledger) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	var record RunRecord
	if err := l.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("error getting run record %s: %w", id, err)
	}
	return &record, nil
}

// LatestCompleted returns the most recent successful run of a workflow run id,
// or ErrRunNotFound.
func (l *Ledger) LatestCompleted(ctx context.Context, rc models.RunContext) (*RunRecord, error) {
	var record RunRecord
	err := l.db.WithContext(ctx).
		Where("workflow_name = ? AND run_id = ? AND status = ?", rc.WorkflowName, rc.RunId, RunCompleted).
		Order("completion_time DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, rc.WorkflowName, rc.RunId)
		}
		return nil, fmt.Errorf("error querying runs of %s/%s: %w", rc.WorkflowName, rc.RunId, err)
	}
	return &record, nil
}
