package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"price-pipeline/internal/database"
	"price-pipeline/internal/dataset"
	"price-pipeline/internal/messaging"
	"price-pipeline/internal/notify"
	"price-pipeline/internal/storage"
	"price-pipeline/internal/transform"
	"price-pipeline/pkg/models"

	"github.com/google/uuid"
)

const DefaultOutputFileName = "coffee_data.parquet"

var (
	ErrResolve   = errors.New("unable to resolve triggering object")
	ErrFetch     = errors.New("unable to fetch dataset")
	ErrTransform = errors.New("unable to transform dataset")
	ErrPersist   = errors.New("unable to persist artifact")
)

type Resolver interface {
	Resolve(ctx context.Context, rc models.RunContext) (models.ObjectRef, error)
}

type Ledger interface {
	Start(ctx context.Context, rc models.RunContext, source models.ObjectRef) (uuid.UUID, error)
	Running(ctx context.Context, id uuid.UUID, source models.ObjectRef) error
	Complete(ctx context.Context, id uuid.UUID, source models.ObjectRef, summary database.RunSummary) error
	Fail(ctx context.Context, id uuid.UUID, runErr error) error
	LatestCompleted(ctx context.Context, rc models.RunContext) (*database.RunRecord, error)
}

type Metrics interface {
	ObserveSuccess(rowsIn, rowsDropped, rowsOut int, anomaly bool, duration time.Duration)
	ObserveFailure(step string, duration time.Duration)
}

// Options configures a Job. Ledger, Publisher and Metrics are optional.
type Options struct {
	Transform      transform.Options
	OutputFileName string

	Ledger    Ledger
	Publisher messaging.Publisher
	Metrics   Metrics
}

type Job struct {
	resolver Resolver
	store    storage.ObjectStore
	notifier notify.Notifier

	transform      transform.Options
	outputFileName string

	ledger    Ledger
	publisher messaging.Publisher
	metrics   Metrics
}

type Outcome struct {
	LedgerId uuid.UUID
	Source   models.ObjectRef
	Dest     models.ObjectRef
	Report   transform.Report
	Bytes    int
}

// NewJob builds a job. A nil notifier falls back to notify.LogNotifier.
func NewJob(resolver Resolver, store storage.ObjectStore, notifier notify.Notifier, opts Options) *Job {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if opts.OutputFileName == "" {
		opts.OutputFileName = DefaultOutputFileName
	}
	if opts.Transform == (transform.Options{}) {
		opts.Transform = transform.DefaultOptions()
	}
	return &Job{
		resolver:       resolver,
		store:          store,
		notifier:       notifier,
		transform:      opts.Transform,
		outputFileName: opts.OutputFileName,
		ledger:         opts.Ledger,
		publisher:      opts.Publisher,
		metrics:        opts.Metrics,
	}
}

// OutputLocation is where the artifact for src is written: the source bucket
// with "raw" replaced by "processed", under a fixed file name.
func OutputLocation(src models.ObjectRef, fileName string) models.ObjectRef {
	return models.ObjectRef{
		Bucket: strings.ReplaceAll(src.Bucket, "raw", "processed"),
		Key:    fileName,
	}
}

// Run executes one transformer run. If source is nil the triggering object is
// resolved from the workflow run; otherwise it is used as given.
func (j *Job) Run(ctx context.Context, rc models.RunContext, source *models.ObjectRef) (*Outcome, error) {
	start := time.Now()
	logger := slog.With("workflow", rc.WorkflowName, "run_id", rc.RunId)

	var known models.ObjectRef
	if source != nil {
		known = *source
	}
	j.checkPreviousRun(ctx, logger, rc)
	ledgerId := j.startLedger(ctx, rc, known)

	outcome, err := j.execute(ctx, logger, ledgerId, rc, source)
	if err != nil {
		logger.Error("run failed", "error", err)
		j.failLedger(ctx, ledgerId, err)
		if j.metrics != nil {
			j.metrics.ObserveFailure(failedStep(err), time.Since(start))
		}
		return nil, err
	}
	outcome.LedgerId = ledgerId

	report := outcome.Report
	if j.ledger != nil && ledgerId != uuid.Nil {
		summary := database.RunSummary{
			Dest:        outcome.Dest,
			RowsIn:      report.RowsIn,
			RowsDropped: report.RowsDropped,
			RowsOut:     report.RowsOut,
			Anomaly:     report.Anomaly,
		}
		if err := j.ledger.Complete(ctx, ledgerId, outcome.Source, summary); err != nil {
			logger.Warn("unable to record run completion", "ledger_id", ledgerId, "error", err)
		}
	}

	if j.publisher != nil {
		payload := models.ArtifactProcessedPayload{
			LedgerId:     ledgerId,
			WorkflowName: rc.WorkflowName,
			RunId:        rc.RunId,
			SourceBucket: outcome.Source.Bucket,
			SourceKey:    outcome.Source.Key,
			DestBucket:   outcome.Dest.Bucket,
			DestKey:      outcome.Dest.Key,
			RowsIn:       report.RowsIn,
			RowsDropped:  report.RowsDropped,
			RowsOut:      report.RowsOut,
			Anomaly:      report.Anomaly,
		}
		if err := j.publisher.PublishArtifactProcessed(ctx, payload); err != nil {
			logger.Warn("unable to publish artifact processed event", "error", err)
		}
	}

	if j.metrics != nil {
		j.metrics.ObserveSuccess(report.RowsIn, report.RowsDropped, report.RowsOut, report.Anomaly, time.Since(start))
	}

	logger.Info("run completed", "source", outcome.Source, "dest", outcome.Dest,
		"rows_in", report.RowsIn, "rows_dropped", report.RowsDropped, "rows_out", report.RowsOut,
		"anomaly", report.Anomaly, "duration", time.Since(start))
	return outcome, nil
}

func (j *Job) execute(ctx context.Context, logger *slog.Logger, ledgerId uuid.UUID, rc models.RunContext, source *models.ObjectRef) (*Outcome, error) {
	var src models.ObjectRef
	if source != nil && !source.IsZero() {
		src = *source
		logger.Info("using provided source object", "source", src)
	} else {
		resolved, err := j.resolver.Resolve(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResolve, err)
		}
		src = resolved
	}
	j.markRunning(ctx, ledgerId, src)

	data, err := j.store.GetObject(ctx, src.Bucket, src.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	table, err := dataset.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, src, err)
	}
	logger.Info("loaded dataset", "source", src, "bytes", len(data), "rows", table.Len(), "columns", table.ColumnNames())

	report, err := transform.Apply(ctx, table, j.transform, j.notifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}

	var buf bytes.Buffer
	if err := table.WriteParquet(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	dest := OutputLocation(src, j.outputFileName)
	size := buf.Len()
	if err := j.store.PutObject(ctx, dest.Bucket, dest.Key, &buf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPersist, dest, err)
	}
	logger.Info("persisted artifact", "dest", dest, "bytes", size)

	return &Outcome{Source: src, Dest: dest, Report: report, Bytes: size}, nil
}

func (j *Job) startLedger(ctx context.Context, rc models.RunContext, source models.ObjectRef) uuid.UUID {
	if j.ledger == nil {
		return uuid.Nil
	}
	id, err := j.ledger.Start(ctx, rc, source)
	if err != nil {
		slog.Warn("unable to record run start", "workflow", rc.WorkflowName, "run_id", rc.RunId, "error", err)
		return uuid.Nil
	}
	return id
}

// checkPreviousRun logs when the workflow run already produced an artifact,
// since this run will overwrite it.
func (j *Job) checkPreviousRun(ctx context.Context, logger *slog.Logger, rc models.RunContext) {
	if j.ledger == nil {
		return
	}
	prev, err := j.ledger.LatestCompleted(ctx, rc)
	if err != nil {
		if !errors.Is(err, database.ErrRunNotFound) {
			logger.Warn("unable to look up previous runs", "error", err)
		}
		return
	}
	logger.Info("workflow run was already completed, artifact will be replaced",
		"previous_ledger_id", prev.Id, "previous_dest_bucket", prev.DestBucket.String, "previous_dest_key", prev.DestKey.String)
}

func (j *Job) markRunning(ctx context.Context, id uuid.UUID, source models.ObjectRef) {
	if j.ledger == nil || id == uuid.Nil {
		return
	}
	if err := j.ledger.Running(ctx, id, source); err != nil {
		slog.Warn("unable to record run source", "ledger_id", id, "error", err)
	}
}

func (j *Job) failLedger(ctx context.Context, id uuid.UUID, runErr error) {
	if j.ledger == nil || id == uuid.Nil {
		return
	}
	if err := j.ledger.Fail(ctx, id, runErr); err != nil {
		slog.Warn("unable to record run failure", "ledger_id", id, "error", err)
	}
}

func failedStep(err error) string {
	switch {
	case errors.Is(err, ErrResolve):
		return "resolve"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrTransform):
		return "transform"
	case errors.Is(err, ErrPersist):
		return "persist"
	default:
		return "unknown"
	}
}
