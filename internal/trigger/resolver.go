package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"price-pipeline/pkg/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"github.com/aws/aws-sdk-go-v2/service/glue"
)

const (
	EventIdsProperty = "aws:eventIds"

	DefaultEventName = "NotifyEvent"

	// Lookback is how far back CloudTrail is searched for the trigger. Runs
	// started later than this after the upload are replayed with an explicit
	// source instead.
	Lookback = 5 * time.Minute
)

var (
	ErrNoEventID       = errors.New("workflow run has no triggering event id")
	ErrTriggerNotFound = errors.New("triggering event not found")
)

type WorkflowAPI interface {
	GetWorkflowRunProperties(ctx context.Context, params *glue.GetWorkflowRunPropertiesInput, optFns ...func(*glue.Options)) (*glue.GetWorkflowRunPropertiesOutput, error)
}

type Options struct {
	EventName string
	Now       func() time.Time
}

// Resolver finds the object upload that started a workflow run by matching the
// run's event id against recent CloudTrail NotifyEvent records.
type Resolver struct {
	workflows WorkflowAPI
	trail     cloudtrail.LookupEventsAPIClient
	eventName string
	now       func() time.Time
}

func NewResolver(workflows WorkflowAPI, trail cloudtrail.LookupEventsAPIClient, opts Options) *Resolver {
	if opts.EventName == "" {
		opts.EventName = DefaultEventName
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{
		workflows: workflows,
		trail:     trail,
		eventName: opts.EventName,
		now:       opts.Now,
	}
}

func (r *Resolver) EventID(ctx context.Context, rc models.RunContext) (string, error) {
	out, err := r.workflows.GetWorkflowRunProperties(ctx, &glue.GetWorkflowRunPropertiesInput{
		Name:  aws.String(rc.WorkflowName),
		RunId: aws.String(rc.RunId),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get properties of workflow run %s/%s: %w", rc.WorkflowName, rc.RunId, err)
	}

	eventID := parseEventIds(out.RunProperties[EventIdsProperty])
	if eventID == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrNoEventID, rc.WorkflowName, rc.RunId)
	}
	return eventID, nil
}

// parseEventIds reads the first id out of the "[id1,id2]" form Glue uses.
func parseEventIds(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

func (r *Resolver) Resolve(ctx context.Context, rc models.RunContext) (models.ObjectRef, error) {
	eventID, err := r.EventID(ctx, rc)
	if err != nil {
		return models.ObjectRef{}, err
	}

	end := r.now()
	start := end.Add(-Lookback)
	logger := slog.With("workflow", rc.WorkflowName, "run_id", rc.RunId, "event_id", eventID)

	paginator := cloudtrail.NewLookupEventsPaginator(r.trail, &cloudtrail.LookupEventsInput{
		LookupAttributes: []types.LookupAttribute{{
			AttributeKey:   types.LookupAttributeKeyEventName,
			AttributeValue: aws.String(r.eventName),
		}},
		StartTime: aws.Time(start),
		EndTime:   aws.Time(end),
	})

	scanned := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return models.ObjectRef{}, fmt.Errorf("failed to look up %s events: %w", r.eventName, err)
		}

		records := make([]string, 0, len(page.Events))
		for _, event := range page.Events {
			if event.CloudTrailEvent != nil {
				records = append(records, *event.CloudTrailEvent)
			}
		}
		scanned += len(records)

		if ref, ok := MatchEvent(records, eventID); ok {
			logger.Info("resolved triggering object", "bucket", ref.Bucket, "key", ref.Key)
			return ref, nil
		}
	}

	logger.Error("no matching event in lookback window", "scanned", scanned, "lookback", Lookback)
	return models.ObjectRef{}, fmt.Errorf("%w: event %s not among %d %s records between %s and %s",
		ErrTriggerNotFound, eventID, scanned, r.eventName, start.Format(time.RFC3339), end.Format(time.RFC3339))
}
