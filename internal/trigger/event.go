package trigger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"price-pipeline/pkg/models"
)

// cloudTrailRecord is the subset of a CloudTrail NotifyEvent record we need.
// The eventPayload is the EventBridge event that started the workflow.
type cloudTrailRecord struct {
	RequestParameters struct {
		EventPayload NotifyEvent `json:"eventPayload"`
	} `json:"requestParameters"`
}

type NotifyEvent struct {
	EventId   string          `json:"eventId"`
	EventBody json.RawMessage `json:"eventBody"`
}

type objectCreatedEvent struct {
	Detail struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"detail"`
}

func DecodeNotifyEvent(record string) (NotifyEvent, error) {
	var rec cloudTrailRecord
	if err := json.Unmarshal([]byte(record), &rec); err != nil {
		return NotifyEvent{}, fmt.Errorf("error decoding cloudtrail record: %w", err)
	}
	return rec.RequestParameters.EventPayload, nil
}

// Object extracts the uploaded object from the event body. The body is usually
// a JSON document encoded as a string; a plain JSON object is accepted too.
func (e NotifyEvent) Object() (models.ObjectRef, error) {
	body := bytes.TrimSpace(e.EventBody)
	if len(body) == 0 {
		return models.ObjectRef{}, fmt.Errorf("event %s has no body", e.EventId)
	}

	if body[0] == '"' {
		var encoded string
		if err := json.Unmarshal(body, &encoded); err != nil {
			return models.ObjectRef{}, fmt.Errorf("error decoding body of event %s: %w", e.EventId, err)
		}
		body = []byte(encoded)
	}

	var event objectCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.ObjectRef{}, fmt.Errorf("error decoding body of event %s: %w", e.EventId, err)
	}

	ref := models.ObjectRef{Bucket: event.Detail.Bucket.Name, Key: event.Detail.Object.Key}
	if ref.Bucket == "" || ref.Key == "" {
		return models.ObjectRef{}, fmt.Errorf("event %s does not name a bucket and key", e.EventId)
	}
	return ref, nil
}

// MatchEvent returns the object of the first record whose embedded event id is
// eventID. Records that cannot be decoded are skipped.
func MatchEvent(records []string, eventID string) (models.ObjectRef, bool) {
	for i, record := range records {
		event, err := DecodeNotifyEvent(record)
		if err != nil {
			slog.Debug("skipping undecodable cloudtrail record", "index", i, "error", err)
			continue
		}
		if event.EventId != eventID {
			continue
		}

		ref, err := event.Object()
		if err != nil {
			slog.Warn("matching event has unusable body", "event_id", eventID, "error", err)
			continue
		}
		return ref, true
	}
	return models.ObjectRef{}, false
}
