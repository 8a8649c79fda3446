package models

import (
	"fmt"

	"github.com/google/uuid"
)

// RunContext identifies the workflow run that invoked the transformer. It is
// fixed for the lifetime of a run.
type RunContext struct {
	WorkflowName string
	RunId        string
}

type ObjectRef struct {
	Bucket string
	Key    string
}

func (o ObjectRef) String() string {
	return fmt.Sprintf("s3://%s/%s", o.Bucket, o.Key)
}

func (o ObjectRef) IsZero() bool {
	return o.Bucket == "" && o.Key == ""
}

type ArtifactProcessedPayload struct {
	LedgerId     uuid.UUID
	WorkflowName string
	RunId        string
	SourceBucket string
	SourceKey    string
	DestBucket   string
	DestKey      string
	RowsIn       int
	RowsDropped  int
	RowsOut      int
	Anomaly      bool
}
