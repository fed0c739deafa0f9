package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"cluster-merge/core/queue"
	"cluster-merge/feature/merge"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// JobIDHeader carries the id assigned by Enqueue.
const JobIDHeader = "x-job-id"

// MergeJob asks the worker to merge one stored object.
type MergeJob struct {
	Object         string   `json:"object"`
	EntityColumn   string   `json:"entity_column,omitempty"`
	ClusterColumns []string `json:"cluster_columns,omitempty"`
	OutputColumn   string   `json:"output_column,omitempty"`
	OutputObject   string   `json:"output_object,omitempty"`
	DryRun         bool     `json:"dry_run,omitempty"`
}

// Validate checks that the job names an object.
func (j MergeJob) Validate() error {
	if j.Object == "" {
		return fmt.Errorf("job has no object")
	}
	return nil
}

// Request converts the job into a merge request.
func (j MergeJob) Request() merge.ObjectRequest {
	return merge.ObjectRequest{
		SpecRequest: merge.SpecRequest{
			EntityColumn:   j.EntityColumn,
			ClusterColumns: j.ClusterColumns,
			OutputColumn:   j.OutputColumn,
		},
		Name:   j.Object,
		Output: j.OutputObject,
		DryRun: j.DryRun,
	}
}

// Enqueue publishes a job and returns its message id.
func Enqueue(ctx context.Context, ch queue.Channel, queueName string, job MergeJob) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}
	id := uuid.NewString()
	if err := queue.Publish(ctx, ch, queueName, body, amqp.Table{JobIDHeader: id}); err != nil {
		return "", err
	}
	return id, nil
}
