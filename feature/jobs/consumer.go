package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cluster-merge/core/logger"
	"cluster-merge/core/queue"
	"cluster-merge/core/utils"
	"cluster-merge/feature/merge"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrDeliveriesClosed is returned by Run when the broker closes the consumer.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Merger runs object merges.
type Merger interface {
	MergeObject(ctx context.Context, req merge.ObjectRequest) (*merge.Report, error)
}

// Outcome is what happened to a delivery.
type Outcome string

const (
	// OutcomeAcked means the job succeeded and the delivery was acked.
	OutcomeAcked Outcome = "acked"
	// OutcomeRetried means the job failed and was republished to the retry queue.
	OutcomeRetried Outcome = "retried"
	// OutcomeDeadLettered means the job was moved to the dead-letter queue.
	OutcomeDeadLettered Outcome = "dead_lettered"
	// OutcomeRequeued means republishing failed and the delivery was nacked with requeue.
	OutcomeRequeued Outcome = "requeued"
)

// Consumer processes merge jobs one at a time.
type Consumer struct {
	ch         queue.Channel
	queue      string
	maxRetries int
	merger     Merger
	logger     *zap.Logger
}

// NewConsumer creates a consumer for the queue named in cfg.
func NewConsumer(ch queue.Channel, cfg queue.Config, merger Merger, logger *zap.Logger) *Consumer {
	return &Consumer{
		ch:         ch,
		queue:      cfg.Name,
		maxRetries: cfg.MaxRetries,
		merger:     merger,
		logger:     logger,
	}
}

// Run consumes jobs until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	// Prefetch 1: a merge holds a whole table in memory
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.ch.Consume(c.queue, c.queue+"_consumer", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}

	c.logger.Info("Listening for merge jobs", zap.String("queue", c.queue))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping consumer", zap.String("queue", c.queue))
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.Handle(ctx, msg)
		}
	}
}

// Handle processes one delivery and settles it.
func (c *Consumer) Handle(ctx context.Context, msg amqp.Delivery) Outcome {
	l := logger.WithJob(c.logger, c.queue, utils.ToString(msg.Headers[JobIDHeader]))
	start := time.Now()

	var job MergeJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		l.Error("Malformed job", zap.Error(err))
		return c.deadLetter(ctx, l, msg)
	}
	if err := job.Validate(); err != nil {
		l.Error("Invalid job", zap.Error(err))
		return c.deadLetter(ctx, l, msg)
	}
	l = l.With(zap.String("object", job.Object))

	report, err := c.merger.MergeObject(ctx, job.Request())
	if err != nil {
		if status := merge.StatusFor(err); status >= 400 && status < 500 {
			// Retrying cannot fix a missing object or column
			l.Error("Job failed permanently", zap.Error(err), zap.Int("status", status))
			return c.deadLetter(ctx, l, msg)
		}
		l.Error("Job failed", zap.Error(err))
		return c.retry(ctx, l, msg)
	}

	if err := msg.Ack(false); err != nil {
		l.Error("Failed to ack message", zap.Error(err))
	}
	l.Info("Job processed",
		zap.Bool("applied", report.Applied),
		zap.String("output", report.Output),
		zap.Int("groups", report.Plan.Summary.Groups),
		zap.Duration("duration", time.Since(start)))
	return OutcomeAcked
}

func (c *Consumer) retry(ctx context.Context, l *zap.Logger, msg amqp.Delivery) Outcome {
	retries := queue.RetryCount(msg.Headers)
	if retries >= c.maxRetries {
		l.Warn("Retries exhausted", zap.Int("retries", retries))
		return c.deadLetter(ctx, l, msg)
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[queue.RetryHeader] = int32(retries + 1)

	retryName := queue.RetryQueue(c.queue)
	if err := queue.Publish(ctx, c.ch, retryName, msg.Body, headers); err != nil {
		l.Error("Failed to publish to retry queue", zap.String("retry_queue", retryName), zap.Error(err))
		_ = msg.Nack(false, true)
		return OutcomeRequeued
	}
	_ = msg.Ack(false)
	l.Info("Job scheduled for retry", zap.Int("retry", retries+1))
	return OutcomeRetried
}

func (c *Consumer) deadLetter(ctx context.Context, l *zap.Logger, msg amqp.Delivery) Outcome {
	dlq := queue.DeadLetterQueue(c.queue)
	if err := queue.Publish(ctx, c.ch, dlq, msg.Body, msg.Headers); err != nil {
		l.Error("Failed to publish to DLQ", zap.String("dlq", dlq), zap.Error(err))
		_ = msg.Nack(false, true)
		return OutcomeRequeued
	}
	_ = msg.Ack(false)
	l.Info("Job sent to DLQ", zap.String("dlq", dlq))
	return OutcomeDeadLettered
}
