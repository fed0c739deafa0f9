package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cluster-merge/core/queue"
	"cluster-merge/core/queue/mocks"
	"cluster-merge/core/reconcile"
	"cluster-merge/core/table"
	"cluster-merge/feature/merge"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMerger struct {
	mu   sync.Mutex
	err  error
	reqs []merge.ObjectRequest
}

func (s *stubMerger) MergeObject(ctx context.Context, req merge.ObjectRequest) (*merge.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &merge.Report{Input: "s3://b/" + req.Name, Output: req.Output, Applied: !req.DryRun, Plan: &reconcile.Plan{}}, nil
}

func (s *stubMerger) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

var testConfig = queue.Config{Name: "merge_jobs", MaxRetries: 2}

func delivery(ack *mocks.Acknowledger, body string, headers amqp.Table) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, Body: []byte(body), Headers: headers}
}

func publishedTo(ch *mocks.Channel, name string) mock.Arguments {
	for _, call := range ch.Calls {
		if call.Method == "PublishWithContext" && call.Arguments.String(2) == name {
			return call.Arguments
		}
	}
	return nil
}

func TestHandle_Success(t *testing.T) {
	ch := new(mocks.Channel)
	merger := &stubMerger{}
	c := NewConsumer(ch, testConfig, merger, zap.NewNop())
	ack := &mocks.Acknowledger{}

	body := `{"object":"daily/a.csv","cluster_columns":["id_1","id_2"],"output_object":"out.csv"}`
	outcome := c.Handle(context.Background(), delivery(ack, body, amqp.Table{JobIDHeader: "job-1"}))

	assert.Equal(t, OutcomeAcked, outcome)
	assert.Equal(t, 1, ack.Acked)
	require.Len(t, merger.reqs, 1)
	assert.Equal(t, "daily/a.csv", merger.reqs[0].Name)
	assert.Equal(t, "out.csv", merger.reqs[0].Output)
	assert.Equal(t, []string{"id_1", "id_2"}, merger.reqs[0].ClusterColumns)
	ch.AssertNotCalled(t, "PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_MalformedGoesToDLQ(t *testing.T) {
	for _, body := range []string{"not json", `{"cluster_columns":["a"]}`} {
		t.Run(body, func(t *testing.T) {
			ch := new(mocks.Channel)
			ch.On("PublishWithContext", mock.Anything, "", "merge_jobs_dlq", false, false, mock.Anything).Return(nil)
			merger := &stubMerger{}
			ack := &mocks.Acknowledger{}

			outcome := NewConsumer(ch, testConfig, merger, zap.NewNop()).Handle(context.Background(), delivery(ack, body, nil))

			assert.Equal(t, OutcomeDeadLettered, outcome)
			assert.Equal(t, 1, ack.Acked)
			assert.Equal(t, 0, merger.calls())
			ch.AssertExpectations(t)
		})
	}
}

func TestHandle_TransientFailureRetries(t *testing.T) {
	ch := new(mocks.Channel)
	ch.On("PublishWithContext", mock.Anything, "", "merge_jobs_retry", false, false, mock.Anything).Return(nil)
	merger := &stubMerger{err: errors.New("connection reset")}
	ack := &mocks.Acknowledger{}

	outcome := NewConsumer(ch, testConfig, merger, zap.NewNop()).
		Handle(context.Background(), delivery(ack, `{"object":"a.csv"}`, amqp.Table{queue.RetryHeader: int32(1), JobIDHeader: "job-2"}))

	assert.Equal(t, OutcomeRetried, outcome)
	assert.Equal(t, 1, ack.Acked)

	args := publishedTo(ch, "merge_jobs_retry")
	require.NotNil(t, args)
	msg := args.Get(5).(amqp.Publishing)
	assert.Equal(t, int32(2), msg.Headers[queue.RetryHeader])
	assert.Equal(t, "job-2", msg.Headers[JobIDHeader])
	assert.Equal(t, `{"object":"a.csv"}`, string(msg.Body))
}

func TestHandle_RetriesExhausted(t *testing.T) {
	ch := new(mocks.Channel)
	ch.On("PublishWithContext", mock.Anything, "", "merge_jobs_dlq", false, false, mock.Anything).Return(nil)
	merger := &stubMerger{err: errors.New("timeout")}
	ack := &mocks.Acknowledger{}

	outcome := NewConsumer(ch, testConfig, merger, zap.NewNop()).
		Handle(context.Background(), delivery(ack, `{"object":"a.csv"}`, amqp.Table{queue.RetryHeader: int32(2)}))

	assert.Equal(t, OutcomeDeadLettered, outcome)
	ch.AssertExpectations(t)
}

func TestHandle_PermanentFailureSkipsRetry(t *testing.T) {
	ch := new(mocks.Channel)
	ch.On("PublishWithContext", mock.Anything, "", "merge_jobs_dlq", false, false, mock.Anything).Return(nil)
	merger := &stubMerger{err: fmt.Errorf("failed to merge: %w", table.ErrUnknownColumn)}
	ack := &mocks.Acknowledger{}

	outcome := NewConsumer(ch, testConfig, merger, zap.NewNop()).
		Handle(context.Background(), delivery(ack, `{"object":"a.csv","cluster_columns":["nope"]}`, nil))

	assert.Equal(t, OutcomeDeadLettered, outcome)
	assert.Nil(t, publishedTo(ch, "merge_jobs_retry"))
}

func TestHandle_PublishFailureRequeues(t *testing.T) {
	ch := new(mocks.Channel)
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed"))
	merger := &stubMerger{err: errors.New("timeout")}
	ack := &mocks.Acknowledger{}

	outcome := NewConsumer(ch, testConfig, merger, zap.NewNop()).
		Handle(context.Background(), delivery(ack, `{"object":"a.csv"}`, nil))

	assert.Equal(t, OutcomeRequeued, outcome)
	assert.Equal(t, 0, ack.Acked)
	assert.Equal(t, 1, ack.Nacked)
	assert.True(t, ack.Requeued)
}

func TestRun(t *testing.T) {
	ch := new(mocks.Channel)
	deliveries := make(chan amqp.Delivery, 1)
	ch.On("Qos", 1, 0, false).Return(nil)
	ch.On("Consume", "merge_jobs", "merge_jobs_consumer", false, false, false, false, amqp.Table(nil)).
		Return((<-chan amqp.Delivery)(deliveries), nil)

	merger := &stubMerger{}
	c := NewConsumer(ch, testConfig, merger, zap.NewNop())
	ack := &mocks.Acknowledger{}
	deliveries <- delivery(ack, `{"object":"a.csv"}`, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Eventually(t, func() bool { return merger.calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRun_ClosedDeliveries(t *testing.T) {
	ch := new(mocks.Channel)
	deliveries := make(chan amqp.Delivery)
	close(deliveries)
	ch.On("Qos", 1, 0, false).Return(nil)
	ch.On("Consume", mock.Anything, mock.Anything, false, false, false, false, mock.Anything).
		Return((<-chan amqp.Delivery)(deliveries), nil)

	err := NewConsumer(ch, testConfig, &stubMerger{}, zap.NewNop()).Run(context.Background())
	assert.ErrorIs(t, err, ErrDeliveriesClosed)
}

func TestRun_QosFails(t *testing.T) {
	ch := new(mocks.Channel)
	ch.On("Qos", 1, 0, false).Return(assert.AnError)

	err := NewConsumer(ch, testConfig, &stubMerger{}, zap.NewNop()).Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}
