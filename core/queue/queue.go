package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RetryHeader counts how often a message went through the retry queue.
const RetryHeader = "x-retry-count"

// Channel is the subset of *amqp.Channel used by the worker.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Dial opens a connection to the broker.
func Dial(cfg Config) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq at %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	return conn, nil
}

// RetryQueue returns the name of the retry queue for name.
func RetryQueue(name string) string {
	return name + "_retry"
}

// DeadLetterQueue returns the name of the dead-letter queue for name.
func DeadLetterQueue(name string) string {
	return name + "_dlq"
}

// Setup declares the durable job queue with its retry and dead-letter queues.
// Messages in the retry queue expire after retryDelay and are routed back to name.
func Setup(ch Channel, name string, retryDelay time.Duration) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	dlq := DeadLetterQueue(name)
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", dlq, err)
	}

	retry := RetryQueue(name)
	_, err := ch.QueueDeclare(retry, true, false, false, false, amqp.Table{
		"x-message-ttl":             int32(retryDelay.Milliseconds()),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": name,
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", retry, err)
	}
	return nil
}

// Publish sends a persistent JSON message to the named queue on the default exchange.
func Publish(ctx context.Context, ch Channel, name string, body []byte, headers amqp.Table) error {
	err := ch.PublishWithContext(ctx, "", name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Headers:      headers,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", name, err)
	}
	return nil
}

// RetryCount reads the retry counter from message headers.
func RetryCount(headers amqp.Table) int {
	switch v := headers[RetryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
