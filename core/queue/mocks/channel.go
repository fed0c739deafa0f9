package mocks

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

// Channel is a mock implementation of queue.Channel
type Channel struct {
	mock.Mock
}

func (m *Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return ret.Get(0).(amqp.Queue), ret.Error(1)
}

func (m *Channel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	ret := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return ret.Error(0)
}

func (m *Channel) Qos(prefetchCount, prefetchSize int, global bool) error {
	ret := m.Called(prefetchCount, prefetchSize, global)
	return ret.Error(0)
}

func (m *Channel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	ret := m.Called(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
	if ch, ok := ret.Get(0).(<-chan amqp.Delivery); ok {
		return ch, ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Channel) Close() error {
	ret := m.Called()
	return ret.Error(0)
}

// Acknowledger records acks and nacks on deliveries built in tests.
type Acknowledger struct {
	Acked    int
	Nacked   int
	Requeued bool
}

func (a *Acknowledger) Ack(tag uint64, multiple bool) error {
	a.Acked++
	return nil
}

func (a *Acknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.Nacked++
	a.Requeued = requeue
	return nil
}

func (a *Acknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}
