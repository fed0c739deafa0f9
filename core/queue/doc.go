// Package queue connects to RabbitMQ and manages the merge job queues.
//
// A job queue is declared together with two siblings:
//
//   - <name>_retry: failed jobs wait here for the retry delay, then dead-letter
//     back into <name>.
//   - <name>_dlq: jobs that failed too often, or could not be decoded.
//
// The retry counter travels in the RetryHeader message header. The Channel
// interface covers the calls the worker makes, so consumers can be tested
// with core/queue/mocks instead of a live broker.
package queue
