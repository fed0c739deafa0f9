// Package jobs runs merges of stored objects from a RabbitMQ queue.
//
// A job is a JSON MergeJob naming the object and, optionally, the columns and
// output object. The consumer handles one job at a time:
//
//   - success: the message is acked.
//   - failure: the job is republished to the retry queue with an incremented
//     retry counter, until the configured maximum is reached.
//   - malformed jobs, jobs over missing objects or columns, and jobs out of
//     retries go to the dead-letter queue.
package jobs
