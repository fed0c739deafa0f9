// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the operations the
// merge service needs: checking bucket existence, reading and writing whole tables, and
// listing the tables stored under a prefix. This abstraction supports both AWS S3 and
// self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Helpers
//
//   - EnsureBucket: creates the bucket if missing.
//   - ReadObject / WriteObject: whole-object download and upload.
//   - ListNames: recursive listing of object keys.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	data, err := storage.ReadObject(ctx, client, "clusters", "daily/assignments.csv")
package storage
