// Package config loads the cluster-merge configuration.
//
// It reads an optional .env file with godotenv and then uses Viper to map
// environment variables onto the Config struct. Defaults come from the
// `default` struct tags of every section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key and request body limit
//   - Storage: S3/MinIO credentials and the bucket holding cluster tables
//   - Log: logging level and format
//   - Database: MySQL or SQLite connection details
//   - Queue: RabbitMQ connection, job queue name and retry policy
//   - Merge: default entity, cluster and output columns and the plan cache TTL
//
// Nested keys map to upper-case variables joined by underscores, so
// merge.cluster_columns is read from MERGE_CLUSTER_COLUMNS.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	spec := cfg.Merge.Spec()
package config
