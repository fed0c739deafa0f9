package reconcile

import (
	"context"

	"cluster-merge/core/table"
)

// Source defines where a merge reads its table from and writes its result to.
// Implementations live with the feature that owns the backing store (local
// files, object storage, SQL tables).
type Source interface {
	// Name returns a stable identifier for this source (e.g., "s3://bucket/clusters.csv").
	// It is used in reports and as part of the plan cache key.
	Name() string

	// Load reads the whole input table.
	Load(ctx context.Context) (*table.Table, error)

	// Save writes the merged table. Implementations decide whether the whole
	// table or only the entity and output columns are persisted.
	Save(ctx context.Context, t *table.Table, spec Spec) error
}
