package reconcile

import (
	"errors"
	"strings"
	"time"

	"cluster-merge/core/table"
)

const (
	// DefaultEntityColumn is the entity key column used when none is configured.
	DefaultEntityColumn = "address"
	// DefaultOutputColumn is the name of the column holding the merged id.
	DefaultOutputColumn = "id"
	// Unassigned is the cluster id that means "no cluster".
	Unassigned int64 = 0
)

var (
	// ErrNilTable is returned when no table is given.
	ErrNilTable = errors.New("table is nil")
	// ErrMissingEntity is returned when a row has no entity key.
	ErrMissingEntity = errors.New("missing entity key")
)

// Spec defines the columns of a merge and how long its plan may be cached.
type Spec struct {
	// EntityColumn is the column holding the entity key.
	EntityColumn string `json:"entity_column"`

	// ClusterColumns are the cluster id columns, one per clustering algorithm.
	// An empty list is valid: every entity keeps id 0.
	ClusterColumns []string `json:"cluster_columns"`

	// OutputColumn receives the merged id. Defaults to DefaultOutputColumn.
	OutputColumn string `json:"output_column"`

	// CacheTTL is the time-to-live for cached plans.
	// If zero, caching is disabled.
	CacheTTL time.Duration `json:"-"`
}

// WithDefaults returns a copy of the spec with empty names replaced by defaults.
func (s Spec) WithDefaults() Spec {
	if s.EntityColumn == "" {
		s.EntityColumn = DefaultEntityColumn
	}
	if s.OutputColumn == "" {
		s.OutputColumn = DefaultOutputColumn
	}
	return s
}

// CacheKey returns a unique key for caching a plan of this spec over the named source.
func (s Spec) CacheKey(source string) string {
	s = s.WithDefaults()
	return source + "|" + s.EntityColumn + "|" + strings.Join(s.ClusterColumns, ",") + "|" + s.OutputColumn
}

// Summary provides aggregate statistics for one merge.
type Summary struct {
	// Rows is the number of table rows.
	Rows int `json:"rows"`

	// Entities is the number of distinct entity keys.
	Entities int `json:"entities"`

	// Groups is the number of merged groups (roots).
	Groups int `json:"groups"`

	// Singletons counts groups with a single entity.
	Singletons int `json:"singletons"`

	// Unassigned counts entities whose merged id is 0.
	Unassigned int `json:"unassigned"`

	// Unions counts unions that joined two distinct sets.
	Unions int `json:"unions"`

	// SkippedValues counts cluster cells that could not be read as integers.
	SkippedValues int `json:"skipped_values"`
}

// Result is the output of a merge: the augmented table plus its summary.
type Result struct {
	Table   *table.Table
	Summary Summary
}

// Plan is a computed merge that has not necessarily been written back yet.
type Plan struct {
	// Source names where the table was loaded from.
	Source string `json:"source"`

	// Spec is the merge specification the plan was computed with.
	Spec Spec `json:"spec"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`

	// Table is the merged table.
	Table *table.Table `json:"-"`

	// Built is the timestamp when this plan was computed.
	Built time.Time `json:"built"`

	// Duration is how long loading and merging took.
	Duration string `json:"duration"`
}

// RunOptions controls whether a plan is written back to its source.
type RunOptions struct {
	// DryRun computes the plan without saving it.
	DryRun bool
}
