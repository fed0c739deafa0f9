package reconcile

import (
	"strings"
	"time"
)

// Config holds the configured defaults of a merge.
type Config struct {
	// EntityColumn is the entity key column.
	EntityColumn string `mapstructure:"entity_column" default:"address"`
	// ClusterColumns is a comma-separated list of cluster id columns.
	ClusterColumns string `mapstructure:"cluster_columns" default:""`
	// OutputColumn receives the merged id.
	OutputColumn string `mapstructure:"output_column" default:"id"`
	// CacheTTLSeconds is how long plans over stored tables are cached. 0 disables caching.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
}

// Spec converts the configuration into a merge spec.
func (c Config) Spec() Spec {
	spec := Spec{
		EntityColumn:   c.EntityColumn,
		ClusterColumns: SplitColumns(c.ClusterColumns),
		OutputColumn:   c.OutputColumn,
	}
	if c.CacheTTLSeconds > 0 {
		spec.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	}
	return spec.WithDefaults()
}

// SplitColumns parses a comma-separated column list, dropping empty entries.
func SplitColumns(list string) []string {
	var cols []string
	for _, col := range strings.Split(list, ",") {
		if col = strings.TrimSpace(col); col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}
