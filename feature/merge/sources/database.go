package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cluster-merge/core/database"
	"cluster-merge/core/reconcile"
	"cluster-merge/core/table"
	"cluster-merge/core/utils"

	"gorm.io/gorm"
)

// DefaultBatchSize is the number of rows per INSERT when saving.
const DefaultBatchSize = 500

// ErrOutputIsInput is returned by Save when the output table is the input table.
var ErrOutputIsInput = errors.New("output table must differ from the input table")

// Database reads cluster assignments from a SQL table and writes the merged
// ids into a separate (entity, id) table.
type Database struct {
	db        *gorm.DB
	table     string
	columns   []string
	output    string
	batchSize int
}

// NewDatabase creates a database source over tableName. Only the entity and
// cluster columns of spec are loaded. An empty output defaults to
// "<table>_merged".
func NewDatabase(db *gorm.DB, tableName string, spec reconcile.Spec, output string) *Database {
	spec = spec.WithDefaults()
	if output == "" {
		output = tableName + "_merged"
	}
	columns := append([]string{spec.EntityColumn}, spec.ClusterColumns...)
	return &Database{
		db:        db,
		table:     tableName,
		columns:   columns,
		output:    output,
		batchSize: DefaultBatchSize,
	}
}

// WithBatchSize sets the number of rows per INSERT.
func (d *Database) WithBatchSize(n int) *Database {
	if n > 0 {
		d.batchSize = n
	}
	return d
}

// Name returns the URI of the input table.
func (d *Database) Name() string {
	return "db://" + d.table
}

// Output returns the table Save writes to.
func (d *Database) Output() string {
	return d.output
}

// Load selects the entity and cluster columns of the table.
func (d *Database) Load(ctx context.Context) (*table.Table, error) {
	if d.db == nil {
		return nil, fmt.Errorf("database is not connected")
	}
	for _, col := range d.columns {
		if !database.ValidIdentifier(col) {
			return nil, fmt.Errorf("invalid column name %q", col)
		}
	}

	missing, err := database.MissingColumns(d.db.WithContext(ctx), d.table, d.columns)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s missing in table %s", table.ErrUnknownColumn, strings.Join(missing, ", "), d.table)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(d.columns, ", "), d.table)
	rows, err := d.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", d.table, err)
	}
	defer rows.Close()

	out, err := table.New(d.columns...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		values := make([]any, len(d.columns))
		ptrs := make([]any, len(d.columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			// Text columns come back as bytes from some drivers
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		if err := out.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.table, err)
	}
	return out, nil
}

// Save replaces the content of the output table with one (entity, id) row
// per input row, in a single transaction.
func (d *Database) Save(ctx context.Context, t *table.Table, spec reconcile.Spec) error {
	if d.db == nil {
		return fmt.Errorf("database is not connected")
	}
	if strings.EqualFold(d.output, d.table) {
		return fmt.Errorf("%w: %s", ErrOutputIsInput, d.table)
	}
	spec = spec.WithDefaults()
	for _, name := range []string{d.output, spec.EntityColumn, spec.OutputColumn} {
		if !database.ValidIdentifier(name) {
			return fmt.Errorf("invalid identifier %q", name)
		}
	}

	entities, err := t.Column(spec.EntityColumn)
	if err != nil {
		return err
	}
	ids, err := t.Column(spec.OutputColumn)
	if err != nil {
		return err
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(255) NOT NULL, %s BIGINT NOT NULL)",
		d.output, spec.EntityColumn, spec.OutputColumn)
	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ", d.output, spec.EntityColumn, spec.OutputColumn)

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", d.output, err)
		}
		if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", d.output)).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", d.output, err)
		}

		for start := 0; start < len(entities); start += d.batchSize {
			end := min(start+d.batchSize, len(entities))
			placeholders := make([]string, 0, end-start)
			args := make([]any, 0, 2*(end-start))
			for i := start; i < end; i++ {
				placeholders = append(placeholders, "(?, ?)")
				args = append(args, utils.ToString(entities[i]), ids[i])
			}
			if err := tx.Exec(insert+strings.Join(placeholders, ", "), args...).Error; err != nil {
				return fmt.Errorf("failed to insert into %s: %w", d.output, err)
			}
		}
		return nil
	})
}
