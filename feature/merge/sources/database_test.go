package sources

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"cluster-merge/core/reconcile"
	"cluster-merge/core/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite DB holding the scenario table.
func setupTestDB(t *testing.T) *gorm.DB {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE clusters (
		address TEXT NOT NULL,
		id_1 INTEGER,
		id_2 INTEGER,
		note TEXT
	)`).Error)

	rows := []struct {
		address  string
		id1, id2 any
	}{
		{"A", 1, 0}, {"B", 1, 2}, {"C", 3, 2}, {"D", 3, 2}, {"E", 0, 2}, {"F", 0, nil}, {"G", 7, 7},
	}
	for _, r := range rows {
		require.NoError(t, db.Exec("INSERT INTO clusters (address, id_1, id_2) VALUES (?, ?, ?)", r.address, r.id1, r.id2).Error)
	}
	return db
}

type mergedRow struct {
	Address string
	ID      int64
}

func readMerged(t *testing.T, db *gorm.DB, name string) []mergedRow {
	var out []mergedRow
	require.NoError(t, db.Raw(fmt.Sprintf("SELECT address, id FROM %s ORDER BY address", name)).Scan(&out).Error)
	return out
}

func TestDatabase_Run(t *testing.T) {
	db := setupTestDB(t)
	src := NewDatabase(db, "clusters", scenarioSpec, "").WithBatchSize(3)
	assert.Equal(t, "db://clusters", src.Name())
	assert.Equal(t, "clusters_merged", src.Output())

	plan, err := reconcile.Run(context.Background(), scenarioSpec, src, reconcile.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 7, plan.Summary.Rows)
	assert.Equal(t, []string{"address", "id_1", "id_2", "id"}, plan.Table.Columns())

	assert.Equal(t, []mergedRow{
		{"A", 1}, {"B", 1}, {"C", 1}, {"D", 1}, {"E", 1}, {"F", 0}, {"G", 7},
	}, readMerged(t, db, "clusters_merged"))
}

func TestDatabase_SaveReplacesPreviousRun(t *testing.T) {
	db := setupTestDB(t)
	src := NewDatabase(db, "clusters", scenarioSpec, "result")

	_, err := reconcile.Run(context.Background(), scenarioSpec, src, reconcile.RunOptions{})
	require.NoError(t, err)
	_, err = reconcile.Run(context.Background(), scenarioSpec, src, reconcile.RunOptions{})
	require.NoError(t, err)

	assert.Len(t, readMerged(t, db, "result"), 7)
}

func TestDatabase_MissingColumn(t *testing.T) {
	db := setupTestDB(t)
	spec := reconcile.Spec{EntityColumn: "address", ClusterColumns: []string{"id_1", "id_9"}}

	_, err := NewDatabase(db, "clusters", spec, "").Load(context.Background())
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
	assert.Contains(t, err.Error(), "id_9")

	_, err = NewDatabase(db, "no_such_table", spec, "").Load(context.Background())
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestDatabase_InvalidIdentifiers(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewDatabase(db, "clusters; DROP TABLE clusters", scenarioSpec, "").Load(context.Background())
	assert.Error(t, err)

	bad := reconcile.Spec{EntityColumn: "address", ClusterColumns: []string{"id_1 OR 1=1"}}
	_, err = NewDatabase(db, "clusters", bad, "").Load(context.Background())
	assert.Error(t, err)

	merged, err := table.FromRows([]string{"address", "id"}, [][]any{{"A", int64(1)}})
	require.NoError(t, err)
	err = NewDatabase(db, "clusters", scenarioSpec, "out-table").Save(context.Background(), merged, scenarioSpec)
	assert.Error(t, err)
}

func TestDatabase_SaveRefusesInputTable(t *testing.T) {
	db := setupTestDB(t)
	src := NewDatabase(db, "clusters", scenarioSpec, "Clusters")

	_, err := reconcile.Run(context.Background(), scenarioSpec, src, reconcile.RunOptions{})
	assert.ErrorIs(t, err, ErrOutputIsInput)

	var count int64
	require.NoError(t, db.Table("clusters").Count(&count).Error)
	assert.Equal(t, int64(7), count)
}

func TestDatabase_NotConnected(t *testing.T) {
	src := NewDatabase(nil, "clusters", scenarioSpec, "")
	_, err := src.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, src.Save(context.Background(), nil, scenarioSpec))
}
