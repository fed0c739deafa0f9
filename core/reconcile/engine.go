package reconcile

import (
	"cmp"
	"fmt"

	"cluster-merge/core/table"
	"cluster-merge/core/utils"
)

// cell is a parsed cluster id. ok is false when the raw value was not an integer.
type cell struct {
	id int64
	ok bool
}

// assigned reports whether the cell carries a real cluster id.
func (c cell) assigned() bool {
	return c.ok && c.id != Unassigned
}

// Process merges the cluster columns of t and returns a copy of t with the
// merged id in DefaultOutputColumn.
func Process(t *table.Table, clusterColumns []string, entityColumn string) (*table.Table, error) {
	res, err := Merge(t, Spec{EntityColumn: entityColumn, ClusterColumns: clusterColumns})
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// Merge runs the disjoint-set merge described by spec over t.
//
// Entities sharing a non-zero id in any cluster column end up in the same group,
// transitively. Every group gets the smallest non-zero id carried by any of its
// members in any column, or 0 when none exists. Cluster cells that are not
// integers are skipped. Empty column names in spec fall back to the defaults.
// The input table is not modified.
func Merge(t *table.Table, spec Spec) (*Result, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	spec = spec.WithDefaults()

	entities, err := t.Column(spec.EntityColumn)
	if err != nil {
		return nil, fmt.Errorf("entity column: %w", err)
	}
	for row, v := range entities {
		if v == nil {
			return nil, fmt.Errorf("%w: row %d", ErrMissingEntity, row)
		}
	}

	var summary Summary
	columns := make([][]cell, 0, len(spec.ClusterColumns))
	for _, name := range spec.ClusterColumns {
		values, err := t.Column(name)
		if err != nil {
			return nil, fmt.Errorf("cluster column: %w", err)
		}
		parsed := make([]cell, len(values))
		for row, v := range values {
			if v == nil {
				continue
			}
			id, err := utils.ParseInt(v)
			if err != nil {
				summary.SkippedValues++
				continue
			}
			parsed[row] = cell{id: id, ok: true}
		}
		columns = append(columns, parsed)
	}

	var ids []any
	if allIntegers(entities) {
		keys := make([]int64, len(entities))
		for i, v := range entities {
			keys[i], _ = utils.ParseInt(v)
		}
		ids = mergeKeys(keys, columns, &summary)
	} else {
		keys := make([]string, len(entities))
		for i, v := range entities {
			keys[i] = entityKey(v)
		}
		ids = mergeKeys(keys, columns, &summary)
	}

	out := t.Clone()
	if err := out.SetColumn(spec.OutputColumn, ids); err != nil {
		return nil, fmt.Errorf("output column: %w", err)
	}
	summary.Rows = t.Len()

	return &Result{Table: out, Summary: summary}, nil
}

// allIntegers reports whether every entity key is a Go integer, in which case
// keys are ordered numerically instead of as strings.
func allIntegers(values []any) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !utils.IsInteger(v) {
			return false
		}
	}
	return true
}

// entityKey renders a key of a mixed-type entity column. Text keys and keys of
// other types never share a rendering, so 7 and "7" stay distinct entities.
func entityKey(v any) string {
	switch k := v.(type) {
	case string:
		return "s:" + k
	case []byte:
		return "s:" + string(k)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// mergeKeys runs the union, resolution and id selection phases. keys[i] is the
// entity of row i and columns[c][i] its parsed id in cluster column c. It
// returns the merged id of every row.
func mergeKeys[K cmp.Ordered](keys []K, columns [][]cell, summary *Summary) []any {
	forest := NewForest(keys...)

	// Union: every row is joined to the first row that carried the same id in
	// the same column.
	for _, col := range columns {
		anchors := make(map[int64]K)
		for row, c := range col {
			if !c.assigned() {
				continue
			}
			anchor, seen := anchors[c.id]
			if !seen {
				anchors[c.id] = keys[row]
				continue
			}
			if forest.Union(anchor, keys[row]) {
				summary.Unions++
			}
		}
	}

	// Resolution: compress every path so roots are stable.
	roots := make([]K, len(keys))
	for row, k := range keys {
		roots[row] = forest.Find(k)
	}

	// Id selection: smallest non-zero id over all members and all columns.
	minID := make(map[K]int64)
	for row, root := range roots {
		for _, col := range columns {
			c := col[row]
			if !c.assigned() {
				continue
			}
			if cur, ok := minID[root]; !ok || c.id < cur {
				minID[root] = c.id
			}
		}
	}

	ids := make([]any, len(keys))
	for row, root := range roots {
		ids[row] = minID[root]
	}

	sizes := make(map[K]int)
	for k := range forest.parent {
		sizes[forest.Find(k)]++
	}
	summary.Entities = forest.Len()
	summary.Groups = len(sizes)
	for root, size := range sizes {
		if size == 1 {
			summary.Singletons++
		}
		if minID[root] == Unassigned {
			summary.Unassigned += size
		}
	}

	return ids
}
