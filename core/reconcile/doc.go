// Package reconcile merges several independent clustering assignments over the
// same entities into one canonical clustering.
//
// Each cluster column holds the labels of one clustering algorithm; 0 means the
// algorithm did not place the entity in any cluster. If any column puts two
// entities in the same non-zero cluster, they end up in the same merged group,
// transitively across all columns.
//
// # Architecture
//
// 1. Forest: a disjoint-set (union-find) forest with path compression. The
// smaller root always wins a union, so every group is rooted at its smallest
// entity key and results do not depend on processing order.
//
// 2. Engine: Merge / Process build a forest per call, union the rows of every
// (column, id) group, then give each group the smallest non-zero id any member
// carries in any column (0 if none). Cells that are not integers are skipped
// and counted in the Summary.
//
// 3. Plan: BuildPlan loads a table from a Source and merges it; ApplyPlan writes
// it back unless the run is a dry run. Run does both.
//
// 4. Cache: PlanCache keeps plans for a TTL with stampede protection, for
// repeated requests over the same stored table.
//
// # Usage Example
//
//	merged, err := reconcile.Process(t, []string{"id_1", "id_2"}, "address")
//
//	spec := reconcile.Spec{EntityColumn: "address", ClusterColumns: cols}
//	plan, err := reconcile.Run(ctx, spec, src, reconcile.RunOptions{DryRun: true})
//
// # Sources
//
// To read from a new backing store, implement the Source interface. See
// feature/merge/sources for file, object storage and database sources.
package reconcile
