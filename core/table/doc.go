// Package table provides the in-memory table the merge engine works on, and the
// codecs used to read and write it.
//
// # Table
//
// A Table is column oriented: every column is a []any of scalar cells and all
// columns share the same length. Column order is preserved, so a table decoded
// from a file is written back with the same layout plus any added columns.
//
// # Formats
//
//   - csv: header row, integer-looking fields become int64, empty fields are nil.
//   - json: an array of row objects; key order of first appearance defines column order.
//   - yaml: a sequence of row mappings (goccy/go-yaml).
//   - table: a rendered grid for terminals (tablewriter), encode only.
//
// # Usage
//
//	t, err := table.Decode(f, table.FormatCSV)
//	ids, err := t.Column("id_1")
//	err = table.Encode(os.Stdout, t, table.FormatTable)
package table
