package merge

import (
	"encoding/json"

	"cluster-merge/core/reconcile"
)

// SpecRequest carries optional overrides of the configured merge columns.
type SpecRequest struct {
	EntityColumn   string   `json:"entity_column"`
	ClusterColumns []string `json:"cluster_columns"`
	OutputColumn   string   `json:"output_column"`
}

// InlineRequest is the body of POST /merge.
type InlineRequest struct {
	SpecRequest
	// Rows is an array of row objects. Key order defines column order.
	Rows json.RawMessage `json:"rows"`
}

// InlineResponse is the result of merging inline rows.
type InlineResponse struct {
	Rows    json.RawMessage   `json:"rows"`
	Summary reconcile.Summary `json:"summary"`
}

// ObjectRequest describes a merge of a stored object.
type ObjectRequest struct {
	SpecRequest
	// Name is the input object.
	Name string
	// Output is the object to write. Empty means "<base>.merged.<ext>".
	Output string
	// DryRun computes the result without writing it.
	DryRun bool
}

// TableRequest describes a merge of a database table.
type TableRequest struct {
	SpecRequest
	// Name is the input table.
	Name string
	// Output is the table receiving (entity, id) rows. Empty means "<table>_merged".
	Output string
	// DryRun computes the result without writing it.
	DryRun bool
}

// Report describes a merge of a stored table.
type Report struct {
	// Input is the source that was merged.
	Input string `json:"input"`
	// Output is where the result was, or would be, written.
	Output string `json:"output"`
	// Applied is true when the result was written.
	Applied bool `json:"applied"`
	// Plan holds the summary and timing of the merge.
	Plan *reconcile.Plan `json:"plan"`
}
