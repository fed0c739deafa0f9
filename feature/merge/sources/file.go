package sources

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"cluster-merge/core/reconcile"
	"cluster-merge/core/table"
)

// File reads and writes tables on the local filesystem.
// The format of both files is inferred from their extensions.
type File struct {
	path   string
	output string
}

// NewFile creates a file source. An empty output defaults to MergedName(path).
func NewFile(path, output string) *File {
	if output == "" {
		output = MergedName(path)
	}
	return &File{path: path, output: output}
}

// Name returns the input path.
func (f *File) Name() string {
	return "file://" + f.path
}

// Output returns the path Save writes to.
func (f *File) Output() string {
	return f.output
}

// Load decodes the input file.
func (f *File) Load(ctx context.Context) (*table.Table, error) {
	format, err := table.FormatFromPath(f.path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	return table.Decode(file, format)
}

// Save encodes the merged table into the output file.
func (f *File) Save(ctx context.Context, t *table.Table, spec reconcile.Spec) error {
	format, err := table.FormatFromPath(f.output)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := table.Encode(&buf, t, format); err != nil {
		return err
	}
	if err := os.WriteFile(f.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.output, err)
	}
	return nil
}
