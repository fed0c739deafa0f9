package sources

import (
	"bytes"
	"context"
	"fmt"

	"cluster-merge/core/reconcile"
	"cluster-merge/core/storage"
	"cluster-merge/core/table"
)

// Object reads and writes tables stored in the object storage bucket.
type Object struct {
	client storage.Client
	bucket string
	name   string
	output string
}

// NewObject creates an object source. An empty output defaults to MergedName(name).
func NewObject(client storage.Client, bucket, name, output string) *Object {
	if output == "" {
		output = MergedName(name)
	}
	return &Object{client: client, bucket: bucket, name: name, output: output}
}

// ObjectURI formats the identifier of an object in a bucket.
func ObjectURI(bucket, name string) string {
	return "s3://" + bucket + "/" + name
}

// Name returns the URI of the input object.
func (o *Object) Name() string {
	return ObjectURI(o.bucket, o.name)
}

// Output returns the name of the object Save writes to.
func (o *Object) Output() string {
	return o.output
}

// Load downloads and decodes the input object.
func (o *Object) Load(ctx context.Context) (*table.Table, error) {
	format, err := table.FormatFromPath(o.name)
	if err != nil {
		return nil, err
	}
	data, err := storage.ReadObject(ctx, o.client, o.bucket, o.name)
	if err != nil {
		return nil, err
	}
	t, err := table.Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", o.name, err)
	}
	return t, nil
}

// Save encodes the merged table and uploads it as the output object.
func (o *Object) Save(ctx context.Context, t *table.Table, spec reconcile.Spec) error {
	format, err := table.FormatFromPath(o.output)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := table.Encode(&buf, t, format); err != nil {
		return err
	}
	return storage.WriteObject(ctx, o.client, o.bucket, o.output, buf.Bytes(), ContentType(format))
}

// ContentType returns the MIME type used when uploading a table format.
func ContentType(format table.Format) string {
	switch format {
	case table.FormatCSV:
		return "text/csv"
	case table.FormatJSON:
		return "application/json"
	case table.FormatYAML:
		return "application/yaml"
	default:
		return "text/plain"
	}
}
