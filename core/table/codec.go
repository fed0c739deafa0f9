package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"cluster-merge/core/utils"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
)

// Format identifies a table serialization.
type Format string

const (
	// FormatCSV is comma separated values with a header row.
	FormatCSV Format = "csv"
	// FormatJSON is an array of row objects.
	FormatJSON Format = "json"
	// FormatYAML is a sequence of row mappings.
	FormatYAML Format = "yaml"
	// FormatTable is a human readable grid. It can only be encoded.
	FormatTable Format = "table"
)

// ErrUnsupportedFormat is returned for unknown formats or unsupported directions.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat converts a string to Format with validation.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (must be one of csv, json, yaml, table)", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath infers the format from a file or object name extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || ext == string(FormatTable) {
		return "", fmt.Errorf("%w: cannot infer format from %q", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Decode reads a table in the given format.
func Decode(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	default:
		return nil, fmt.Errorf("%w: cannot decode %q", ErrUnsupportedFormat, format)
	}
}

// Encode writes a table in the given format.
func Encode(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatCSV:
		return encodeCSV(w, t)
	case FormatJSON:
		return encodeJSON(w, t)
	case FormatYAML:
		return encodeYAML(w, t)
	case FormatTable:
		return encodeGrid(w, t)
	default:
		return fmt.Errorf("%w: cannot encode %q", ErrUnsupportedFormat, format)
	}
}

// record is one decoded row with its keys in document order.
type record struct {
	keys   []string
	values []any
}

// fromRecords builds a table whose columns appear in first-seen order.
// Keys missing from a record become nil cells.
func fromRecords(records []record) (*Table, error) {
	t, _ := New()
	for _, rec := range records {
		for _, k := range rec.keys {
			if !t.HasColumn(k) {
				if err := t.AddColumn(k, nil); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, rec := range records {
		row := make([]any, len(t.columns))
		for i, k := range rec.keys {
			row[t.index[k]] = rec.values[i]
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func decodeCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return New()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var records [][]string
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(records)+1, err)
		}
		records = append(records, fields)
	}

	columns := make([][]any, len(header))
	for c := range header {
		columns[c] = csvColumn(records, c)
	}
	rows := make([][]any, len(records))
	for r := range rows {
		rows[r] = make([]any, len(header))
		for c := range header {
			rows[r][c] = columns[c][r]
		}
	}
	return FromRows(header, rows)
}

// csvColumn types column c of the CSV records. Empty fields are missing. The
// column becomes int64 only when every other field is an integer in canonical
// form, so keys like "007" or "1.0" keep their text.
func csvColumn(records [][]string, c int) []any {
	values := make([]any, len(records))
	numeric := true
	for r, fields := range records {
		field := fields[c]
		if field == "" {
			continue
		}
		values[r] = field
		if numeric {
			i, err := strconv.ParseInt(field, 10, 64)
			numeric = err == nil && strconv.FormatInt(i, 10) == field
		}
	}
	if !numeric {
		return values
	}
	for r, v := range values {
		if v != nil {
			values[r], _ = strconv.ParseInt(v.(string), 10, 64)
		}
	}
	return values
}

func encodeCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns()); err != nil {
		return err
	}
	fields := make([]string, len(t.columns))
	for i := 0; i < t.rows; i++ {
		for c := range t.columns {
			fields[c] = utils.ToString(t.data[c][i])
		}
		if err := writer.Write(fields); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func decodeJSON(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return New()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("failed to read json: expected an array of row objects")
	}

	var records []record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read json row %d: %w", len(records)+1, err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("failed to read json row %d: expected an object", len(records)+1)
		}
		var rec record
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("failed to read json row %d: %w", len(records)+1, err)
			}
			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("failed to read json row %d: %w", len(records)+1, err)
			}
			rec.keys = append(rec.keys, keyTok.(string))
			rec.values = append(rec.values, jsonCell(value))
		}
		// closing '}'
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to read json row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}
	return fromRecords(records)
}

// jsonCell turns integral json numbers into int64 and keeps other numbers as
// json.Number so they round-trip unchanged.
func jsonCell(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	return n
}

func encodeJSON(w io.Writer, t *Table) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < t.rows; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for c, name := range t.columns {
			if c > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return err
			}
			val, err := json.Marshal(t.data[c][i])
			if err != nil {
				return fmt.Errorf("failed to encode column %q row %d: %w", name, i, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func decodeYAML(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read yaml: %w", err)
	}
	var rows []yaml.MapSlice
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	records := make([]record, 0, len(rows))
	for _, row := range rows {
		rec := record{
			keys:   make([]string, 0, len(row)),
			values: make([]any, 0, len(row)),
		}
		for _, item := range row {
			rec.keys = append(rec.keys, utils.ToString(item.Key))
			rec.values = append(rec.values, yamlCell(item.Value))
		}
		records = append(records, rec)
	}
	return fromRecords(records)
}

// yamlCell normalizes the integer kinds the yaml decoder produces to int64.
func yamlCell(v any) any {
	switch n := v.(type) {
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
	case int:
		return int64(n)
	}
	return v
}

func encodeYAML(w io.Writer, t *Table) error {
	rows := make([]yaml.MapSlice, t.rows)
	for i := range rows {
		row := make(yaml.MapSlice, len(t.columns))
		for c, name := range t.columns {
			row[c] = yaml.MapItem{Key: name, Value: t.data[c][i]}
		}
		rows[i] = row
	}
	data, err := yaml.MarshalWithOptions(rows,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func encodeGrid(w io.Writer, t *Table) error {
	grid := tablewriter.NewTable(w)

	headers := make([]any, len(t.columns))
	for i, name := range t.columns {
		headers[i] = name
	}
	grid.Header(headers...)

	for i := 0; i < t.rows; i++ {
		row := make([]any, len(t.columns))
		for c := range t.columns {
			row[c] = utils.ToString(t.data[c][i])
		}
		if err := grid.Append(row...); err != nil {
			return err
		}
	}
	return grid.Render()
}
