package table

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("data/clusters.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = FormatFromPath("clusters.merged.yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("clusters")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeCSV(t *testing.T) {
	input := "address,id_1,id_2\nA,1,0\nB,x,\n"

	tbl, err := Decode(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"address", "id_1", "id_2"}, tbl.Columns())
	assert.Equal(t, []any{"A", "1", int64(0)}, tbl.Row(0))
	assert.Equal(t, []any{"B", "x", nil}, tbl.Row(1))
}

func TestDecodeCSVColumnTyping(t *testing.T) {
	input := "address,id_1,id_2,zip\n007,1,1.0,10\n7,,2.0,-3\nabc,3,,+4\n"

	tbl, err := Decode(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)

	address, err := tbl.Column("address")
	require.NoError(t, err)
	assert.Equal(t, []any{"007", "7", "abc"}, address)

	id1, err := tbl.Column("id_1")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, int64(3)}, id1)

	id2, err := tbl.Column("id_2")
	require.NoError(t, err)
	assert.Equal(t, []any{"1.0", "2.0", nil}, id2)

	zip, err := tbl.Column("zip")
	require.NoError(t, err)
	assert.Equal(t, []any{"10", "-3", "+4"}, zip)
}

func TestDecodeCSVEmpty(t *testing.T) {
	tbl, err := Decode(strings.NewReader(""), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Columns())
}

func TestDecodeJSON(t *testing.T) {
	input := `[{"address":"A","id_1":1,"score":0.5},{"id_1":2,"address":"B","extra":true}]`

	tbl, err := Decode(strings.NewReader(input), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"address", "id_1", "score", "extra"}, tbl.Columns())
	assert.Equal(t, []any{"A", int64(1), json.Number("0.5"), nil}, tbl.Row(0))
	assert.Equal(t, []any{"B", int64(2), nil, true}, tbl.Row(1))
}

func TestDecodeJSONErrors(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"address":"A"}`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`[1,2]`), FormatJSON)
	assert.Error(t, err)

	tbl, err := Decode(strings.NewReader(`[]`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestDecodeYAML(t *testing.T) {
	input := "- address: A\n  id_1: 1\n- address: B\n  id_1: -2\n"

	tbl, err := Decode(strings.NewReader(input), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"address", "id_1"}, tbl.Columns())
	assert.Equal(t, []any{"A", int64(1)}, tbl.Row(0))
	assert.Equal(t, []any{"B", int64(-2)}, tbl.Row(1))
}

func TestRoundTripKeepsColumnOrder(t *testing.T) {
	tbl, err := FromRows([]string{"zeta", "alpha", "id"}, [][]any{
		{"A", int64(3), int64(1)},
		{"B", int64(0), int64(0)},
	})
	require.NoError(t, err)

	for _, format := range []Format{FormatCSV, FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, tbl, format))

			decoded, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, tbl.Columns(), decoded.Columns())
			assert.Equal(t, tbl.Rows(), decoded.Rows())
		})
	}
}

func TestEncodeGrid(t *testing.T) {
	tbl, err := FromRows([]string{"address", "id"}, [][]any{{"A", int64(1)}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tbl, FormatTable))
	assert.Contains(t, buf.String(), "A")
	assert.Contains(t, strings.ToUpper(buf.String()), "ADDRESS")

	_, err = Decode(&buf, FormatTable)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
