package dataset

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readParquet(t *testing.T, data []byte) (*parquet.File, []map[string]any) {
	t.Helper()

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, field := range file.Schema().Fields() {
		names = append(names, field.Name())
	}

	if file.NumRows() == 0 {
		return file, nil
	}

	reader := parquet.NewReader(bytes.NewReader(data))
	defer reader.Close()

	rows := make([]parquet.Row, file.NumRows())
	n, err := reader.ReadRows(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	require.Equal(t, int(file.NumRows()), n)

	records := make([]map[string]any, 0, n)
	for _, row := range rows[:n] {
		record := make(map[string]any, len(row))
		for _, v := range row {
			name := names[v.Column()]
			switch {
			case v.IsNull():
				record[name] = nil
			case v.Kind() == parquet.Int64:
				record[name] = v.Int64()
			case v.Kind() == parquet.Double:
				record[name] = v.Double()
			default:
				record[name] = string(v.ByteArray())
			}
		}
		records = append(records, record)
	}
	return file, records
}

func TestWriteParquet(t *testing.T) {
	table := mustTable(t, "Date,High,Low,Volume\n2024-01-02,10.5,5,100\n2024-01-03,8,3.25,\n")
	require.NoError(t, table.Derive("Average", func(row Row) (float64, error) {
		high, _ := table.Float(row, "High")
		low, _ := table.Float(row, "Low")
		return high - low, nil
	}))

	var buf bytes.Buffer
	require.NoError(t, table.WriteParquet(&buf))

	file, records := readParquet(t, buf.Bytes())
	assert.Equal(t, int64(2), file.NumRows())

	fields := map[string]parquet.Field{}
	for _, f := range file.Schema().Fields() {
		fields[f.Name()] = f
	}
	require.Len(t, fields, 5)
	assert.Equal(t, parquet.ByteArray, fields["Date"].Type().Kind())
	assert.Equal(t, parquet.Double, fields["High"].Type().Kind())
	assert.Equal(t, parquet.Double, fields["Low"].Type().Kind())
	assert.Equal(t, parquet.Int64, fields["Volume"].Type().Kind())
	assert.True(t, fields["Volume"].Optional())
	assert.False(t, fields["High"].Optional())
	assert.Equal(t, parquet.Double, fields["Average"].Type().Kind())

	assert.Equal(t, []map[string]any{
		{"Date": "2024-01-02", "High": 10.5, "Low": 5.0, "Volume": int64(100), "Average": 5.5},
		{"Date": "2024-01-03", "High": 8.0, "Low": 3.25, "Volume": nil, "Average": 4.75},
	}, records)
}

func TestWriteParquetDeterministic(t *testing.T) {
	table := mustTable(t, "Currency,High,Low\nUSD,10,5\nEUR,8,3\n")

	var first, second bytes.Buffer
	require.NoError(t, table.WriteParquet(&first))
	require.NoError(t, table.WriteParquet(&second))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteParquetEmptyTable(t *testing.T) {
	table := mustTable(t, "High,Low\n")

	var buf bytes.Buffer
	require.NoError(t, table.WriteParquet(&buf))

	file, records := readParquet(t, buf.Bytes())
	assert.Equal(t, int64(0), file.NumRows())
	assert.Empty(t, records)
	assert.Len(t, file.Schema().Fields(), 2)
}
