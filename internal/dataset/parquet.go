package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

type physicalType int

const (
	typeString physicalType = iota
	typeInt64
	typeDouble
)

type columnEncoding struct {
	name     string
	typ      physicalType
	optional bool
}

func (c columnEncoding) node() parquet.Node {
	var node parquet.Node
	switch c.typ {
	case typeInt64:
		node = parquet.Leaf(parquet.Int64Type)
	case typeDouble:
		node = parquet.Leaf(parquet.DoubleType)
	default:
		node = parquet.String()
	}
	if c.optional {
		node = parquet.Optional(node)
	}
	return node
}

func (c columnEncoding) value(raw string) (parquet.Value, error) {
	if IsMissing(raw) {
		return parquet.NullValue(), nil
	}
	switch c.typ {
	case typeInt64:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.Int64Value(v), nil
	case typeDouble:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.DoubleValue(v), nil
	default:
		return parquet.ByteArrayValue([]byte(raw)), nil
	}
}

// encodings picks a physical type for every column: INT64 when every present
// value is an integer, DOUBLE when every present value is a number, STRING
// otherwise. Columns with any missing value are OPTIONAL.
func (t *Table) encodings() []columnEncoding {
	encs := make([]columnEncoding, len(t.columns))
	for i, col := range t.columns {
		allInt, allFloat, present := true, true, 0
		optional := false
		for _, row := range t.rows {
			raw := row[i]
			if IsMissing(raw) {
				optional = true
				continue
			}
			present++
			trimmed := strings.TrimSpace(raw)
			if _, err := strconv.ParseInt(trimmed, 10, 64); err != nil {
				allInt = false
			}
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				allFloat = false
			}
		}

		typ := typeString
		switch {
		case col.Kind == KindDouble:
			typ = typeDouble
		case present == 0:
			typ = typeString
		case allInt:
			typ = typeInt64
		case allFloat:
			typ = typeDouble
		}
		encs[i] = columnEncoding{name: col.Name, typ: typ, optional: optional}
	}
	return encs
}

// schemaFor orders leaf columns by name, as parquet groups are.
func schemaFor(encs []columnEncoding) *parquet.Schema {
	group := parquet.Group{}
	for _, enc := range encs {
		group[enc.name] = enc.node()
	}
	return parquet.NewSchema("dataset", group)
}

// WriteParquet encodes the table as a single parquet file. The output only
// depends on the table contents, so writing the same table twice yields
// identical bytes.
func (t *Table) WriteParquet(w io.Writer) error {
	encs := t.encodings()
	schema := schemaFor(encs)

	leaf := make(map[string]int, len(encs))
	for i, field := range schema.Fields() {
		leaf[field.Name()] = i
	}

	rows := make([]parquet.Row, 0, len(t.rows))
	for r, row := range t.rows {
		out := make(parquet.Row, len(encs))
		for i, enc := range encs {
			v, err := enc.value(row[i])
			if err != nil {
				return fmt.Errorf("error encoding row %d column %q: %w", r, enc.name, err)
			}
			definition := 0
			if enc.optional && !v.IsNull() {
				definition = 1
			}
			col := leaf[enc.name]
			out[col] = v.Level(0, definition, col)
		}
		rows = append(rows, out)
	}

	writer := parquet.NewWriter(w, schema)
	if len(rows) > 0 {
		if _, err := writer.WriteRows(rows); err != nil {
			return fmt.Errorf("error writing parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("error closing parquet writer: %w", err)
	}
	return nil
}
