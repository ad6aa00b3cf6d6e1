// Package tabular holds the in-memory representation of one chunk of a
// delimited source file: an ordered set of named string columns. Converter
// pipelines rename vendor columns on a Chunk, inspect which columns the
// source actually carries, and read cell values row by row.
package tabular

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Chunk is a column-major batch of rows read from a delimited file. All
// cells are strings; type coercion happens in the pipelines against the
// target schema.
type Chunk struct {
	names []string
	index map[string]int
	cols  [][]string
	rows  int
}

// New creates an empty chunk with the given column names.
func New(names []string) *Chunk {
	c := &Chunk{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
		cols:  make([][]string, len(names)),
	}
	for i, n := range c.names {
		c.index[n] = i
	}
	return c
}

// FromRecordBatch copies an all-string arrow record batch into a Chunk.
func FromRecordBatch(rec arrow.RecordBatch) (*Chunk, error) {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	c := New(names)
	if err := c.AppendRecordBatch(rec); err != nil {
		return nil, err
	}
	return c, nil
}

// AppendRecordBatch appends the rows of an all-string record batch whose
// columns match the chunk's columns by position.
func (c *Chunk) AppendRecordBatch(rec arrow.RecordBatch) error {
	if int(rec.NumCols()) != len(c.names) {
		return fmt.Errorf("tabular: record has %d columns, chunk has %d", rec.NumCols(), len(c.names))
	}
	for i := 0; i < int(rec.NumCols()); i++ {
		col, ok := rec.Column(i).(*array.String)
		if !ok {
			return fmt.Errorf("tabular: column %q is not a string array", rec.ColumnName(i))
		}
		for r := 0; r < col.Len(); r++ {
			if col.IsNull(r) {
				c.cols[i] = append(c.cols[i], "")
				continue
			}
			c.cols[i] = append(c.cols[i], col.Value(r))
		}
	}
	c.rows += int(rec.NumRows())
	return nil
}

// NumRows returns the number of rows in the chunk.
func (c *Chunk) NumRows() int { return c.rows }

// Names returns the column names in order.
func (c *Chunk) Names() []string { return append([]string(nil), c.names...) }

// Has reports whether a column is present.
func (c *Chunk) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Available returns the set of columns the chunk carries. Pipelines compute
// it once per chunk and branch on it instead of re-inspecting per row.
func (c *Chunk) Available() map[string]bool {
	avail := make(map[string]bool, len(c.names))
	for _, n := range c.names {
		avail[n] = true
	}
	return avail
}

// Get returns the cell at (column, row), or "" when the column is absent.
func (c *Chunk) Get(name string, row int) string {
	i, ok := c.index[name]
	if !ok {
		return ""
	}
	return c.cols[i][row]
}

// SetColumn adds or replaces a column with the given values.
func (c *Chunk) SetColumn(name string, values []string) error {
	if len(values) != c.rows && c.rows != 0 {
		return fmt.Errorf("tabular: column %q has %d values, chunk has %d rows", name, len(values), c.rows)
	}
	if i, ok := c.index[name]; ok {
		c.cols[i] = values
		if c.rows == 0 {
			c.rows = len(values)
		}
		return nil
	}
	c.index[name] = len(c.names)
	c.names = append(c.names, name)
	c.cols = append(c.cols, values)
	if c.rows == 0 {
		c.rows = len(values)
	}
	return nil
}

// Rename applies a vendor-to-canonical column mapping. Columns absent from
// the chunk are ignored; they are filled with schema defaults later.
func (c *Chunk) Rename(mapping map[string]string) {
	for from, to := range mapping {
		i, ok := c.index[from]
		if !ok {
			continue
		}
		delete(c.index, from)
		c.names[i] = to
		c.index[to] = i
	}
}

// ToRecordBatch serializes the chunk as an all-string arrow record batch,
// the layout used for temporary chunk spill files.
func (c *Chunk) ToRecordBatch(mem memory.Allocator) arrow.RecordBatch {
	fields := make([]arrow.Field, len(c.names))
	for i, n := range c.names {
		fields[i] = arrow.Field{Name: n, Type: arrow.BinaryTypes.String}
	}
	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()
	for i := range c.names {
		sb := b.Field(i).(*array.StringBuilder)
		for _, v := range c.cols[i] {
			sb.Append(v)
		}
	}
	return b.NewRecordBatch()
}

// SplitList splits a semicolon-joined cell into trimmed, non-empty parts.
// Empty input yields an empty, non-nil slice.
func SplitList(v string) []string {
	parts := strings.Split(v, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
