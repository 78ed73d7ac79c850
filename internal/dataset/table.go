// Package dataset loads the companion-diagnostic table from its configured
// sources and exposes it as ordered rows keyed by normalized column name.
//
// A Table is built fresh on every call to [Loader.Load] and is never mutated
// after it is returned. Callers that need the latest data simply load again.
package dataset

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Row is a single record keyed by column name.
// Columns keep the order in which they appeared in the source header.
type Row struct {
	columns []string
	values  map[string]string
}

// NewRow builds a row from alternating column/value pairs.
// A trailing column without a value is stored with an empty value.
func NewRow(pairs ...string) Row {
	r := newRow(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		val := ""
		if i+1 < len(pairs) {
			val = pairs[i+1]
		}
		r.Set(pairs[i], val)
	}
	return r
}

func newRow(size int) Row {
	return Row{
		columns: make([]string, 0, size),
		values:  make(map[string]string, size),
	}
}

// Set stores a value for col. Setting an existing column replaces its value
// but keeps its original position.
func (r *Row) Set(col, val string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[col]; !ok {
		r.columns = append(r.columns, col)
	}
	r.values[col] = val
}

// Get returns the value stored for col and whether the column is present.
func (r Row) Get(col string) (string, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Value returns the value for col, or "" when the column is absent.
func (r Row) Value(col string) string {
	return r.values[col]
}

// Has reports whether the row carries col.
func (r Row) Has(col string) bool {
	_, ok := r.values[col]
	return ok
}

// Missing returns the columns from required that the row does not carry.
func (r Row) Missing(required []string) []string {
	var missing []string
	for _, col := range required {
		if !r.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Columns returns the row's column names in source order.
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.columns)
}

// MarshalJSON encodes the row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table is the parsed dataset: the normalized header and every data row.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the header carries col.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// MissingColumns returns the columns from required that the header lacks.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}
