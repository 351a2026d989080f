// table.go — the Row and Table runtime objects.
//
// A row maps column names to values and remembers its schema in source
// order. A table holds rows in insertion order plus the shared schema.
// Tables are immutable to the language except through AddRow (the
// table_add_row intrinsic); iteration always works on a snapshot so an
// append during a for loop cannot affect the traversal.
package wrench

// RowValue is a fixed-schema named-field record.
type RowValue struct {
	Schema []Column
	Fields map[string]Value
}

// NewRow builds a row for the given schema; values are keyed by column name.
func NewRow(schema []Column, fields map[string]Value) *RowValue {
	return &RowValue{Schema: schema, Fields: fields}
}

// Get returns the value of the named column.
func (r *RowValue) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// TableValue is an ordered sequence of rows sharing one schema.
type TableValue struct {
	Schema []Column
	rows   []*RowValue
}

// NewTable creates an empty table with the given schema.
func NewTable(schema []Column) *TableValue {
	return &TableValue{Schema: schema}
}

// AddRow appends a row in place. This is the single sanctioned mutation in
// the language; callers outside a reducer should treat tables as frozen.
func (t *TableValue) AddRow(r *RowValue) {
	t.rows = append(t.rows, r)
}

// Len reports the number of rows.
func (t *TableValue) Len() int { return len(t.rows) }

// Row returns the row at index i.
func (t *TableValue) Row(i int) *RowValue { return t.rows[i] }

// Rows returns a snapshot of the current rows in insertion order. The
// returned slice is detached from the table, so appends made while a caller
// iterates do not change the traversal.
func (t *TableValue) Rows() []*RowValue {
	out := make([]*RowValue, len(t.rows))
	copy(out, t.rows)
	return out
}
