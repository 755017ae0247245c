package payload

// Payload is the data value handed to every registered check, plot, and
// report. The engine passes it verbatim and never looks inside; plugins
// type-switch on the variants below. The interface is sealed so the set
// of shapes a plugin has to handle stays closed.
type Payload interface {
	isPayload()
}

// Table is column-ordered tabular data. Cell values are float64, string,
// bool, or nil (missing), matching what the loaders produce.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Object is a parsed JSON object.
type Object map[string]any

// List is a parsed JSON array that is not a list of flat records.
type List []any

// Text is the raw-string fallback for anything the loaders cannot parse.
type Text string

func (*Table) isPayload() {}
func (Object) isPayload() {}
func (List) isPayload()   {}
func (Text) isPayload()   {}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return t.Len() == 0 }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

// Column returns all values of the named column in row order, and whether
// the column exists. Missing cells come back as nil.
func (t *Table) Column(name string) ([]any, bool) {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, nil)
		}
	}
	return out, true
}

// NumericColumn returns the non-missing numeric values of the named
// column. The second return is false when the column does not exist.
func (t *Table) NumericColumn(name string) ([]float64, bool) {
	vals, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out, true
}

// NumericColumns returns the names of columns that hold at least one
// numeric value and nothing but numbers and missing cells.
func (t *Table) NumericColumns() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Columns))
	for i, name := range t.Columns {
		numeric := 0
		mixed := false
		for _, row := range t.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			if _, ok := row[i].(float64); ok {
				numeric++
			} else {
				mixed = true
				break
			}
		}
		if numeric > 0 && !mixed {
			out = append(out, name)
		}
	}
	return out
}

// NullCounts returns, per column, how many cells are missing. Columns
// with no missing cells are omitted. Order follows t.Columns.
func (t *Table) NullCounts() ([]string, []int) {
	if t == nil {
		return nil, nil
	}
	var names []string
	var counts []int
	for i, name := range t.Columns {
		n := 0
		for _, row := range t.Rows {
			if i >= len(row) || row[i] == nil {
				n++
			}
		}
		if n > 0 {
			names = append(names, name)
			counts = append(counts, n)
		}
	}
	return names, counts
}

func (t *Table) columnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
