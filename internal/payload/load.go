package payload

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Load reads a data file and decodes it by extension.
func Load(path string) (Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(filepath.Base(path), f)
}

// Decode sniffs the payload shape from the file name: .csv becomes a
// Table, .json becomes a Table when it is a list of flat records and an
// Object/List otherwise, anything else is kept as raw Text.
func Decode(name string, r io.Reader) (Payload, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return decodeCSV(r)
	case ".json":
		return decodeJSON(r)
	default:
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return Text(raw), nil
	}
}

func decodeCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	t := &Table{Columns: records[0]}
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = parseCell(cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// parseCell converts a CSV cell to float64 where possible, nil when
// empty, and keeps the string otherwise. ParseFloat accepts the Inf and
// NaN spellings, so range checks see those as numbers too.
func parseCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return cell
}

func decodeJSON(r io.Reader) (Payload, error) {
	var v any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	switch val := v.(type) {
	case map[string]any:
		return Object(val), nil
	case []any:
		if t, ok := recordsToTable(val); ok {
			return t, nil
		}
		return List(val), nil
	default:
		return Text(fmt.Sprint(val)), nil
	}
}

// recordsToTable converts a list of flat JSON records into a Table.
// Decoded JSON objects carry no key order, so columns are sorted to keep
// the table deterministic.
func recordsToTable(items []any) (*Table, bool) {
	if len(items) == 0 {
		return nil, false
	}
	records := make([]map[string]any, 0, len(items))
	for _, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			return nil, false
		}
		records = append(records, rec)
	}

	t := &Table{}
	seen := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
	}
	sort.Strings(t.Columns)
	for _, rec := range records {
		row := make([]any, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = rec[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}
