// Package tabular registers generic diagnostics for any tabular dataset:
// emptiness, null values, and numeric sanity. It doubles as the template
// to copy when adding a new system.
package tabular

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/payload"
	"github.com/datadiag/datadiag/internal/render"
)

const SystemName = "tabular"

// Register adds the system and all of its entries to the catalog.
func Register(c *catalog.Catalog) {
	c.AddSystem(SystemName, "Generic diagnostics for tabular data", "0.1.0")

	c.AddTest(SystemName, catalog.Test{
		Name:        "check_not_empty",
		Description: "Verify the data is not empty",
		Fn:          checkNotEmpty,
	})
	c.AddTest(SystemName, catalog.Test{
		Name:        "check_no_nulls",
		Description: "Check for null or missing values",
		Fn:          checkNoNulls,
	})
	c.AddTest(SystemName, catalog.Test{
		Name:        "check_numeric_ranges",
		Description: "Validate numeric columns have finite values",
		Fn:          checkNumericRanges,
	})

	c.AddPlot(SystemName, catalog.Plot{
		Name:        "data_overview",
		Description: "Overview histogram of numeric columns",
		Fn:          dataOverview,
	})
	c.AddPlot(SystemName, catalog.Plot{
		Name:        "null_breakdown",
		Description: "Missing values per column",
		Fn:          nullBreakdown,
	})

	c.AddReport(SystemName, catalog.Report{
		Name:        "summary_report",
		Description: "Text summary of the dataset",
		Fn:          summaryReport,
	})
}

func checkNotEmpty(data payload.Payload) (diag.Result, error) {
	var empty bool
	var size int
	switch d := data.(type) {
	case *payload.Table:
		empty = d.IsEmpty()
		size = d.Len()
	case payload.Object:
		empty = len(d) == 0
		size = len(d)
	case payload.List:
		empty = len(d) == 0
		size = len(d)
	case payload.Text:
		empty = len(strings.TrimSpace(string(d))) == 0
		size = len(d)
	default:
		empty = data == nil
	}

	if empty {
		return diag.NewResult("check_not_empty", diag.StatusFail, "Data is empty."), nil
	}
	return diag.NewResult("check_not_empty", diag.StatusPass,
		fmt.Sprintf("Data has %s records.", humanize.Comma(int64(size))),
		diag.Detail{Key: "record_count", Value: size},
	), nil
}

func checkNoNulls(data payload.Payload) (diag.Result, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return diag.NewResult("check_no_nulls", diag.StatusWarning,
			"Null check only supported for tabular input. Skipped."), nil
	}

	cols, counts := t.NullCounts()
	total := 0
	byColumn := diag.Details{}
	for i, col := range cols {
		total += counts[i]
		byColumn.Set(col, counts[i])
	}

	if total == 0 {
		return diag.NewResult("check_no_nulls", diag.StatusPass, "No null values found."), nil
	}

	status := diag.StatusWarning
	if total >= t.Len() {
		status = diag.StatusFail
	}
	return diag.NewResult("check_no_nulls", status,
		fmt.Sprintf("Found %d null value(s) across %d column(s).", total, len(cols)),
		diag.Detail{Key: "columns_with_nulls", Value: byColumn},
	), nil
}

func checkNumericRanges(data payload.Payload) (diag.Result, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return diag.NewResult("check_numeric_ranges", diag.StatusWarning,
			"Range check only supported for tabular input. Skipped."), nil
	}

	numericCols := t.NumericColumns()
	if len(numericCols) == 0 {
		return diag.NewResult("check_numeric_ranges", diag.StatusWarning,
			"No numeric columns found to check."), nil
	}

	issues := diag.Details{}
	for _, col := range numericCols {
		vals, _ := t.NumericColumn(col)
		bad := 0
		for _, v := range vals {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				bad++
			}
		}
		if bad > 0 {
			issues.Set(col, bad)
		}
	}

	if len(issues) > 0 {
		return diag.NewResult("check_numeric_ranges", diag.StatusFail,
			fmt.Sprintf("Found non-finite values in %d column(s).", len(issues)),
			diag.Detail{Key: "columns_with_issues", Value: issues},
		), nil
	}
	return diag.NewResult("check_numeric_ranges", diag.StatusPass,
		fmt.Sprintf("All %d numeric column(s) have finite values.", len(numericCols)),
		diag.Detail{Key: "numeric_columns", Value: numericCols},
	), nil
}

func dataOverview(data payload.Payload) (any, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return render.Placeholder("Numeric Column Distributions", "Plot requires tabular input"), nil
	}
	numericCols := t.NumericColumns()
	if len(numericCols) == 0 {
		return render.Placeholder("Numeric Column Distributions", "No numeric columns to plot"), nil
	}

	fig := &render.Figure{Title: "Numeric Column Distributions", XLabel: "Value", YLabel: "Count"}
	for _, col := range numericCols {
		vals, _ := t.NumericColumn(col)
		fig.Series = append(fig.Series, render.Histogram(col, vals, 20))
	}
	return fig, nil
}

func nullBreakdown(data payload.Payload) (any, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return render.Placeholder("Missing Values by Column", "Plot requires tabular input"), nil
	}

	fig := &render.Figure{Title: "Missing Values by Column", YLabel: "Missing cells"}
	series := render.Series{Kind: render.KindBar, Name: "missing"}
	for i, col := range t.Columns {
		n := 0
		for _, row := range t.Rows {
			if i >= len(row) || row[i] == nil {
				n++
			}
		}
		series.Labels = append(series.Labels, col)
		series.Values = append(series.Values, float64(n))
	}
	fig.Series = append(fig.Series, series)
	return fig, nil
}

func summaryReport(data payload.Payload) (string, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return fmt.Sprintf("Data type: %T\nCannot generate detailed summary for non-tabular data.", data), nil
	}

	var b strings.Builder
	b.WriteString("# Data Summary Report\n\n")
	fmt.Fprintf(&b, "**Rows:** %s\n", humanize.Comma(int64(t.Len())))
	fmt.Fprintf(&b, "**Columns:** %d\n\n", len(t.Columns))

	b.WriteString("## Column Types\n")
	for i, col := range t.Columns {
		fmt.Fprintf(&b, "- **%s**: %s\n", col, columnType(t, i))
	}

	b.WriteString("\n## Null Counts\n")
	cols, counts := t.NullCounts()
	if len(cols) == 0 {
		b.WriteString("- No null values found.\n")
	}
	for i, col := range cols {
		pct := float64(counts[i]) / float64(t.Len()) * 100
		fmt.Fprintf(&b, "- **%s**: %d nulls (%.1f%%)\n", col, counts[i], pct)
	}

	numericCols := t.NumericColumns()
	if len(numericCols) > 0 {
		b.WriteString("\n## Numeric Summary\n")
		for _, col := range numericCols {
			vals, _ := t.NumericColumn(col)
			min, max, mean, std := describe(vals)
			fmt.Fprintf(&b, "- **%s**: min=%.4g, max=%.4g, mean=%.4g, std=%.4g\n", col, min, max, mean, std)
		}
	}
	return b.String(), nil
}

// columnType labels a column by the value kinds it holds.
func columnType(t *payload.Table, idx int) string {
	kinds := map[string]bool{}
	for _, row := range t.Rows {
		if idx >= len(row) || row[idx] == nil {
			continue
		}
		switch row[idx].(type) {
		case float64:
			kinds["number"] = true
		case bool:
			kinds["bool"] = true
		default:
			kinds["string"] = true
		}
	}
	switch {
	case len(kinds) == 0:
		return "empty"
	case len(kinds) > 1:
		return "mixed"
	case kinds["number"]:
		return "number"
	case kinds["bool"]:
		return "bool"
	default:
		return "string"
	}
}

// describe returns min, max, mean, and sample standard deviation of the
// finite values.
func describe(vals []float64) (min, max, mean, std float64) {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0, 0, 0
	}
	min, max = finite[0], finite[0]
	sum := 0.0
	for _, v := range finite {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean = sum / float64(len(finite))
	if len(finite) < 2 {
		return min, max, mean, 0
	}
	var ss float64
	for _, v := range finite {
		ss += (v - mean) * (v - mean)
	}
	std = math.Sqrt(ss / float64(len(finite)-1))
	return min, max, mean, std
}
