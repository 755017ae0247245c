// Package sensor registers diagnostics for IoT sensor telemetry: reading
// completeness, battery health, temperature ranges, and device status.
// It expects tabular data with some of the columns sensor_id, timestamp,
// temperature, battery_level, and status.
package sensor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/payload"
	"github.com/datadiag/datadiag/internal/render"
)

const SystemName = "sensor"

// Battery thresholds in percent.
const (
	lowBattery      = 20.0
	criticalBattery = 10.0
)

// Expected temperature range in degrees Celsius.
const (
	minTemperature = -10.0
	maxTemperature = 50.0
)

func Register(c *catalog.Catalog) {
	c.AddSystem(SystemName, "IoT sensor telemetry diagnostics", "0.1.0")

	c.AddTest(SystemName, catalog.Test{
		Name:        "check_not_empty",
		Description: "Verify sensor data is not empty",
		Fn:          checkNotEmpty,
	})
	c.AddTest(SystemName, catalog.Test{
		Name:        "check_missing_readings",
		Description: "Check for missing sensor readings",
		Fn:          checkMissingReadings,
	})
	c.AddTest(SystemName, catalog.Test{
		Name:        "check_battery_health",
		Description: "Flag sensors with low battery levels",
		Fn:          checkBatteryHealth,
	})
	c.AddTest(SystemName, catalog.Test{
		Name:        "check_temperature_range",
		Description: "Validate temperature readings are within expected range",
		Fn:          checkTemperatureRange,
	})
	c.AddTest(SystemName, catalog.Test{
		Name:        "check_sensor_status",
		Description: "Check for sensors in warning or critical status",
		Fn:          checkSensorStatus,
	})

	c.AddPlot(SystemName, catalog.Plot{
		Name:        "temperature_timeseries",
		Description: "Temperature over time per sensor",
		Fn:          temperatureTimeseries,
	})
	c.AddPlot(SystemName, catalog.Plot{
		Name:        "battery_levels",
		Description: "Battery level per sensor over time",
		Fn:          batteryLevels,
	})
	c.AddPlot(SystemName, catalog.Plot{
		Name:        "correlation_heatmap",
		Description: "Correlation matrix of numeric columns",
		Fn:          correlationHeatmap,
	})
	c.AddPlot(SystemName, catalog.Plot{
		Name:        "sensor_status_breakdown",
		Description: "Share of readings per sensor status",
		Fn:          statusBreakdown,
	})

	c.AddReport(SystemName, catalog.Report{
		Name:        "sensor_health_report",
		Description: "Full health report across all sensors",
		Fn:          healthReport,
	})
}

func checkNotEmpty(data payload.Payload) (diag.Result, error) {
	t, ok := data.(*payload.Table)
	if !ok || t.IsEmpty() {
		return diag.NewResult("check_not_empty", diag.StatusFail, "No data found."), nil
	}
	return diag.NewResult("check_not_empty", diag.StatusPass,
		fmt.Sprintf("Dataset has %d rows and %d columns.", t.Len(), len(t.Columns)),
		diag.Detail{Key: "rows", Value: t.Len()},
		diag.Detail{Key: "columns", Value: t.Columns},
	), nil
}

func checkMissingReadings(data payload.Payload) (diag.Result, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return diag.NewResult("check_missing_readings", diag.StatusWarning,
			"Skipped: not tabular data."), nil
	}

	cols, counts := t.NullCounts()
	total := 0
	byColumn := diag.Details{}
	for i, col := range cols {
		total += counts[i]
		byColumn.Set(col, counts[i])
	}
	cells := t.Len() * len(t.Columns)
	pct := 0.0
	if cells > 0 {
		pct = float64(total) / float64(cells) * 100
	}

	if total == 0 {
		return diag.NewResult("check_missing_readings", diag.StatusPass, "No missing readings."), nil
	}

	status := diag.StatusWarning
	if pct >= 5 {
		status = diag.StatusFail
	}
	return diag.NewResult("check_missing_readings", status,
		fmt.Sprintf("%d missing values (%.1f%% of all cells) across %d column(s).", total, pct, len(cols)),
		diag.Detail{Key: "missing_by_column", Value: byColumn},
		diag.Detail{Key: "total_missing", Value: total},
		diag.Detail{Key: "percent_missing", Value: math.Round(pct*100) / 100},
	), nil
}

func checkBatteryHealth(data payload.Payload) (diag.Result, error) {
	t, ok := data.(*payload.Table)
	if !ok || !t.HasColumn("battery_level") {
		return diag.NewResult("check_battery_health", diag.StatusWarning,
			"No battery_level column found."), nil
	}

	latest := latestBySensor(t, "battery_level")
	critical := diag.Details{}
	low := diag.Details{}
	for _, id := range sortedKeys(latest) {
		level := latest[id]
		switch {
		case level < criticalBattery:
			critical.Set(id, level)
		case level < lowBattery:
			low.Set(id, level)
		}
	}

	if len(critical) > 0 {
		return diag.NewResult("check_battery_health", diag.StatusFail,
			fmt.Sprintf("%d sensor(s) at CRITICAL battery level (<%.0f%%).", len(critical), criticalBattery),
			diag.Detail{Key: "critical_sensors", Value: critical},
			diag.Detail{Key: "low_sensors", Value: low},
		), nil
	}
	if len(low) > 0 {
		return diag.NewResult("check_battery_health", diag.StatusWarning,
			fmt.Sprintf("%d sensor(s) with low battery (<%.0f%%).", len(low), lowBattery),
			diag.Detail{Key: "low_sensors", Value: low},
		), nil
	}
	return diag.NewResult("check_battery_health", diag.StatusPass,
		"All sensors have healthy battery levels."), nil
}

func checkTemperatureRange(data payload.Payload) (diag.Result, error) {
	t, ok := data.(*payload.Table)
	if !ok || !t.HasColumn("temperature") {
		return diag.NewResult("check_temperature_range", diag.StatusWarning,
			"No temperature column found."), nil
	}

	temp, _ := t.NumericColumn("temperature")
	if len(temp) == 0 {
		return diag.NewResult("check_temperature_range", diag.StatusWarning,
			"Temperature column has no numeric readings."), nil
	}

	outOfRange := 0
	min, max, sum := temp[0], temp[0], 0.0
	for _, v := range temp {
		if v < minTemperature || v > maxTemperature {
			outOfRange++
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}

	if outOfRange > 0 {
		return diag.NewResult("check_temperature_range", diag.StatusFail,
			fmt.Sprintf("%d readings outside expected range [%.0f, %.0f].", outOfRange, minTemperature, maxTemperature),
			diag.Detail{Key: "out_of_range_count", Value: outOfRange},
			diag.Detail{Key: "min_observed", Value: min},
			diag.Detail{Key: "max_observed", Value: max},
		), nil
	}
	return diag.NewResult("check_temperature_range", diag.StatusPass,
		fmt.Sprintf("All %d temperature readings within [%.0f, %.0f]. Range: %.1f to %.1f.",
			len(temp), minTemperature, maxTemperature, min, max),
		diag.Detail{Key: "min", Value: min},
		diag.Detail{Key: "max", Value: max},
		diag.Detail{Key: "mean", Value: sum / float64(len(temp))},
	), nil
}

func checkSensorStatus(data payload.Payload) (diag.Result, error) {
	t, ok := data.(*payload.Table)
	if !ok || !t.HasColumn("status") {
		return diag.NewResult("check_sensor_status", diag.StatusWarning,
			"No status column found."), nil
	}

	counts := statusCounts(t)
	breakdown := diag.Details{}
	for _, s := range sortedKeys(counts) {
		breakdown.Set(s, counts[s])
	}
	criticalCount := counts["critical"]
	warningCount := counts["warning"]

	if criticalCount > 0 {
		return diag.NewResult("check_sensor_status", diag.StatusFail,
			fmt.Sprintf("%d readings in 'critical' status, %d in 'warning'.", criticalCount, warningCount),
			diag.Detail{Key: "status_breakdown", Value: breakdown},
		), nil
	}
	if warningCount > 0 {
		return diag.NewResult("check_sensor_status", diag.StatusWarning,
			fmt.Sprintf("%d readings in 'warning' status.", warningCount),
			diag.Detail{Key: "status_breakdown", Value: breakdown},
		), nil
	}
	return diag.NewResult("check_sensor_status", diag.StatusPass,
		"All sensors reporting normal status.",
		diag.Detail{Key: "status_breakdown", Value: breakdown},
	), nil
}

func temperatureTimeseries(data payload.Payload) (any, error) {
	return timeseriesFigure(data, "temperature", "Temperature Over Time", "Temperature")
}

func batteryLevels(data payload.Payload) (any, error) {
	fig, err := timeseriesFigure(data, "battery_level", "Battery Level Over Time", "Battery Level (%)")
	return fig, err
}

// timeseriesFigure plots one line per sensor when sensor_id and timestamp
// columns exist, otherwise one line over the row index.
func timeseriesFigure(data payload.Payload, column, title, yLabel string) (*render.Figure, error) {
	t, ok := data.(*payload.Table)
	if !ok || !t.HasColumn(column) {
		return render.Placeholder(title, fmt.Sprintf("Requires %q column", column)), nil
	}

	fig := &render.Figure{Title: title, XLabel: "Time", YLabel: yLabel}
	vals, _ := t.Column(column)

	if t.HasColumn("sensor_id") && t.HasColumn("timestamp") {
		ids, _ := t.Column("sensor_id")
		stamps, _ := t.Column("timestamp")
		series := map[string]*render.Series{}
		var order []string
		for i, raw := range vals {
			v, ok := raw.(float64)
			if !ok {
				continue
			}
			id := fmt.Sprint(ids[i])
			s := series[id]
			if s == nil {
				s = &render.Series{Kind: render.KindLine, Name: id}
				series[id] = s
				order = append(order, id)
			}
			s.Labels = append(s.Labels, fmt.Sprint(stamps[i]))
			s.Values = append(s.Values, v)
		}
		sort.Strings(order)
		for _, id := range order {
			fig.Series = append(fig.Series, *series[id])
		}
		return fig, nil
	}

	s := render.Series{Kind: render.KindLine, Name: column}
	for i, raw := range vals {
		if v, ok := raw.(float64); ok {
			s.Labels = append(s.Labels, fmt.Sprint(i))
			s.Values = append(s.Values, v)
		}
	}
	fig.XLabel = "Index"
	fig.Series = append(fig.Series, s)
	return fig, nil
}

func correlationHeatmap(data payload.Payload) (any, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return render.Placeholder("Correlation Matrix", "Plot requires tabular input"), nil
	}
	cols := t.NumericColumns()
	if len(cols) == 0 {
		return render.Placeholder("Correlation Matrix", "No numeric columns"), nil
	}

	s := render.Series{Kind: render.KindHeatmap, Name: "pearson", Labels: cols}
	for _, a := range cols {
		for _, b := range cols {
			xs, ys := pairedColumns(t, a, b)
			s.Values = append(s.Values, pearson(xs, ys))
		}
	}
	return &render.Figure{Title: "Correlation Matrix", Series: []render.Series{s}}, nil
}

// pairedColumns returns the values of rows where both columns hold a
// number, so missing cells drop out pairwise.
func pairedColumns(t *payload.Table, a, b string) ([]float64, []float64) {
	av, _ := t.Column(a)
	bv, _ := t.Column(b)
	var xs, ys []float64
	for i := range av {
		x, okA := av[i].(float64)
		y, okB := bv[i].(float64)
		if okA && okB {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

// pearson computes the sample correlation coefficient of the paired
// values. A pair with fewer than two rows or no variance has no defined
// correlation; those cells are emitted as 0 so the figure stays
// JSON-encodable.
func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	n := float64(len(xs))
	meanX, meanY := sumX/n, sumY/n
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

func statusBreakdown(data payload.Payload) (any, error) {
	t, ok := data.(*payload.Table)
	if !ok || !t.HasColumn("status") {
		return render.Placeholder("Sensor Status Breakdown", "Requires \"status\" column"), nil
	}

	counts := statusCounts(t)
	s := render.Series{Kind: render.KindPie, Name: "status"}
	for _, label := range sortedKeys(counts) {
		s.Labels = append(s.Labels, label)
		s.Values = append(s.Values, float64(counts[label]))
	}
	return &render.Figure{Title: "Sensor Status Breakdown", Series: []render.Series{s}}, nil
}

func healthReport(data payload.Payload) (string, error) {
	t, ok := data.(*payload.Table)
	if !ok {
		return "Report requires tabular input.", nil
	}

	var b strings.Builder
	b.WriteString("# Sensor Health Report\n\n")
	fmt.Fprintf(&b, "**Total readings:** %d\n", t.Len())

	if t.HasColumn("sensor_id") {
		ids := uniqueSensorIDs(t)
		fmt.Fprintf(&b, "**Unique sensors:** %d\n", len(ids))
		fmt.Fprintf(&b, "**Sensors:** %s\n", strings.Join(ids, ", "))
	}
	b.WriteString("\n")

	b.WriteString("## Data Completeness\n")
	cols, counts := t.NullCounts()
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		b.WriteString("All readings complete, no missing values.\n")
	} else {
		fmt.Fprintf(&b, "**%d missing values** detected:\n", total)
		for i, col := range cols {
			pct := float64(counts[i]) / float64(t.Len()) * 100
			fmt.Fprintf(&b, "- %s: %d missing (%.1f%%)\n", col, counts[i], pct)
		}
	}
	b.WriteString("\n")

	if t.HasColumn("battery_level") && t.HasColumn("sensor_id") {
		b.WriteString("## Battery Status\n")
		latest := latestBySensor(t, "battery_level")
		for _, id := range sortedKeys(latest) {
			level := latest[id]
			label := "OK"
			switch {
			case level < criticalBattery:
				label = "CRITICAL"
			case level < lowBattery:
				label = "LOW"
			}
			fmt.Fprintf(&b, "- **%s**: %.1f%% [%s]\n", id, level, label)
		}
		b.WriteString("\n")
	}

	if t.HasColumn("temperature") {
		temp, _ := t.NumericColumn("temperature")
		if len(temp) > 0 {
			min, max, mean, std := describe(temp)
			b.WriteString("## Temperature Summary\n")
			fmt.Fprintf(&b, "- Min: %.1f\n", min)
			fmt.Fprintf(&b, "- Max: %.1f\n", max)
			fmt.Fprintf(&b, "- Mean: %.1f\n", mean)
			fmt.Fprintf(&b, "- Std Dev: %.1f\n", std)
			b.WriteString("\n")
		}
	}

	if t.HasColumn("status") {
		b.WriteString("## Status Summary\n")
		sc := statusCounts(t)
		for _, status := range sortedKeys(sc) {
			n := sc[status]
			fmt.Fprintf(&b, "- **%s**: %d readings (%.0f%%)\n", status, n, float64(n)/float64(t.Len())*100)
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// latestBySensor returns the last non-missing numeric value of column per
// sensor_id, in row order. Without a sensor_id column the single key
// "unknown" maps to the last value.
func latestBySensor(t *payload.Table, column string) map[string]float64 {
	vals, _ := t.Column(column)
	out := map[string]float64{}

	if t.HasColumn("sensor_id") {
		ids, _ := t.Column("sensor_id")
		for i, raw := range vals {
			if v, ok := raw.(float64); ok {
				out[fmt.Sprint(ids[i])] = v
			}
		}
		return out
	}
	for _, raw := range vals {
		if v, ok := raw.(float64); ok {
			out["unknown"] = v
		}
	}
	return out
}

func statusCounts(t *payload.Table) map[string]int {
	vals, _ := t.Column("status")
	counts := map[string]int{}
	for _, raw := range vals {
		if raw == nil {
			continue
		}
		counts[fmt.Sprint(raw)]++
	}
	return counts
}

func uniqueSensorIDs(t *payload.Table) []string {
	vals, _ := t.Column("sensor_id")
	seen := map[string]bool{}
	var out []string
	for _, raw := range vals {
		if raw == nil {
			continue
		}
		id := fmt.Sprint(raw)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// describe returns min, max, mean, and sample standard deviation.
func describe(vals []float64) (min, max, mean, std float64) {
	if len(vals) == 0 {
		return 0, 0, 0, 0
	}
	min, max = vals[0], vals[0]
	sum := 0.0
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean = sum / float64(len(vals))
	if len(vals) < 2 {
		return min, max, mean, 0
	}
	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	std = math.Sqrt(ss / float64(len(vals)-1))
	return min, max, mean, std
}
