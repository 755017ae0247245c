// Package render defines the serializable figure description that plot
// functions produce. The engine treats figures as opaque values; this
// type is a contract between the domain plugins and whatever frontend
// draws the chart from its JSON form.
package render

import "math"

type SeriesKind string

const (
	KindHistogram SeriesKind = "histogram"
	KindLine      SeriesKind = "line"
	KindBar       SeriesKind = "bar"
	KindPie       SeriesKind = "pie"
	KindHeatmap   SeriesKind = "heatmap"
)

type Series struct {
	Kind   SeriesKind `json:"kind"`
	Name   string     `json:"name"`
	Labels []string   `json:"labels,omitempty"` // bar/pie categories, line x labels, heatmap axes
	// Values: bar heights, pie sizes, line y. For a heatmap they are the
	// len(Labels) x len(Labels) matrix in row-major order.
	Values []float64 `json:"values,omitempty"`
	// Histogram-only: len(BinEdges) == len(Counts)+1.
	BinEdges []float64 `json:"bin_edges,omitempty"`
	Counts   []int     `json:"counts,omitempty"`
}

type Figure struct {
	Title  string   `json:"title"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	Series []Series `json:"series,omitempty"`
	// Note replaces the chart when the data cannot be plotted, mirroring
	// a placeholder panel in the dashboard.
	Note string `json:"note,omitempty"`
}

// Placeholder builds a figure that carries only an explanatory note.
func Placeholder(title, note string) *Figure {
	return &Figure{Title: title, Note: note}
}

// Histogram bins vals into n equal-width buckets. Non-finite values are
// dropped; they would poison the bucket math.
func Histogram(name string, vals []float64, n int) Series {
	if n < 1 {
		n = 1
	}
	s := Series{Kind: KindHistogram, Name: name}
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	vals = finite
	if len(vals) == 0 {
		return s
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	width := (hi - lo) / float64(n)
	s.BinEdges = make([]float64, n+1)
	for i := 0; i <= n; i++ {
		s.BinEdges[i] = lo + float64(i)*width
	}
	s.Counts = make([]int, n)
	for _, v := range vals {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1 // hi lands in the last bucket
		}
		if idx < 0 {
			idx = 0
		}
		s.Counts[idx]++
	}
	return s
}
