package analytics

import (
	"strconv"
)

// Chart granularities. Daily is the norm; monthly applies only to
// rollup-only queries, where the series is sourced purely from closed months.
const (
	ChartTypeDay   = "day"
	ChartTypeMonth = "month"
)

// ChartPoint is one bucket of the report series. Exactly one of Day and
// Month is set, matching the report's chart type.
type ChartPoint struct {
	Day    string `json:"day,omitempty"`
	Month  string `json:"month,omitempty"`
	Clicks int64  `json:"clicks"`
	Views  int64  `json:"views"`
}

// DimensionCount is one value of a dimension breakdown with its interaction
// counts.
type DimensionCount struct {
	Name   string
	Clicks int64
	Views  int64
}

// TotalInteractions is the combined click and view count for the value.
func (d DimensionCount) TotalInteractions() int64 {
	return d.Clicks + d.Views
}

// LinkStat is one entry of the top-link ranking.
type LinkStat struct {
	ID     uint
	Title  string
	URL    string
	Clicks int64
}

// Report is the assembled analytics query result.
type Report struct {
	TotalViews       int64
	TotalClicks      int64
	PerformanceRate  string
	ChartType        string
	Series           []ChartPoint
	TopLinks         []LinkStat
	TotalTopLinks    int
	Devices          []DimensionCount
	OperatingSystems []DimensionCount
	Countries        []DimensionCount
	Referrers        []DimensionCount
}

// formatPerformanceRate renders clicks per view as a percentage with one
// decimal. Zero views yields "0.0", never a division by zero.
func formatPerformanceRate(clicks, views int64) string {
	if views <= 0 {
		return "0.0"
	}
	return strconv.FormatFloat(float64(clicks)/float64(views)*100, 'f', 1, 64)
}
