package analytics

import (
	"linkfolio/internal/events"
	"linkfolio/internal/rollups"
)

// BuildDailySeries zero-fills one point per day bucket and overlays the
// grouped click and view counts. Buckets carry YYYY-MM-DD labels.
func BuildDailySeries(buckets []string, clicks, views []events.DayCount) []ChartPoint {
	clicksByDay := make(map[string]int64, len(clicks))
	for _, c := range clicks {
		clicksByDay[c.Date] = c.Count
	}
	viewsByDay := make(map[string]int64, len(views))
	for _, v := range views {
		viewsByDay[v.Date] = v.Count
	}

	series := make([]ChartPoint, len(buckets))
	for i, day := range buckets {
		series[i] = ChartPoint{
			Day:    day,
			Clicks: clicksByDay[day],
			Views:  viewsByDay[day],
		}
	}
	return series
}

// BuildMonthlySeries zero-fills one point per completed-month bucket and
// overlays the rollup sums. Buckets carry YYYY-MM labels.
func BuildMonthlySeries(buckets []string, months []rollups.MonthCount) []ChartPoint {
	byMonth := make(map[string]rollups.MonthCount, len(months))
	for _, m := range months {
		byMonth[m.Month] = m
	}

	series := make([]ChartPoint, len(buckets))
	for i, month := range buckets {
		point := byMonth[month]
		series[i] = ChartPoint{
			Month:  month,
			Clicks: point.Clicks,
			Views:  point.Views,
		}
	}
	return series
}
