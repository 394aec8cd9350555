// Package analytics is the query engine behind GET /analytics: it resolves
// one request into scalar totals, four dimension breakdowns, a zero-filled
// series, and a paginated top-link ranking, using monthly rollups for closed
// months and live event scans for the current one.
package analytics

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"linkfolio/internal/events"
	"linkfolio/internal/links"
	"linkfolio/internal/pkg/async"
	"linkfolio/internal/rollups"
	"linkfolio/internal/timerange"
)

type scalarTotals struct {
	Views  int64
	Clicks int64
}

type seriesResult struct {
	Points    []ChartPoint
	ChartType string
}

// BuildReport runs one analytics query end to end. All component reads fan
// out over ctx and are joined before assembly; any store failure aborts the
// whole request without a partial report.
func BuildReport(ctx context.Context, db *gorm.DB, logger *slog.Logger, params QueryParams) (*Report, error) {
	currentMonthStart := timerange.MonthStart(time.Now().UTC())

	userLinks, err := links.ForUser(db, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("error fetching link set: %w", err)
	}

	tasks := []async.Task{
		{
			Name: "totals",
			Execute: func() (interface{}, error) {
				return fetchTotals(db, params, currentMonthStart)
			},
		},
		{
			Name: "series",
			Execute: func() (interface{}, error) {
				return fetchSeries(db, params, currentMonthStart)
			},
		},
		{
			Name: "topLinks",
			Execute: func() (interface{}, error) {
				return fetchRankedLinks(db, params, userLinks, currentMonthStart)
			},
		},
		{
			Name: "devices",
			Execute: func() (interface{}, error) {
				return fetchBreakdown(db, params, events.ClicksByDevice, events.ViewsByDevice)
			},
		},
		{
			Name: "operatingSystems",
			Execute: func() (interface{}, error) {
				return fetchBreakdown(db, params, events.ClicksByOS, events.ViewsByOS)
			},
		},
		{
			Name: "countries",
			Execute: func() (interface{}, error) {
				return fetchBreakdown(db, params, events.ClicksByCountry, events.ViewsByCountry)
			},
		},
		{
			Name: "referrers",
			Execute: func() (interface{}, error) {
				return fetchBreakdown(db, params, events.ClicksByReferrer, events.ViewsByReferrer)
			},
		},
	}

	pool := async.NewPool(4)
	results := pool.Execute(ctx, tasks)

	if len(results) < len(tasks) {
		return nil, fmt.Errorf("analytics query aborted: %w", ctx.Err())
	}
	for name, result := range results {
		if result.Err != nil {
			logger.Error("Analytics component query failed",
				slog.String("component", name),
				slog.Any("error", result.Err))
			return nil, fmt.Errorf("error computing %s: %w", name, result.Err)
		}
	}

	totals := results["totals"].Data.(scalarTotals)
	series := results["series"].Data.(seriesResult)
	ranked := results["topLinks"].Data.([]LinkStat)

	return &Report{
		TotalViews:       totals.Views,
		TotalClicks:      totals.Clicks,
		PerformanceRate:  formatPerformanceRate(totals.Clicks, totals.Views),
		ChartType:        series.ChartType,
		Series:           series.Points,
		TopLinks:         PaginateLinks(ranked, params.Page, params.Limit),
		TotalTopLinks:    len(ranked),
		Devices:          results["devices"].Data.([]DimensionCount),
		OperatingSystems: results["operatingSystems"].Data.([]DimensionCount),
		Countries:        results["countries"].Data.([]DimensionCount),
		Referrers:        results["referrers"].Data.([]DimensionCount),
	}, nil
}

// fetchTotals computes scalar clicks/views. Rollup-accelerated ranges sum
// the closed-month rollups from the window's start month and add a live scan
// of the current partial month on top; a month is sourced from exactly one of
// the two, never both. Explicit all-time bounds are honored at month
// granularity on the rollup side, so the window's first month counts in full.
func fetchTotals(db *gorm.DB, params QueryParams, currentMonthStart time.Time) (scalarTotals, error) {
	r := params.Range
	if r.Strategy != timerange.StrategyRollup {
		views, err := events.CountViews(db, params.UserID, r.Start, r.End)
		if err != nil {
			return scalarTotals{}, err
		}
		clicks, err := events.CountClicks(db, params.UserID, r.Start, r.End)
		if err != nil {
			return scalarTotals{}, err
		}
		return scalarTotals{Views: views, Clicks: clicks}, nil
	}

	rolled, err := rollups.SumUserTotals(db, params.UserID, timerange.MonthStart(r.Start), currentMonthStart)
	if err != nil {
		return scalarTotals{}, err
	}
	totals := scalarTotals{Views: rolled.Views, Clicks: rolled.Clicks}

	if !params.RollupsOnly {
		liveFrom, liveTo, ok := liveWindow(r, currentMonthStart)
		if ok {
			views, err := events.CountViews(db, params.UserID, liveFrom, liveTo)
			if err != nil {
				return scalarTotals{}, err
			}
			clicks, err := events.CountClicks(db, params.UserID, liveFrom, liveTo)
			if err != nil {
				return scalarTotals{}, err
			}
			totals.Views += views
			totals.Clicks += clicks
		}
	}
	return totals, nil
}

// fetchSeries builds the zero-filled chart series: daily buckets over the
// whole window, or monthly rollup buckets when the caller opted out of live
// computation.
func fetchSeries(db *gorm.DB, params QueryParams, currentMonthStart time.Time) (seriesResult, error) {
	r := params.Range
	if params.RollupsOnly {
		months, err := rollups.MonthlySeries(db, params.UserID, timerange.MonthStart(r.Start), currentMonthStart)
		if err != nil {
			return seriesResult{}, err
		}
		buckets := timerange.MonthBuckets(r.Start, currentMonthStart)
		return seriesResult{
			Points:    BuildMonthlySeries(buckets, months),
			ChartType: ChartTypeMonth,
		}, nil
	}

	views, err := events.ViewsByDay(db, params.UserID, r.Start, r.End)
	if err != nil {
		return seriesResult{}, err
	}
	clicks, err := events.ClicksByDay(db, params.UserID, r.Start, r.End)
	if err != nil {
		return seriesResult{}, err
	}
	return seriesResult{
		Points:    BuildDailySeries(timerange.DayBuckets(r.Start, r.End), clicks, views),
		ChartType: ChartTypeDay,
	}, nil
}

// fetchRankedLinks builds the full unpaginated ranking across the user's
// link set.
func fetchRankedLinks(db *gorm.DB, params QueryParams, userLinks []links.Link, currentMonthStart time.Time) ([]LinkStat, error) {
	r := params.Range
	if r.Strategy != timerange.StrategyRollup {
		live, err := events.ClicksByLink(db, params.UserID, r.Start, r.End)
		if err != nil {
			return nil, err
		}
		return RankLinks(userLinks, nil, live), nil
	}

	rolled, err := rollups.SumLinkClicks(db, params.UserID, timerange.MonthStart(r.Start), currentMonthStart)
	if err != nil {
		return nil, err
	}
	var live []events.LinkCount
	if !params.RollupsOnly {
		if liveFrom, liveTo, ok := liveWindow(r, currentMonthStart); ok {
			live, err = events.ClicksByLink(db, params.UserID, liveFrom, liveTo)
			if err != nil {
				return nil, err
			}
		}
	}
	return RankLinks(userLinks, rolled, live), nil
}

type groupedQuery func(db *gorm.DB, userID uint, from, to time.Time) ([]events.ValueCount, error)

// fetchBreakdown computes one dimension breakdown. Breakdowns always direct-
// scan the resolved window, including in rollup-accelerated mode: rollups
// carry no dimensional data, only scalar and per-link totals.
func fetchBreakdown(db *gorm.DB, params QueryParams, clicksBy, viewsBy groupedQuery) ([]DimensionCount, error) {
	r := params.Range
	clicks, err := clicksBy(db, params.UserID, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	views, err := viewsBy(db, params.UserID, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	return MergeDimension(clicks, views), nil
}

// liveWindow intersects the resolved range with the current partial month.
func liveWindow(r timerange.Range, currentMonthStart time.Time) (time.Time, time.Time, bool) {
	from := currentMonthStart
	if r.Start.After(from) {
		from = r.Start
	}
	if from.After(r.End) {
		return time.Time{}, time.Time{}, false
	}
	return from, r.End, true
}
