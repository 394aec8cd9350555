package analytics

import (
	"linkfolio/internal/timerange"
)

// Pagination bounds for the top-link ranking.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// QueryParams carries one analytics request: the caller, the resolved range,
// and pagination. Invalid pagination is clamped at construction, never
// rejected.
type QueryParams struct {
	UserID      uint
	Range       timerange.Range
	Page        int
	Limit       int
	RollupsOnly bool
}

// NewQueryParams builds clamped query params. RollupsOnly is only meaningful
// in rollup-accelerated mode and is dropped otherwise.
func NewQueryParams(userID uint, r timerange.Range, page, limit int, rollupsOnly bool) QueryParams {
	if r.Strategy != timerange.StrategyRollup {
		rollupsOnly = false
	}
	return QueryParams{
		UserID:      userID,
		Range:       r,
		Page:        ClampPage(page),
		Limit:       ClampLimit(limit),
		RollupsOnly: rollupsOnly,
	}
}

// ClampPage forces the page number to at least 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampLimit forces the page size into [1, MaxLimit], falling back to the
// default for zero or negative values.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
