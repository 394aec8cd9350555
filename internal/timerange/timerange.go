// Package timerange resolves requested range tokens into concrete UTC query
// windows and provides the bucket helpers used to build zero-filled series.
package timerange

import (
	"time"
)

// Token is a closed enum of the supported range selections.
type Token string

const (
	Range7d   Token = "7d"
	Range30d  Token = "30d"
	Range90d  Token = "90d"
	Range365d Token = "365d"
	RangeAll  Token = "all"

	// DefaultToken applies when the request carries no range or an
	// unrecognized one. Unknown tokens are recovered, never rejected.
	DefaultToken = Range30d
)

// Strategy selects how aggregates for a resolved range are computed.
type Strategy string

const (
	// StrategyDirectScan reads raw events for the whole window.
	StrategyDirectScan Strategy = "direct-scan"
	// StrategyRollup reads monthly rollups for closed months and scans raw
	// events only for the current partial month.
	StrategyRollup Strategy = "rollup"
)

// Range is a resolved query window. Start and End are inclusive bounds in UTC
// and always satisfy Start <= End.
type Range struct {
	Token    Token
	Start    time.Time
	End      time.Time
	Strategy Strategy
}

// ParseToken normalizes a raw range parameter. "tudo" is the legacy wire
// alias for the all-time range and stays accepted for API compatibility.
func ParseToken(raw string) Token {
	switch raw {
	case "7d":
		return Range7d
	case "30d":
		return Range30d
	case "90d":
		return Range90d
	case "365d":
		return Range365d
	case "all", "tudo":
		return RangeAll
	default:
		return DefaultToken
	}
}

// Days returns the window length in calendar days for relative tokens, or 0
// for the all-time range.
func (t Token) Days() int {
	switch t {
	case Range7d:
		return 7
	case Range30d:
		return 30
	case Range90d:
		return 90
	case Range365d:
		return 365
	default:
		return 0
	}
}

// AllTokens lists every valid token, narrowest first.
func AllTokens() []Token {
	return []Token{Range7d, Range30d, Range90d, Range365d, RangeAll}
}

// Resolve turns a token plus optional explicit bounds into a concrete range.
// Relative tokens cover the last N calendar days ending at the explicit end
// when one is given, otherwise at now. The all-time token honors both
// explicit bounds when both are present and otherwise spans from account
// creation to now. Malformed bounds are treated as absent and inverted or
// future bounds are clamped, so resolution never fails.
func Resolve(token Token, startRaw, endRaw string, accountCreatedAt, now time.Time) Range {
	now = now.UTC()
	explicitStart, hasStart := parseBound(startRaw, false)
	explicitEnd, hasEnd := parseBound(endRaw, true)

	var start, end time.Time
	if token == RangeAll {
		if hasStart && hasEnd {
			start, end = explicitStart, explicitEnd
		} else {
			start, end = DayStart(accountCreatedAt.UTC()), now
		}
	} else {
		end = now
		if hasEnd {
			end = explicitEnd
		}
		start = DayStart(end).AddDate(0, 0, -(token.Days() - 1))
	}

	if end.After(now) {
		end = now
	}
	if start.After(end) {
		start = DayStart(end)
	}

	strategy := StrategyDirectScan
	if token == RangeAll {
		strategy = StrategyRollup
	}

	return Range{Token: token, Start: start, End: end, Strategy: strategy}
}

// parseBound accepts ISO-8601 dates and timestamps. Date-only end bounds are
// widened to the last instant of that day so the day's events are included.
func parseBound(raw string, isEnd bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if isEnd {
			t = t.AddDate(0, 0, 1).Add(-time.Second)
		}
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// DayStart truncates a time to UTC midnight.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart truncates a time to the first instant of its UTC calendar month.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DayBuckets returns one YYYY-MM-DD label per calendar day from start to end
// inclusive.
func DayBuckets(start, end time.Time) []string {
	var buckets []string
	last := DayStart(end)
	for day := DayStart(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		buckets = append(buckets, day.Format("2006-01-02"))
	}
	return buckets
}

// MonthBuckets returns one YYYY-MM label per calendar month from the month
// containing start up to but excluding the month containing before. It is
// used for rollup-only series, where before is the current month's start.
func MonthBuckets(start, before time.Time) []string {
	var buckets []string
	boundary := MonthStart(before)
	for month := MonthStart(start); month.Before(boundary); month = month.AddDate(0, 1, 0) {
		buckets = append(buckets, month.Format("2006-01"))
	}
	return buckets
}
