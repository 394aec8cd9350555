// Package rollups holds the precomputed monthly aggregate relations and the
// read-only accessor queries over them. Rollup rows are materialized by an
// external batch job once a month closes; this engine only reads them, and a
// missing row always reads as zero.
package rollups

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MonthlyUserRollup is the per-user monthly total. Rows exist only for
// months strictly before the current month; the hot month is computed live.
type MonthlyUserRollup struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"uniqueIndex:idx_user_rollups_month,priority:1;not null"`
	MonthStart time.Time `gorm:"uniqueIndex:idx_user_rollups_month,priority:2;type:datetime;not null"`
	Views      int64     `gorm:"not null;default:0"`
	Clicks     int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// MonthlyLinkRollup is the per-(user, link) monthly click total, under the
// same month-boundary invariant as MonthlyUserRollup.
type MonthlyLinkRollup struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"index;not null"`
	LinkID     uint      `gorm:"uniqueIndex:idx_link_rollups_month,priority:1;not null"`
	MonthStart time.Time `gorm:"uniqueIndex:idx_link_rollups_month,priority:2;type:datetime;not null"`
	Clicks     int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Totals is a scalar clicks/views pair summed across rollup rows.
type Totals struct {
	Views  int64
	Clicks int64
}

// MonthCount is one completed month of a rollup-only series.
type MonthCount struct {
	Month  string
	Views  int64
	Clicks int64
}

// SumUserTotals sums a user's monthly rollups for months starting at or after
// from and strictly before the given boundary, normally the current month's
// start. Users with no rollup rows in the window get zero totals.
func SumUserTotals(db *gorm.DB, userID uint, from, before time.Time) (Totals, error) {
	var totals Totals
	err := db.Raw(`
        SELECT
            COALESCE(SUM(views), 0) AS views,
            COALESCE(SUM(clicks), 0) AS clicks
        FROM monthly_user_rollups
        WHERE user_id = ? AND month_start >= ? AND month_start < ?
    `, userID, from.UTC(), before.UTC()).Scan(&totals).Error
	if err != nil {
		return Totals{}, fmt.Errorf("error summing user rollups: %w", err)
	}
	return totals, nil
}

// SumLinkClicks sums a user's per-link rollup clicks for months within
// [from, before), keyed by link ID. Links without rollup rows in the window
// are absent from the map.
func SumLinkClicks(db *gorm.DB, userID uint, from, before time.Time) (map[uint]int64, error) {
	var rows []struct {
		LinkID uint
		Clicks int64
	}
	err := db.Raw(`
        SELECT
            link_id,
            COALESCE(SUM(clicks), 0) AS clicks
        FROM monthly_link_rollups
        WHERE user_id = ? AND month_start >= ? AND month_start < ?
        GROUP BY link_id
    `, userID, from.UTC(), before.UTC()).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error summing link rollups: %w", err)
	}

	result := make(map[uint]int64, len(rows))
	for _, row := range rows {
		result[row.LinkID] = row.Clicks
	}
	return result, nil
}

// MonthlySeries returns one point per completed month with rollup rows in
// [from, before), ordered chronologically.
func MonthlySeries(db *gorm.DB, userID uint, from, before time.Time) ([]MonthCount, error) {
	var results []MonthCount
	err := db.Raw(`
        SELECT
            strftime('%Y-%m', month_start) AS month,
            COALESCE(SUM(views), 0) AS views,
            COALESCE(SUM(clicks), 0) AS clicks
        FROM monthly_user_rollups
        WHERE user_id = ? AND month_start >= ? AND month_start < ?
        GROUP BY month
        ORDER BY month ASC
    `, userID, from.UTC(), before.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching monthly rollup series: %w", err)
	}
	return results, nil
}
