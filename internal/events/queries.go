package events

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"linkfolio/internal/pkg/useragent"
)

// Dimension expressions shared by the grouped queries below. Country falls
// back to the unknown sentinel; OS classification is pushed down as a CASE
// expression generated from the classifier's rule table.
const (
	deviceExpr   = "device"
	countryExpr  = "CASE WHEN country = '' THEN 'unknown' ELSE country END"
	referrerExpr = "referrer"
)

func osExpr() string {
	return useragent.OSCaseExpression("user_agent")
}

// CountViews returns the number of profile views for a user in [from, to].
func CountViews(db *gorm.DB, userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := db.Raw(`
        SELECT COUNT(*)
        FROM view_events
        WHERE user_id = ? AND occurred_at BETWEEN ? AND ?
    `, userID, from.UTC(), to.UTC()).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting views: %w", err)
	}
	return count, nil
}

// CountClicks returns the number of clicks across all of a user's links in
// [from, to].
func CountClicks(db *gorm.DB, userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := db.Raw(`
        SELECT COUNT(*)
        FROM click_events
        JOIN links ON links.id = click_events.link_id
        WHERE links.user_id = ? AND click_events.occurred_at BETWEEN ? AND ?
    `, userID, from.UTC(), to.UTC()).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting clicks: %w", err)
	}
	return count, nil
}

// ViewsByDay groups a user's views into UTC day buckets.
func ViewsByDay(db *gorm.DB, userID uint, from, to time.Time) ([]DayCount, error) {
	var results []DayCount
	err := db.Raw(`
        SELECT
            strftime('%Y-%m-%d', occurred_at) AS date,
            COUNT(*) AS count
        FROM view_events
        WHERE user_id = ? AND occurred_at BETWEEN ? AND ?
        GROUP BY date
        ORDER BY date ASC
    `, userID, from.UTC(), to.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching views by day: %w", err)
	}
	return results, nil
}

// ClicksByDay groups clicks on a user's links into UTC day buckets.
func ClicksByDay(db *gorm.DB, userID uint, from, to time.Time) ([]DayCount, error) {
	var results []DayCount
	err := db.Raw(`
        SELECT
            strftime('%Y-%m-%d', click_events.occurred_at) AS date,
            COUNT(*) AS count
        FROM click_events
        JOIN links ON links.id = click_events.link_id
        WHERE links.user_id = ? AND click_events.occurred_at BETWEEN ? AND ?
        GROUP BY date
        ORDER BY date ASC
    `, userID, from.UTC(), to.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching clicks by day: %w", err)
	}
	return results, nil
}

func viewsByDimension(db *gorm.DB, expr string, userID uint, from, to time.Time) ([]ValueCount, error) {
	var results []ValueCount
	query := fmt.Sprintf(`
        SELECT
            %s AS name,
            COUNT(*) AS count
        FROM view_events
        WHERE user_id = ? AND occurred_at BETWEEN ? AND ?
        GROUP BY name
        HAVING count > 0
        ORDER BY count DESC, name ASC
    `, expr)
	err := db.Raw(query, userID, from.UTC(), to.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching grouped views: %w", err)
	}
	return results, nil
}

func clicksByDimension(db *gorm.DB, expr string, userID uint, from, to time.Time) ([]ValueCount, error) {
	var results []ValueCount
	query := fmt.Sprintf(`
        SELECT
            %s AS name,
            COUNT(*) AS count
        FROM click_events
        JOIN links ON links.id = click_events.link_id
        WHERE links.user_id = ? AND click_events.occurred_at BETWEEN ? AND ?
        GROUP BY name
        HAVING count > 0
        ORDER BY count DESC, name ASC
    `, expr)
	err := db.Raw(query, userID, from.UTC(), to.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching grouped clicks: %w", err)
	}
	return results, nil
}

// ViewsByDevice groups a user's views by device class.
func ViewsByDevice(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return viewsByDimension(db, deviceExpr, userID, from, to)
}

// ClicksByDevice groups clicks on a user's links by device class.
func ClicksByDevice(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return clicksByDimension(db, deviceExpr, userID, from, to)
}

// ViewsByOS groups a user's views by OS category, classified in the database.
func ViewsByOS(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return viewsByDimension(db, osExpr(), userID, from, to)
}

// ClicksByOS groups clicks on a user's links by OS category.
func ClicksByOS(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return clicksByDimension(db, osExpr(), userID, from, to)
}

// ViewsByCountry groups a user's views by country code.
func ViewsByCountry(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return viewsByDimension(db, countryExpr, userID, from, to)
}

// ClicksByCountry groups clicks on a user's links by country code.
func ClicksByCountry(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return clicksByDimension(db, countryExpr, userID, from, to)
}

// ViewsByReferrer groups a user's views by referrer.
func ViewsByReferrer(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return viewsByDimension(db, referrerExpr, userID, from, to)
}

// ClicksByReferrer groups clicks on a user's links by referrer.
func ClicksByReferrer(db *gorm.DB, userID uint, from, to time.Time) ([]ValueCount, error) {
	return clicksByDimension(db, referrerExpr, userID, from, to)
}

// ClicksByLink returns per-link click counts for a user's links in [from, to].
// Links without clicks in the window are absent; callers zero-fill.
func ClicksByLink(db *gorm.DB, userID uint, from, to time.Time) ([]LinkCount, error) {
	var results []LinkCount
	err := db.Raw(`
        SELECT
            links.id AS link_id,
            COUNT(click_events.id) AS count
        FROM click_events
        JOIN links ON links.id = click_events.link_id
        WHERE links.user_id = ? AND click_events.occurred_at BETWEEN ? AND ?
        GROUP BY links.id
        HAVING count > 0
        ORDER BY count DESC, links.id ASC
    `, userID, from.UTC(), to.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching clicks by link: %w", err)
	}
	return results, nil
}
