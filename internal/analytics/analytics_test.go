package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"

	"linkfolio/internal/events"
	"linkfolio/internal/testsupport"
	"linkfolio/internal/timerange"
	"linkfolio/internal/users"
)

func rangeFixture() timerange.Range {
	now := time.Now().UTC()
	return timerange.Resolve(timerange.Range30d, "", "", now.AddDate(-1, 0, 0), now)
}

// seedTwoSpeedFixture creates a user with three links, raw events spread over
// two closed months plus the current month, and rollup rows that exactly
// summarize the closed months. Link A gets 5 clicks in a closed month and 5
// in the current month; links B and C stay quiet.
func seedTwoSpeedFixture(t *testing.T) (db *gorm.DB, userID uint, linkAID uint, createdAt time.Time) {
	t.Helper()

	gdb := testsupport.SetupTestDB(t)
	now := time.Now().UTC()
	currentMonth := timerange.MonthStart(now)
	prevMonth := currentMonth.AddDate(0, -1, 0)
	earlierMonth := currentMonth.AddDate(0, -2, 0)
	createdAt = earlierMonth.AddDate(0, 0, -3)

	user := testsupport.CreateTestUser(t, gdb, "fixture@example.com", users.PlanUltra, users.StatusActive, nil)
	require.NoError(t, gdb.Model(user).Update("created_at", createdAt).Error)

	linkA := testsupport.CreateTestLink(t, gdb, user.ID, "Portfolio", "https://example.com/a", 0)
	testsupport.CreateTestLink(t, gdb, user.ID, "Store", "https://example.com/b", 1)
	testsupport.CreateTestLink(t, gdb, user.ID, "Contact", "https://example.com/c", 2)

	// Closed months: raw events plus matching rollup rows.
	for i := 0; i < 4; i++ {
		testsupport.CreateTestViewEvent(t, gdb, user.ID, earlierMonth.Add(time.Duration(i)*time.Hour), "mobile", "", "BR", "")
	}
	for i := 0; i < 6; i++ {
		testsupport.CreateTestViewEvent(t, gdb, user.ID, prevMonth.Add(time.Duration(i)*time.Hour), "desktop", "", "US", "")
	}
	for i := 0; i < 5; i++ {
		testsupport.CreateTestClickEvent(t, gdb, linkA.ID, prevMonth.Add(time.Duration(i)*time.Hour), "mobile", "", "BR", "")
	}
	testsupport.CreateTestUserRollup(t, gdb, user.ID, earlierMonth, 4, 0)
	testsupport.CreateTestUserRollup(t, gdb, user.ID, prevMonth, 6, 5)
	testsupport.CreateTestLinkRollup(t, gdb, user.ID, linkA.ID, prevMonth, 5)

	// Current month: live only, no rollup rows.
	for i := 0; i < 3; i++ {
		testsupport.CreateTestViewEvent(t, gdb, user.ID, now.Add(-time.Duration(i)*time.Minute), "mobile", "", "BR", "")
	}
	for i := 0; i < 5; i++ {
		testsupport.CreateTestClickEvent(t, gdb, linkA.ID, now.Add(-time.Duration(i)*time.Minute), "mobile", "", "BR", "")
	}

	return gdb, user.ID, linkA.ID, createdAt
}

func TestBuildReportAllRange(t *testing.T) {
	db, userID, linkAID, createdAt := seedTwoSpeedFixture(t)
	now := time.Now().UTC()

	r := timerange.Resolve(timerange.RangeAll, "", "", createdAt, now)
	params := NewQueryParams(userID, r, 1, 20, false)

	report, err := BuildReport(context.Background(), db, testsupport.GetLogger(), params)
	require.NoError(t, err)

	t.Run("totals combine rollups and live month", func(t *testing.T) {
		assert.Equal(t, int64(13), report.TotalViews)
		assert.Equal(t, int64(10), report.TotalClicks)
	})

	t.Run("no double counting against a direct scan", func(t *testing.T) {
		directViews, err := events.CountViews(db, userID, r.Start, r.End)
		require.NoError(t, err)
		directClicks, err := events.CountClicks(db, userID, r.Start, r.End)
		require.NoError(t, err)
		assert.Equal(t, directViews, report.TotalViews)
		assert.Equal(t, directClicks, report.TotalClicks)
	})

	t.Run("top links rank link A first with merged clicks", func(t *testing.T) {
		require.NotEmpty(t, report.TopLinks)
		assert.Equal(t, linkAID, report.TopLinks[0].ID)
		assert.Equal(t, int64(10), report.TopLinks[0].Clicks)
		assert.Equal(t, 3, report.TotalTopLinks)
	})

	t.Run("series is daily and complete", func(t *testing.T) {
		assert.Equal(t, ChartTypeDay, report.ChartType)

		var seriesClicks, seriesViews int64
		for _, p := range report.Series {
			seriesClicks += p.Clicks
			seriesViews += p.Views
		}
		assert.Equal(t, report.TotalClicks, seriesClicks)
		assert.Equal(t, report.TotalViews, seriesViews)
	})

	t.Run("breakdowns direct-scan the whole window", func(t *testing.T) {
		var total int64
		for _, d := range report.Devices {
			total += d.TotalInteractions()
		}
		assert.Equal(t, report.TotalViews+report.TotalClicks, total)
	})
}

func TestBuildReportAllRangeExplicitStart(t *testing.T) {
	db, userID, linkAID, _ := seedTwoSpeedFixture(t)
	now := time.Now().UTC()
	prevMonth := timerange.MonthStart(now).AddDate(0, -1, 0)

	// Month-aligned explicit start: rollup months before it are excluded.
	r := timerange.Resolve(timerange.RangeAll,
		prevMonth.Format("2006-01-02"),
		now.Add(time.Second).Format(time.RFC3339),
		time.Time{}, now)
	params := NewQueryParams(userID, r, 1, 20, false)

	report, err := BuildReport(context.Background(), db, testsupport.GetLogger(), params)
	require.NoError(t, err)

	// The 4 views rolled up two months back stay out; prev month + live remain.
	assert.Equal(t, int64(9), report.TotalViews)
	assert.Equal(t, int64(10), report.TotalClicks)
	assert.Equal(t, linkAID, report.TopLinks[0].ID)
	assert.Equal(t, int64(10), report.TopLinks[0].Clicks)

	// Completeness holds on the narrowed window.
	var seriesClicks, seriesViews int64
	for _, p := range report.Series {
		seriesClicks += p.Clicks
		seriesViews += p.Views
	}
	assert.Equal(t, report.TotalClicks, seriesClicks)
	assert.Equal(t, report.TotalViews, seriesViews)
}

func TestBuildReportRollupsOnly(t *testing.T) {
	db, userID, linkAID, createdAt := seedTwoSpeedFixture(t)
	now := time.Now().UTC()

	r := timerange.Resolve(timerange.RangeAll, "", "", createdAt, now)
	params := NewQueryParams(userID, r, 1, 20, true)

	report, err := BuildReport(context.Background(), db, testsupport.GetLogger(), params)
	require.NoError(t, err)

	// Current month excluded entirely.
	assert.Equal(t, int64(10), report.TotalViews)
	assert.Equal(t, int64(5), report.TotalClicks)
	assert.Equal(t, int64(5), report.TopLinks[0].Clicks)
	assert.Equal(t, linkAID, report.TopLinks[0].ID)

	// Monthly buckets, still complete.
	assert.Equal(t, ChartTypeMonth, report.ChartType)
	var seriesClicks, seriesViews int64
	for _, p := range report.Series {
		require.NotEmpty(t, p.Month)
		require.Empty(t, p.Day)
		seriesClicks += p.Clicks
		seriesViews += p.Views
	}
	assert.Equal(t, report.TotalClicks, seriesClicks)
	assert.Equal(t, report.TotalViews, seriesViews)
}

func TestBuildReportDirectScanRange(t *testing.T) {
	db, userID, _, _ := seedTwoSpeedFixture(t)
	now := time.Now().UTC()

	r := timerange.Resolve(timerange.Range7d, "", "", now.AddDate(-1, 0, 0), now)
	params := NewQueryParams(userID, r, 1, 20, false)

	report, err := BuildReport(context.Background(), db, testsupport.GetLogger(), params)
	require.NoError(t, err)

	// A 7d range always yields a 7-bucket daily series.
	assert.Equal(t, ChartTypeDay, report.ChartType)
	assert.Len(t, report.Series, 7)

	var seriesClicks, seriesViews int64
	for _, p := range report.Series {
		seriesClicks += p.Clicks
		seriesViews += p.Views
	}
	assert.Equal(t, report.TotalClicks, seriesClicks)
	assert.Equal(t, report.TotalViews, seriesViews)
}

func TestBuildReportZeroActivity(t *testing.T) {
	gdb := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	user := testsupport.CreateTestUser(t, gdb, "quiet@example.com", users.PlanFree, "", nil)

	r := timerange.Resolve(timerange.Range30d, "", "", now, now)
	params := NewQueryParams(user.ID, r, 1, 20, false)

	report, err := BuildReport(context.Background(), gdb, testsupport.GetLogger(), params)
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.TotalViews)
	assert.Equal(t, int64(0), report.TotalClicks)
	assert.Equal(t, "0.0", report.PerformanceRate)
	assert.Empty(t, report.Devices)
	assert.Empty(t, report.TopLinks)
	assert.Len(t, report.Series, 30)
}
