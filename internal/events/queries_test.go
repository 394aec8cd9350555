package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkfolio/internal/events"
	"linkfolio/internal/pkg/useragent"
	"linkfolio/internal/testsupport"
	"linkfolio/internal/users"
)

func TestEventCountsAndScoping(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	owner := testsupport.CreateTestUser(t, db, "owner@example.com", users.PlanFree, "", nil)
	other := testsupport.CreateTestUser(t, db, "other@example.com", users.PlanFree, "", nil)
	ownerLink := testsupport.CreateTestLink(t, db, owner.ID, "Blog", "https://example.com/blog", 0)
	otherLink := testsupport.CreateTestLink(t, db, other.ID, "Shop", "https://example.com/shop", 0)

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)

	for i := 0; i < 3; i++ {
		testsupport.CreateTestViewEvent(t, db, owner.ID, now.Add(-time.Duration(i)*time.Hour), "mobile", "", "BR", "")
	}
	testsupport.CreateTestViewEvent(t, db, owner.ID, now.AddDate(0, 0, -30), "mobile", "", "BR", "")
	testsupport.CreateTestViewEvent(t, db, other.ID, now, "desktop", "", "US", "")

	testsupport.CreateTestClickEvent(t, db, ownerLink.ID, now, "mobile", "", "BR", "")
	testsupport.CreateTestClickEvent(t, db, ownerLink.ID, now.Add(-time.Hour), "desktop", "", "US", "")
	testsupport.CreateTestClickEvent(t, db, otherLink.ID, now, "desktop", "", "US", "")

	t.Run("views scoped to user and window", func(t *testing.T) {
		count, err := events.CountViews(db, owner.ID, from, now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("clicks scoped through link ownership", func(t *testing.T) {
		count, err := events.CountClicks(db, owner.ID, from, now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("clicks by link exclude other owners", func(t *testing.T) {
		counts, err := events.ClicksByLink(db, owner.ID, from, now)
		require.NoError(t, err)
		require.Len(t, counts, 1)
		assert.Equal(t, ownerLink.ID, counts[0].LinkID)
		assert.Equal(t, int64(2), counts[0].Count)
	})
}

func TestGroupByDay(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	user := testsupport.CreateTestUser(t, db, "days@example.com", users.PlanFree, "", nil)
	link := testsupport.CreateTestLink(t, db, user.ID, "Site", "https://example.com", 0)

	day1 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 12, 21, 30, 0, 0, time.UTC)

	testsupport.CreateTestViewEvent(t, db, user.ID, day1, "mobile", "", "", "")
	testsupport.CreateTestViewEvent(t, db, user.ID, day1.Add(2*time.Hour), "mobile", "", "", "")
	testsupport.CreateTestViewEvent(t, db, user.ID, day2, "desktop", "", "", "")
	testsupport.CreateTestClickEvent(t, db, link.ID, day2, "desktop", "", "", "")

	from := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)

	views, err := events.ViewsByDay(db, user.ID, from, to)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, events.DayCount{Date: "2026-02-10", Count: 2}, views[0])
	assert.Equal(t, events.DayCount{Date: "2026-02-12", Count: 1}, views[1])

	clicks, err := events.ClicksByDay(db, user.ID, from, to)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, events.DayCount{Date: "2026-02-12", Count: 1}, clicks[0])
}

func TestGroupByCountryNormalizesEmpty(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	user := testsupport.CreateTestUser(t, db, "country@example.com", users.PlanFree, "", nil)
	now := time.Now().UTC()

	testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", "", "BR", "")
	testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", "", "BR", "")
	testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", "", "", "")

	counts, err := events.ViewsByCountry(db, user.ID, now.AddDate(0, 0, -1), now)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, events.ValueCount{Name: "BR", Count: 2}, counts[0])
	assert.Equal(t, events.ValueCount{Name: events.UnknownCountry, Count: 1}, counts[1])
}

func TestGroupByReferrerKeepsRawValues(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	user := testsupport.CreateTestUser(t, db, "referrer@example.com", users.PlanFree, "", nil)
	now := time.Now().UTC()

	testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", "", "", "instagram.com")
	testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", "", "", "")

	counts, err := events.ViewsByReferrer(db, user.ID, now.AddDate(0, 0, -1), now)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	// Ties resolve by value ascending; the empty direct referrer sorts first.
	assert.Equal(t, events.DirectReferrer, counts[0].Name)
	assert.Equal(t, "instagram.com", counts[1].Name)
}

// TestOSClassifierBackendsAgree runs both classifier backends over the
// shared user agent fixture: each fixture UA is stored as one view event,
// grouped via the SQL CASE expression, and the resulting per-category counts
// must match classifying the same fixture in-process.
func TestOSClassifierBackendsAgree(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	user := testsupport.CreateTestUser(t, db, "os@example.com", users.PlanFree, "", nil)
	now := time.Now().UTC()

	fixtures := testsupport.UserAgentFixtures()
	expected := make(map[string]int64, len(fixtures))
	for _, ua := range fixtures {
		testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", ua, "", "")
		expected[useragent.ClassifyOS(ua)]++
	}

	counts, err := events.ViewsByOS(db, user.ID, now.AddDate(0, 0, -1), now)
	require.NoError(t, err)

	actual := make(map[string]int64, len(counts))
	for _, c := range counts {
		actual[c.Name] = c.Count
	}
	assert.Equal(t, expected, actual)
}

func TestGroupByDevice(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	user := testsupport.CreateTestUser(t, db, "device@example.com", users.PlanFree, "", nil)
	link := testsupport.CreateTestLink(t, db, user.ID, "Site", "https://example.com", 0)
	now := time.Now().UTC()

	testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", "", "", "")
	testsupport.CreateTestViewEvent(t, db, user.ID, now, "mobile", "", "", "")
	testsupport.CreateTestViewEvent(t, db, user.ID, now, "desktop", "", "", "")
	testsupport.CreateTestClickEvent(t, db, link.ID, now, "desktop", "", "", "")

	views, err := events.ViewsByDevice(db, user.ID, now.AddDate(0, 0, -1), now)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, events.ValueCount{Name: "mobile", Count: 2}, views[0])

	clicks, err := events.ClicksByDevice(db, user.ID, now.AddDate(0, 0, -1), now)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, events.ValueCount{Name: "desktop", Count: 1}, clicks[0])
}
