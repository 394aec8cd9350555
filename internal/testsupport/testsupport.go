// Package testsupport provides the shared test database and fixture helpers
// used by package tests across the repository.
package testsupport

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/karloscodes/cartridge/cache"

	"linkfolio/internal/config"
	"linkfolio/internal/events"
	"linkfolio/internal/links"
	"linkfolio/internal/rollups"
	"linkfolio/internal/users"
)

// SessionCookieName matches the cookie pattern set up in routes.go:
// cfg.AppName + "_session".
const SessionCookieName = "linkfolio_session"

// testDBCache caches test databases by root test name so subtests share one
// database with their parent.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager.
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns every model for migration.
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&users.User{},
		&links.Link{},
		&events.ViewEvent{},
		&events.ClickEvent{},
		&rollups.MonthlyUserRollup{},
		&rollups.MonthlyLinkRollup{},
	}
}

// SetupTestDB creates a test database with all models migrated. Uses a named
// in-memory database with cache=shared so multiple connections within one
// test reach the same data.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager plus a quiet logger.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set LINKFOLIO_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a test logger that only reports errors.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestUser creates a user with the given subscription state. A nil end
// date means no expiry.
func CreateTestUser(t *testing.T, db *gorm.DB, email, plan, status string, endDate *time.Time) *users.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &users.User{
		Email:              email,
		EncryptedPassword:  string(hashedPassword),
		SubscriptionPlan:   plan,
		SubscriptionStatus: status,
	}
	if endDate != nil {
		user.SubscriptionEndDate = sql.NullTime{Time: *endDate, Valid: true}
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestLink creates a link owned by the given user.
func CreateTestLink(t *testing.T, db *gorm.DB, userID uint, title, url string, position int) *links.Link {
	t.Helper()

	link := &links.Link{UserID: userID, Title: title, URL: url, Position: position}
	require.NoError(t, db.Create(link).Error)
	return link
}

// CreateTestViewEvent records one profile view.
func CreateTestViewEvent(t *testing.T, db *gorm.DB, userID uint, occurredAt time.Time, device, userAgent, country, referrer string) {
	t.Helper()

	event := &events.ViewEvent{
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
		Device:     device,
		UserAgent:  userAgent,
		Country:    country,
		Referrer:   referrer,
	}
	require.NoError(t, db.Create(event).Error)
}

// CreateTestClickEvent records one click on a link.
func CreateTestClickEvent(t *testing.T, db *gorm.DB, linkID uint, occurredAt time.Time, device, userAgent, country, referrer string) {
	t.Helper()

	event := &events.ClickEvent{
		LinkID:     linkID,
		OccurredAt: occurredAt.UTC(),
		Device:     device,
		UserAgent:  userAgent,
		Country:    country,
		Referrer:   referrer,
	}
	require.NoError(t, db.Create(event).Error)
}

// CreateTestUserRollup writes one closed-month per-user rollup row.
func CreateTestUserRollup(t *testing.T, db *gorm.DB, userID uint, monthStart time.Time, views, clicks int64) {
	t.Helper()

	row := &rollups.MonthlyUserRollup{
		UserID:     userID,
		MonthStart: monthStart.UTC(),
		Views:      views,
		Clicks:     clicks,
	}
	require.NoError(t, db.Create(row).Error)
}

// CreateTestLinkRollup writes one closed-month per-link rollup row.
func CreateTestLinkRollup(t *testing.T, db *gorm.DB, userID, linkID uint, monthStart time.Time, clicks int64) {
	t.Helper()

	row := &rollups.MonthlyLinkRollup{
		UserID:     userID,
		LinkID:     linkID,
		MonthStart: monthStart.UTC(),
		Clicks:     clicks,
	}
	require.NoError(t, db.Create(row).Error)
}

// UserAgentFixtures is the shared fixture used to prove the in-process OS
// classifier and the SQL CASE backend agree on every sample.
func UserAgentFixtures() []string {
	return []string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/120.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Linux; Android 14; Windows NT emulation layer)",
		"Googlebot/2.1 (+http://www.google.com/bot.html)",
		"curl/8.4.0",
		"",
	}
}
