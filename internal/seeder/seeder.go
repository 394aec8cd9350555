// Package seeder generates demo data: a demo account with links, raw view
// and click events spread over several months, and monthly rollup rows that
// exactly summarize every closed month. The invariant matters: report totals
// for broad ranges come from rollups plus the live month, so a rollup row
// that disagrees with its month's raw events would surface as double or
// missing counts in the dashboard.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"linkfolio/internal/events"
	"linkfolio/internal/links"
	"linkfolio/internal/rollups"
	"linkfolio/internal/timerange"
	"linkfolio/internal/users"
)

const (
	demoEmail    = "demo@linkfolio.app"
	demoPassword = "password"
)

// Seeder handles the demo data seeding process.
type Seeder struct {
	DBManager cartridge.DBManager
	Logger    *slog.Logger
	Months    int // closed months to backfill, current month is always live-only
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, months int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if months < 1 {
		months = 6
	}
	return &Seeder{
		DBManager: dbManager,
		Logger:    logger,
		Months:    months,
	}
}

var seedLinks = []struct {
	title string
	url   string
}{
	{"Portfolio", "https://example.com/portfolio"},
	{"YouTube Channel", "https://youtube.com/@demo"},
	{"Store", "https://shop.example.com"},
	{"Newsletter", "https://news.example.com/subscribe"},
}

var seedDevices = []string{"mobile", "mobile", "mobile", "desktop", "desktop", "tablet"}

var seedUserAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

var seedCountries = []string{"US", "US", "BR", "DE", "GB", "IN", ""}

var seedReferrers = []string{"", "", "instagram.com", "t.co", "youtube.com", "google.com"}

// Run seeds the demo account. Safe to re-run: it refuses to touch a database
// that already has the demo user.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	db := s.DBManager.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	if _, err := users.FindByEmail(db, demoEmail); err == nil {
		return fmt.Errorf("demo user %s already exists, refusing to seed twice", demoEmail)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for demo user: %w", err)
	}

	s.Logger.Info("Seeding demo data...",
		slog.String("email", demoEmail),
		slog.Int("months", s.Months))

	if err := users.CreateUser(db, demoEmail, demoPassword, users.PlanUltra); err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	user, err := users.FindByEmail(db, demoEmail)
	if err != nil {
		return fmt.Errorf("failed to load demo user: %w", err)
	}

	now := time.Now().UTC()
	currentMonth := timerange.MonthStart(now)
	accountStart := currentMonth.AddDate(0, -s.Months, 0)
	if err := db.Model(user).Update("created_at", accountStart).Error; err != nil {
		return fmt.Errorf("failed to backdate demo user: %w", err)
	}

	seededLinks := make([]links.Link, 0, len(seedLinks))
	for i, l := range seedLinks {
		link := links.Link{
			UserID:   user.ID,
			Title:    l.title,
			URL:      l.url,
			Position: i,
		}
		if err := db.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to create link %q: %w", l.title, err)
		}
		seededLinks = append(seededLinks, link)
	}

	// Closed months: raw events plus rollup rows that summarize them exactly.
	for m := s.Months; m >= 1; m-- {
		monthStart := currentMonth.AddDate(0, -m, 0)
		if err := s.seedMonth(ctx, db, user.ID, seededLinks, monthStart, true); err != nil {
			return err
		}
	}

	// Current month: live events only, no rollup row.
	if err := s.seedMonth(ctx, db, user.ID, seededLinks, currentMonth, false); err != nil {
		return err
	}

	s.Logger.Info("Demo seeding completed",
		slog.String("email", demoEmail),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// seedMonth writes one month of events. For closed months it also writes the
// matching rollup rows; for the current month it stops at "now" and writes
// none.
func (s *Seeder) seedMonth(ctx context.Context, db *gorm.DB, userID uint, seededLinks []links.Link, monthStart time.Time, closed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	monthEnd := monthStart.AddDate(0, 1, 0)
	if !closed && monthEnd.After(now) {
		monthEnd = now
	}
	span := monthEnd.Sub(monthStart)
	if span <= 0 {
		return nil
	}

	viewCount := 120 + rand.IntN(240)
	clickCount := viewCount / 3

	viewRows := make([]events.ViewEvent, 0, viewCount)
	for i := 0; i < viewCount; i++ {
		viewRows = append(viewRows, events.ViewEvent{
			UserID:     userID,
			OccurredAt: monthStart.Add(time.Duration(rand.Int64N(int64(span)))),
			Device:     pick(seedDevices),
			UserAgent:  pick(seedUserAgents),
			Country:    pick(seedCountries),
			Referrer:   pick(seedReferrers),
		})
	}
	if err := db.CreateInBatches(viewRows, 200).Error; err != nil {
		return fmt.Errorf("failed to seed views for %s: %w", monthStart.Format("2006-01"), err)
	}

	clicksPerLink := make(map[uint]int64, len(seededLinks))
	clickRows := make([]events.ClickEvent, 0, clickCount)
	for i := 0; i < clickCount; i++ {
		// Skew clicks toward the first links so top links has a clear order.
		link := seededLinks[rand.IntN(len(seededLinks)*2)%len(seededLinks)]
		clicksPerLink[link.ID]++
		clickRows = append(clickRows, events.ClickEvent{
			LinkID:     link.ID,
			OccurredAt: monthStart.Add(time.Duration(rand.Int64N(int64(span)))),
			Device:     pick(seedDevices),
			UserAgent:  pick(seedUserAgents),
			Country:    pick(seedCountries),
			Referrer:   pick(seedReferrers),
		})
	}
	if err := db.CreateInBatches(clickRows, 200).Error; err != nil {
		return fmt.Errorf("failed to seed clicks for %s: %w", monthStart.Format("2006-01"), err)
	}

	if !closed {
		return nil
	}

	userRollup := rollups.MonthlyUserRollup{
		UserID:     userID,
		MonthStart: monthStart,
		Views:      int64(viewCount),
		Clicks:     int64(clickCount),
	}
	if err := db.Create(&userRollup).Error; err != nil {
		return fmt.Errorf("failed to seed user rollup for %s: %w", monthStart.Format("2006-01"), err)
	}

	for linkID, clicks := range clicksPerLink {
		linkRollup := rollups.MonthlyLinkRollup{
			UserID:     userID,
			LinkID:     linkID,
			MonthStart: monthStart,
			Clicks:     clicks,
		}
		if err := db.Create(&linkRollup).Error; err != nil {
			return fmt.Errorf("failed to seed link rollup for %s: %w", monthStart.Format("2006-01"), err)
		}
	}

	return nil
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}
