package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"linkfolio/internal/analytics"
	"linkfolio/internal/plans"
	"linkfolio/internal/timerange"
	"linkfolio/internal/users"
	"linkfolio/pkg/extension"
)

// AnalyticsResponse is the JSON body of GET /analytics.
type AnalyticsResponse struct {
	TotalProfileViews int64                  `json:"totalProfileViews"`
	TotalClicks       int64                  `json:"totalClicks"`
	PerformanceRate   string                 `json:"performanceRate"`
	ChartData         []analytics.ChartPoint `json:"chartData"`
	TopLinks          []TopLinkEntry         `json:"topLinks"`
	DeviceAnalytics   []DeviceEntry          `json:"deviceAnalytics"`
	OSAnalytics       []OSEntry              `json:"osAnalytics"`
	CountryAnalytics  []CountryEntry         `json:"countryAnalytics"`
	ReferrerAnalytics []ReferrerEntry        `json:"referrerAnalytics"`
	Meta              AnalyticsMeta          `json:"meta"`
}

type TopLinkEntry struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Clicks int64  `json:"clicks"`
}

type DeviceEntry struct {
	Device            string `json:"device"`
	Clicks            int64  `json:"clicks"`
	Views             int64  `json:"views"`
	TotalInteractions int64  `json:"totalInteractions"`
}

type OSEntry struct {
	OS                string `json:"os"`
	Clicks            int64  `json:"clicks"`
	Views             int64  `json:"views"`
	TotalInteractions int64  `json:"totalInteractions"`
}

type CountryEntry struct {
	Country           string `json:"country"`
	Clicks            int64  `json:"clicks"`
	Views             int64  `json:"views"`
	TotalInteractions int64  `json:"totalInteractions"`
}

type ReferrerEntry struct {
	Referrer          string `json:"referrer"`
	Clicks            int64  `json:"clicks"`
	Views             int64  `json:"views"`
	TotalInteractions int64  `json:"totalInteractions"`
}

type AnalyticsMeta struct {
	Range         string `json:"range"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
	TotalTopLinks int    `json:"totalTopLinks"`
	RollupsOnly   *bool  `json:"rollupsOnly,omitempty"`
	ChartType     string `json:"chartType,omitempty"`
}

// cacheMaxAge maps a range token to the Cache-Control freshness window in
// seconds. Broader ranges move slower and cache longer; all-time stays at a
// moderate window because its current month is still live.
func cacheMaxAge(token timerange.Token) int {
	switch token {
	case timerange.Range7d:
		return 60
	case timerange.Range30d:
		return 120
	case timerange.Range90d:
		return 300
	case timerange.Range365d:
		return 600
	case timerange.RangeAll:
		return 300
	default:
		return 120
	}
}

// AnalyticsIndexAction handles GET /analytics. It resolves the caller,
// gates the requested range by effective plan before touching any store,
// then delegates to the query engine and shapes the report for the wire.
func AnalyticsIndexAction(ctx *cartridge.Context) error {
	userID, ok := ctx.Session.GetUserID(ctx.Ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthenticated",
		})
	}

	db := ctx.DB()
	user, err := users.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		ctx.Logger.Error("Failed to load user for analytics", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	now := time.Now().UTC()
	token := timerange.ParseToken(ctx.Query("range", string(timerange.DefaultToken)))

	plan := user.EffectivePlan(now)
	if err := plans.Authorize(plan, token); err != nil {
		var rangeErr *plans.RangeNotPermittedError
		if errors.As(err, &rangeErr) {
			ctx.Logger.Info("Analytics range rejected by plan gate",
				slog.String("plan", rangeErr.Plan),
				slog.String("range", string(rangeErr.Token)))
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "range not permitted",
				"plan":    rangeErr.Plan,
				"upgrade": extension.RangeUpgrade(token),
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	resolved := timerange.Resolve(token, ctx.Query("start"), ctx.Query("end"), user.CreatedAt, now)
	params := analytics.NewQueryParams(
		user.ID,
		resolved,
		ctx.Ctx.QueryInt("page", 1),
		ctx.Ctx.QueryInt("limit", analytics.DefaultLimit),
		ctx.Ctx.QueryBool("rollupsOnly", false),
	)

	report, err := analytics.BuildReport(ctx.Ctx.UserContext(), db, ctx.Logger, params)
	if err != nil {
		ctx.Logger.Error("Failed to build analytics report",
			slog.Int("userId", int(user.ID)),
			slog.String("range", string(token)),
			slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	ctx.Ctx.Set(fiber.HeaderCacheControl, fmt.Sprintf("private, max-age=%d", cacheMaxAge(token)))
	return ctx.JSON(buildAnalyticsResponse(report, params))
}

func buildAnalyticsResponse(report *analytics.Report, params analytics.QueryParams) AnalyticsResponse {
	r := params.Range

	meta := AnalyticsMeta{
		Range:         string(r.Token),
		StartDate:     r.Start.Format("2006-01-02"),
		EndDate:       r.End.Format("2006-01-02"),
		Page:          params.Page,
		Limit:         params.Limit,
		TotalTopLinks: report.TotalTopLinks,
		ChartType:     report.ChartType,
	}
	if r.Strategy == timerange.StrategyRollup {
		rollupsOnly := params.RollupsOnly
		meta.RollupsOnly = &rollupsOnly
	}

	return AnalyticsResponse{
		TotalProfileViews: report.TotalViews,
		TotalClicks:       report.TotalClicks,
		PerformanceRate:   report.PerformanceRate,
		ChartData:         ensureNonNilPoints(report.Series),
		TopLinks:          convertTopLinks(report.TopLinks),
		DeviceAnalytics:   convertDeviceEntries(report.Devices),
		OSAnalytics:       convertOSEntries(report.OperatingSystems),
		CountryAnalytics:  convertCountryEntries(report.Countries),
		ReferrerAnalytics: convertReferrerEntries(report.Referrers),
		Meta:              meta,
	}
}

func convertTopLinks(items []analytics.LinkStat) []TopLinkEntry {
	result := make([]TopLinkEntry, len(items))
	for i, item := range items {
		result[i] = TopLinkEntry{
			ID:     item.ID,
			Title:  item.Title,
			URL:    item.URL,
			Clicks: item.Clicks,
		}
	}
	return result
}

func convertDeviceEntries(items []analytics.DimensionCount) []DeviceEntry {
	caser := cases.Title(language.AmericanEnglish)

	result := make([]DeviceEntry, len(items))
	for i, item := range items {
		name := item.Name
		if name == "" {
			name = "Unknown"
		} else {
			name = caser.String(name)
		}
		result[i] = DeviceEntry{
			Device:            name,
			Clicks:            item.Clicks,
			Views:             item.Views,
			TotalInteractions: item.TotalInteractions(),
		}
	}
	return result
}

func convertOSEntries(items []analytics.DimensionCount) []OSEntry {
	caser := cases.Title(language.AmericanEnglish)

	result := make([]OSEntry, len(items))
	for i, item := range items {
		name := item.Name

		// iOS and macOS keep their vendor capitalization.
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ios":
			name = "iOS"
		case "macos":
			name = "macOS"
		default:
			name = caser.String(name)
		}
		result[i] = OSEntry{
			OS:                name,
			Clicks:            item.Clicks,
			Views:             item.Views,
			TotalInteractions: item.TotalInteractions(),
		}
	}
	return result
}

func convertCountryEntries(items []analytics.DimensionCount) []CountryEntry {
	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	result := make([]CountryEntry, len(items))
	for i, item := range items {
		name := item.Name
		if name == "unknown" {
			name = "Unknown"
		} else if country, err := countries.FindCountryByAlpha(name); err == nil {
			name = country.Name.Common
		} else {
			name = caser.String(name)
		}
		result[i] = CountryEntry{
			Country:           name,
			Clicks:            item.Clicks,
			Views:             item.Views,
			TotalInteractions: item.TotalInteractions(),
		}
	}
	return result
}

func convertReferrerEntries(items []analytics.DimensionCount) []ReferrerEntry {
	result := make([]ReferrerEntry, len(items))
	for i, item := range items {
		name := item.Name
		if name == "" {
			name = "Direct / Unknown"
		}
		result[i] = ReferrerEntry{
			Referrer:          name,
			Clicks:            item.Clicks,
			Views:             item.Views,
			TotalInteractions: item.TotalInteractions(),
		}
	}
	return result
}

func ensureNonNilPoints(points []analytics.ChartPoint) []analytics.ChartPoint {
	if points == nil {
		return []analytics.ChartPoint{}
	}
	return points
}
