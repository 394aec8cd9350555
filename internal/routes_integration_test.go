package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"linkfolio/internal/config"
	linkfoliohttp "linkfolio/internal/http"
	"linkfolio/internal/testsupport"
	"linkfolio/internal/users"
)

// newTestApp builds a Fiber app with all routes mounted against a fresh test
// database.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	dbManager, logger := testsupport.SetupTestDBManager(t)

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = logger
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	MountAppRoutes(srv)
	return srv.App(), dbManager.GetConnection()
}

// loginTestUser logs in through POST /login and returns the session cookie
// header value.
func loginTestUser(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	// Any GET issues the CSRF cookie when the server has CSRF protection on.
	req := httptest.NewRequest("GET", "/_health", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var csrfToken, csrfCookie string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "csrf_" {
			csrfToken = cookie.Value
			csrfCookie = fmt.Sprintf("%s=%s", cookie.Name, cookie.Value)
			break
		}
	}

	loginData := url.Values{}
	loginData.Add("email", email)
	loginData.Add("password", password)
	if csrfToken != "" {
		loginData.Add("_csrf", csrfToken)
	}

	req = httptest.NewRequest("POST", "/login", strings.NewReader(loginData.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")
	// The server's CSRF protection validates Sec-Fetch-Site on state-changing
	// requests; browsers always send it, httptest does not.
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	if csrfCookie != "" {
		req.Header.Set("Cookie", csrfCookie)
	}

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sessionValue string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testsupport.SessionCookieName {
			sessionValue = cookie.Value
			break
		}
	}
	require.NotEmpty(t, sessionValue, "expected login to set the session cookie")
	return fmt.Sprintf("%s=%s", testsupport.SessionCookieName, sessionValue)
}

func TestHealthRoute(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/_health", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health linkfoliohttp.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DBStatus)
}

func TestAnalyticsRouteUnauthenticated(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/analytics", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAnalyticsRouteForbiddenRangeCarriesUpgrade(t *testing.T) {
	app, db := newTestApp(t)

	testsupport.CreateTestUser(t, db, "free-tier@example.com", users.PlanFree, "", nil)
	sessionCookie := loginTestUser(t, app, "free-tier@example.com", "password")

	req := httptest.NewRequest("GET", "/analytics?range=365d", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")
	req.Header.Set("Cookie", sessionCookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Error   string `json:"error"`
		Plan    string `json:"plan"`
		Upgrade struct {
			Feature    string `json:"feature"`
			UpgradeURL string `json:"upgradeUrl"`
		} `json:"upgrade"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "range not permitted", body.Error)
	assert.Equal(t, users.PlanFree, body.Plan)
	assert.Equal(t, "analytics_365d", body.Upgrade.Feature)
	assert.NotEmpty(t, body.Upgrade.UpgradeURL)
}

func TestAnalyticsRouteReturnsReportWithCacheControl(t *testing.T) {
	app, db := newTestApp(t)

	user := testsupport.CreateTestUser(t, db, "viewer@example.com", users.PlanFree, "", nil)
	link := testsupport.CreateTestLink(t, db, user.ID, "Blog", "https://example.com/blog", 0)
	now := time.Now().UTC()
	testsupport.CreateTestViewEvent(t, db, user.ID, now.Add(-time.Hour), "mobile", "", "BR", "")
	testsupport.CreateTestClickEvent(t, db, link.ID, now.Add(-time.Hour), "mobile", "", "BR", "")

	sessionCookie := loginTestUser(t, app, "viewer@example.com", "password")

	req := httptest.NewRequest("GET", "/analytics?range=7d", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")
	req.Header.Set("Cookie", sessionCookie)
	resp, err := app.Test(req)
	require.NoError(t, err)

	bodyBytes, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	require.Equalf(t, fiber.StatusOK, resp.StatusCode, "body: %s", bodyBytes)

	assert.Equal(t, "private, max-age=60", resp.Header.Get(fiber.HeaderCacheControl))

	var report linkfoliohttp.AnalyticsResponse
	require.NoError(t, json.Unmarshal(bodyBytes, &report))
	assert.Equal(t, int64(1), report.TotalProfileViews)
	assert.Equal(t, int64(1), report.TotalClicks)
	assert.Equal(t, "100.0", report.PerformanceRate)
	assert.Equal(t, "7d", report.Meta.Range)
	assert.Len(t, report.ChartData, 7)
	require.Len(t, report.TopLinks, 1)
	assert.Equal(t, link.ID, report.TopLinks[0].ID)
}
