package http

import (
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"
)

// HealthResponse is the JSON body of GET /_health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"dbStatus"`
}

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthError    = "error"
)

// HealthIndexAction reports process liveness plus database reachability.
// Unauthenticated so load balancers and uptime probes can hit it.
func HealthIndexAction(ctx *cartridge.Context) error {
	dbStatus := healthOK
	if err := pingDatabase(ctx); err != nil {
		dbStatus = healthError
		ctx.Logger.Error("Health check database ping failed", slog.Any("error", err))
	}

	status := healthOK
	if dbStatus != healthOK {
		status = healthDegraded
	}

	return ctx.JSON(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		DBStatus:  dbStatus,
	})
}

func pingDatabase(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
