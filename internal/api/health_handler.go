package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/insight-engine/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status    string                    `json:"status"` // "healthy" or "degraded"
	Version   string                    `json:"version"`
	Uptime    string                    `json:"uptime"`
	Narrative string                    `json:"narrative_mode"`
	Backends  map[string]string         `json:"backends"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded", "not_configured"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker reports narrative mode, configured backends and reachability
// of the optional database and Redis.
type HealthChecker struct {
	db          *sql.DB
	redisClient *redis.Client
	narrative   string
	backends    map[string]string
	startTime   time.Time
}

// NewHealthChecker creates a HealthChecker. db and redisClient may be nil.
// backends names what is wired for each concern, e.g. "storage": "s3".
func NewHealthChecker(db *sql.DB, redisClient *redis.Client, narrativeMode string, backends map[string]string) *HealthChecker {
	return &HealthChecker{
		db:          db,
		redisClient: redisClient,
		narrative:   narrativeMode,
		backends:    backends,
		startTime:   time.Now(),
	}
}

const healthVersion = "1.0.0"

// HandleHealth always answers 200; the body carries the status.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{
		"database": hc.checkDatabase(r.Context()),
		"redis":    hc.checkRedis(r.Context()),
	}
	status := "healthy"
	for _, c := range checks {
		if c.Status == "down" || c.Status == "degraded" {
			status = "degraded"
		}
	}
	httputil.OK(w, HealthStatus{
		Status:    status,
		Version:   healthVersion,
		Uptime:    formatUptime(time.Since(hc.startTime)),
		Narrative: hc.narrative,
		Backends:  hc.backends,
		Checks:    checks,
	})
}

// HandleLiveness answers 200 while the process runs.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	start := time.Now()
	err := hc.db.PingContext(pingCtx)
	return pingResult(time.Since(start), err, time.Second)
}

func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redisClient == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	err := hc.redisClient.Ping(pingCtx).Err()
	return pingResult(time.Since(start), err, 500*time.Millisecond)
}

func pingResult(latency time.Duration, err error, slow time.Duration) ComponentCheck {
	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	if latency > slow {
		return ComponentCheck{Status: "degraded", Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	}
	return ComponentCheck{Status: "up", Latency: latency.String(), Message: "connected"}
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
