package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/response"
)

const (
	metricsInterval = 5 * time.Second
	healthTimeout   = 2 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the health check and the admin metrics stream.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	startedAt time.Time
	log       zerolog.Logger
}

func NewSystemHandler(db Pinger, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startedAt: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// 503 when PostgreSQL or Redis cannot be reached.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := map[string]error{
		"postgres": h.db.Ping(ctx),
		"redis":    h.rdb.Ping(ctx).Err(),
	}

	body := gin.H{"status": "ok", "uptime": formatDuration(time.Since(h.startedAt))}
	code := http.StatusOK
	for name, err := range checks {
		if err == nil {
			body[name] = "ok"
			continue
		}
		h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
		body[name] = "unreachable"
		body["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, body)
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`

	// Pending jobs per persistence queue.
	Queues map[string]int64 `json:"queues"`
	// Timed sessions waiting for their deadline.
	TimedSessions int64 `json:"timed_sessions"`
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
// Streams runtime and queue metrics as "metrics" server-sent events until the client leaves.
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	h.log.Info().Msg("Admin connected to system metrics stream")
	defer h.log.Info().Msg("Admin disconnected from system metrics stream")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	c.SSEvent("metrics", h.collect(c.Request.Context()))
	c.Stream(func(io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ticker.C:
			c.SSEvent("metrics", h.collect(c.Request.Context()))
			return true
		}
	})
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:  time.Now().Unix(),
		Uptime:     formatDuration(time.Since(h.startedAt)),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		NumGC:      ms.NumGC,
		GoVersion:  runtime.Version(),
		Queues:     make(map[string]int64),
	}

	queues := config.WorkerKey.Queues()
	pipe := h.rdb.Pipeline()
	lens := make([]*redis.IntCmd, len(queues))
	for i, q := range queues {
		lens[i] = pipe.LLen(ctx, q)
	}
	timed := pipe.ZCard(ctx, config.CacheKey.TimedSessionsKey())
	if _, err := pipe.Exec(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read queue depths")
		return m
	}
	for i, q := range queues {
		m.Queues[q] = lens[i].Val()
	}
	m.TimedSessions = timed.Val()
	return m
}

// formatDuration renders d as "1d 2h3m4s"; time.Duration formatting covers everything below a day.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	day := 24 * time.Hour
	if d < day {
		return d.String()
	}
	return fmt.Sprintf("%dd %s", d/day, d%day)
}
