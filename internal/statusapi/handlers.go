package statusapi

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nat64lab/dns64ng/internal/querylog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
)

// DNSStatsFunc returns the resolver's current query counters. Handler
// calls it fresh on every /stats request rather than caching, since
// dns64server.Handler owns the atomics.
type DNSStatsFunc func() DNSStatsResponse

// Handler holds the dependencies for the introspection endpoints.
type Handler struct {
	QueryLog     *querylog.Store
	DNSStatsFunc DNSStatsFunc
	startTime    time.Time
}

// NewHandler creates a Handler whose uptime is measured from now.
func NewHandler(queryLog *querylog.Store, statsFunc DNSStatsFunc) *Handler {
	return &Handler{QueryLog: queryLog, DNSStatsFunc: statsFunc, startTime: time.Now()}
}

// Health reports process liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Stats reports process, host, and DNS query statistics.
func (h *Handler) Stats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := time.Since(h.startTime)

	resp := StatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
		NumCPU:        runtime.NumCPU(),
		Host:          hostStats(c.Request.Context()),
	}
	if h.DNSStatsFunc != nil {
		resp.DNS = h.DNSStatsFunc()
	}
	c.JSON(http.StatusOK, resp)
}

// hostStats gathers a best-effort host snapshot via gopsutil. Any single
// probe failing (unsupported platform, permission denied) just leaves
// that field at its zero value rather than failing the whole request.
func hostStats(ctx context.Context) HostStatsResponse {
	var out HostStatsResponse

	if info, err := host.InfoWithContext(ctx); err == nil {
		out.Hostname = info.Hostname
		out.Platform = info.Platform
		out.UptimeHours = float64(info.Uptime) / 3600
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		out.CPUPercent = pct[0]
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		out.Load1 = avg.Load1
		out.Load5 = avg.Load5
		out.Load15 = avg.Load15
	}
	return out
}

// QueryLogEndpoint returns the most recent entries, capped by the limit
// query parameter (default 100).
func (h *Handler) QueryLogEndpoint(c *gin.Context) {
	if h.QueryLog == nil {
		c.JSON(http.StatusOK, []QueryLogEntry{})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.QueryLog.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]QueryLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, QueryLogEntry{
			ID:          e.ID,
			ProcessedAt: e.ProcessedAt,
			ClientAddr:  e.ClientAddr,
			QName:       e.QName,
			QType:       e.QType,
			Synthesized: e.Synthesized,
			RCode:       e.RCode,
			LatencyUs:   e.LatencyUs,
		})
	}
	c.JSON(http.StatusOK, out)
}
