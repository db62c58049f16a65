package statusapi

import "time"

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the /stats payload: process runtime stats plus a
// host-level snapshot from gopsutil and the resolver's own counters.
type StatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	GoRoutines    int       `json:"goroutines"`
	MemoryAllocMB float64   `json:"memory_alloc_mb"`
	NumCPU        int       `json:"num_cpu"`

	Host HostStatsResponse `json:"host"`
	DNS  DNSStatsResponse  `json:"dns"`
}

// HostStatsResponse reports host-level metrics gathered via gopsutil.
type HostStatsResponse struct {
	Hostname    string  `json:"hostname"`
	Platform    string  `json:"platform"`
	CPUPercent  float64 `json:"cpu_percent"`
	Load1       float64 `json:"load1"`
	Load5       float64 `json:"load5"`
	Load15      float64 `json:"load15"`
	UptimeHours float64 `json:"uptime_hours"`
}

// DNSStatsResponse reports the resolver's own query counters.
type DNSStatsResponse struct {
	QueriesTotal   uint64 `json:"queries_total"`
	Synthesized    uint64 `json:"synthesized"`
	PassedThrough  uint64 `json:"passed_through"`
	UpstreamErrors uint64 `json:"upstream_errors"`
}

// QueryLogEntry is one row of /querylog, mirroring querylog.Entry.
type QueryLogEntry struct {
	ID          int64     `json:"id"`
	ProcessedAt time.Time `json:"processed_at"`
	ClientAddr  string    `json:"client_addr"`
	QName       string    `json:"qname"`
	QType       uint16    `json:"qtype"`
	Synthesized bool      `json:"synthesized"`
	RCode       uint16    `json:"rcode"`
	LatencyUs   int64     `json:"latency_us"`
}
