// Package observability exposes process self-metrics for the stats
// endpoint. It reads, never mutates, runtime state.
package observability

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats aggregates the health snapshot served by /stats.
type Stats struct {
	RSSMb         uint64  `json:"rss_mb"`
	CPUPercent    float64 `json:"cpu_percent"`
	Goroutines    int     `json:"goroutines"`
	NumGC         uint32  `json:"num_gc"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

type Collector struct {
	proc      *process.Process
	startedAt time.Time
}

func NewCollector() (*Collector, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Collector{proc: p, startedAt: time.Now()}, nil
}

// Snapshot collects the current process metrics (RSS, CPU, GC, goroutines).
func (c *Collector) Snapshot() (Stats, error) {
	memInfo, err := c.proc.MemoryInfo()
	if err != nil {
		return Stats{}, err
	}
	cpu, err := c.proc.CPUPercent()
	if err != nil {
		return Stats{}, err
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return Stats{
		RSSMb:         memInfo.RSS / 1024 / 1024,
		CPUPercent:    cpu,
		Goroutines:    runtime.NumGoroutine(),
		NumGC:         memStats.NumGC,
		UptimeSeconds: int64(time.Since(c.startedAt).Seconds()),
	}, nil
}
