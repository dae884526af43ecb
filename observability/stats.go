// Package observability reports process and roster health.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/runtime"
)

// StatsWorker periodically logs process metrics (RSS, CPU) together with
// the live entity counts. Purely informational; failures never touch relay
// state.
type StatsWorker struct {
	log      *slog.Logger
	registry *runtime.Registry
	sessions *runtime.SessionManager
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, registry *runtime.Registry, sessions *runtime.SessionManager, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, registry: registry, sessions: sessions, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Warn("self stats unavailable", "err", err)
				continue
			}
			w.log.Info("relay stats",
				"rss_bytes", rss,
				"cpu_percent", cpu,
				"users", w.registry.UserCount(),
				"chats", w.registry.ChatCount(),
				"sessions", w.sessions.Count(),
			)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
