package observability

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/shirou/gopsutil/process"
	"github.com/stretchr/testify/require"

	"chat-relay/runtime"
)

func TestStatsWorker_StopsOnContextCancel(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	fanout := runtime.NewDistributor(log, registry, true)
	sessions := runtime.NewSessionManager(log, registry, fanout, time.Minute)

	worker := NewStatsWorker(log, registry, sessions, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Let a few ticks go by, then cancel
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		req.Fail("stats worker did not stop")
	}
}

func TestSelfStats(t *testing.T) {
	req := require.New(t)

	p, err := process.NewProcess(int32(os.Getpid()))
	req.NoError(err)

	// The numbers just have to be sane for the current process
	rss, cpu, err := selfStats(p)
	req.NoError(err)
	req.Greater(rss, uint64(0))
	req.GreaterOrEqual(cpu, 0.0)
}
