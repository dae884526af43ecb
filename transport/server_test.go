package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/dispatch"
	"chat-relay/imagecodec"
	"chat-relay/runtime"
)

// startServer binds a relay on a loopback port and runs it until the test
// ends, returning its dial address.
func startServer(t *testing.T, grace time.Duration) (*Server, string, context.CancelFunc) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	fanout := runtime.NewDistributor(log, registry, true)
	sessions := runtime.NewSessionManager(log, registry, fanout, time.Minute)
	dispatcher := dispatch.NewDispatcher(log, registry, sessions, fanout, imagecodec.New(), nil)

	srv := NewServer(log, dispatcher, sessions, "127.0.0.1:0", grace)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("server did not stop")
		}
	})
	return srv, srv.Addr().String(), cancel
}

func TestServer_LoginAndList(t *testing.T) {
	req := require.New(t)
	_, addr, _ := startServer(t, 10*time.Millisecond)
	token := uuid.NewString()

	// When a client logs in and lists users over the wire
	code, fields, err := Send(addr, token, dispatch.RequestLogin, "alice", "Alice")
	req.NoError(err)
	req.Equal(dispatch.ResultSuccess, code)
	req.Empty(fields)

	code, fields, err = Send(addr, token, dispatch.RequestListUsers)
	req.NoError(err)
	req.Equal(dispatch.ResultSuccess, code)
	req.Equal([]string{"1"}, fields)
}

func TestServer_TruncatedRequest(t *testing.T) {
	req := require.New(t)
	_, addr, _ := startServer(t, 10*time.Millisecond)

	// A request with only a token and no operation code
	conn, err := net.Dial("tcp", addr)
	req.NoError(err)
	defer func() { _ = conn.Close() }()
	_, err = io.WriteString(conn, uuid.NewString())
	req.NoError(err)
	req.NoError(conn.(*net.TCPConn).CloseWrite())

	payload, err := io.ReadAll(conn)
	req.NoError(err)
	req.Equal("-7", strings.Split(string(payload), FieldDelimiter)[0])
}

func TestServer_DrainRefusesWithCouldNotConnect(t *testing.T) {
	req := require.New(t)
	_, addr, cancel := startServer(t, 300*time.Millisecond)

	// Given shutdown has begun but the grace window is still open
	cancel()
	time.Sleep(50 * time.Millisecond)

	code, _, err := Send(addr, uuid.NewString(), dispatch.RequestLogin, "alice", "Alice")
	req.NoError(err)
	req.Equal(dispatch.ResultCouldNotConnect, code)
}
