package runtime

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func newSessionFixture(t *testing.T, timeout time.Duration) (*SessionManager, *Registry) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	fanout := NewDistributor(log, registry, true)
	return NewSessionManager(log, registry, fanout, timeout), registry
}

func TestSessionManager_FindOrCreate_ReturnsSameSession(t *testing.T) {
	req := require.New(t)
	manager, _ := newSessionFixture(t, time.Minute)
	token := uuid.NewString()

	s1 := manager.FindOrCreate(token)
	s2 := manager.FindOrCreate(token)

	req.Same(s1, s2)
	req.Equal(1, manager.Count())
}

func TestSessionManager_AnonymousSessionIsNotEvicted(t *testing.T) {
	req := require.New(t)
	manager, _ := newSessionFixture(t, 30*time.Millisecond)

	// Given a session that never logs in
	s := manager.FindOrCreate(uuid.NewString())

	// When the idle window passes
	time.Sleep(120 * time.Millisecond)

	// Then the session is still there: anonymous sessions carry no timer
	req.Equal(1, manager.Count())
	req.Nil(manager.User(s))
}

func TestSessionManager_IdleTimeout_EvictsUserOnce(t *testing.T) {
	req := require.New(t)
	manager, registry := newSessionFixture(t, 80*time.Millisecond)

	// Given carol logged in next to a bystander
	bystander := domain.NewUser("watcher", "Watcher")
	req.NoError(registry.AddUser(bystander))

	carol := domain.NewUser("carol", "Carol")
	req.NoError(registry.AddUser(carol))
	manager.Bind(manager.FindOrCreate(uuid.NewString()), carol)

	// When carol stays idle past the timeout
	time.Sleep(300 * time.Millisecond)

	// Then carol is gone and the bystander saw exactly one Disconnected
	req.False(registry.HasUser("carol"))
	req.Equal(1, registry.UserCount())

	subject, tags, ok := bystander.Mailbox.DequeueUserChange()
	req.True(ok)
	req.Equal(domain.Username("carol"), subject)
	req.Equal([]domain.Change{domain.ChangeDisconnected}, tags)
	_, _, ok = bystander.Mailbox.DequeueUserChange()
	req.False(ok)
}

func TestSessionManager_Rearm_PostponesEviction(t *testing.T) {
	req := require.New(t)
	manager, registry := newSessionFixture(t, 100*time.Millisecond)

	bystander := domain.NewUser("watcher", "Watcher")
	req.NoError(registry.AddUser(bystander))

	carol := domain.NewUser("carol", "Carol")
	req.NoError(registry.AddUser(carol))
	s := manager.FindOrCreate(uuid.NewString())
	manager.Bind(s, carol)

	// When the session keeps rearming well inside the window
	for i := 0; i < 5; i++ {
		time.Sleep(40 * time.Millisecond)
		manager.Rearm(s)
	}
	// Carol survived the whole rearming streak
	req.True(registry.HasUser("carol"))

	// When activity stops, exactly one eviction eventually fires
	time.Sleep(400 * time.Millisecond)
	req.False(registry.HasUser("carol"))

	_, tags, ok := bystander.Mailbox.DequeueUserChange()
	req.True(ok)
	req.Equal([]domain.Change{domain.ChangeDisconnected}, tags)
	_, _, ok = bystander.Mailbox.DequeueUserChange()
	req.False(ok)
}

func TestSessionManager_Evict_Idempotent(t *testing.T) {
	req := require.New(t)
	manager, registry := newSessionFixture(t, time.Minute)
	token := uuid.NewString()

	carol := domain.NewUser("carol", "Carol")
	req.NoError(registry.AddUser(carol))
	manager.Bind(manager.FindOrCreate(token), carol)

	manager.Evict(token)
	// Evicting again, or evicting an unknown token, is a safe no-op
	manager.Evict(token)
	manager.Evict(uuid.NewString())

	req.Equal(0, manager.Count())
	req.False(registry.HasUser("carol"))
}

func TestSessionManager_EvictUser_ByUsername(t *testing.T) {
	req := require.New(t)
	manager, registry := newSessionFixture(t, time.Minute)

	carol := domain.NewUser("carol", "Carol")
	req.NoError(registry.AddUser(carol))
	manager.Bind(manager.FindOrCreate(uuid.NewString()), carol)

	req.True(manager.EvictUser("carol"))
	req.False(registry.HasUser("carol"))

	// Nothing bound to that name anymore
	req.False(manager.EvictUser("carol"))
}

func TestSessionManager_StopAll_CancelsOutstandingTimers(t *testing.T) {
	req := require.New(t)
	manager, registry := newSessionFixture(t, 60*time.Millisecond)

	carol := domain.NewUser("carol", "Carol")
	req.NoError(registry.AddUser(carol))
	manager.Bind(manager.FindOrCreate(uuid.NewString()), carol)

	// When teardown begins before the timer fires
	manager.StopAll()
	time.Sleep(200 * time.Millisecond)

	// Then no late eviction mutated the registry
	req.True(registry.HasUser("carol"))
	req.Equal(0, manager.Count())
}
