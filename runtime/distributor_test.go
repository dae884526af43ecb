package runtime

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func newRoster(t *testing.T, names ...domain.Username) (*Registry, map[domain.Username]*domain.User) {
	t.Helper()
	registry := NewRegistry()
	users := make(map[domain.Username]*domain.User)
	for _, name := range names {
		u := domain.NewUser(name, string(name))
		require.NoError(t, registry.AddUser(u))
		users[name] = u
	}
	return registry, users
}

func TestDistributor_ChatMessage_EveryoneButSender(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, users := newRoster(t, "alice", "bob", "carol")
	fanout := NewDistributor(log, registry, true)

	// When alice posts into chat 0
	msg := domain.NewChatMessage("alice", domain.ChatID(0), "hello", "2024-05-01T10:00:00Z")
	fanout.Message(msg)

	// Then bob and carol each hold exactly one copy, alice none
	_, ok := users["alice"].Mailbox.DequeueMessage()
	req.False(ok)
	for _, name := range []domain.Username{"bob", "carol"} {
		got, ok := users[name].Mailbox.DequeueMessage()
		req.True(ok)
		req.Equal(msg, got)
		_, ok = users[name].Mailbox.DequeueMessage()
		req.False(ok)
	}
}

func TestDistributor_DirectMessage_OnlyAddressee(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, users := newRoster(t, "alice", "bob", "carol")
	fanout := NewDistributor(log, registry, true)

	msg := domain.NewDirectMessage("alice", "bob", "psst", "2024-05-01T10:00:00Z")
	fanout.Message(msg)

	got, ok := users["bob"].Mailbox.DequeueMessage()
	req.True(ok)
	req.Equal(msg, got)

	_, ok = users["alice"].Mailbox.DequeueMessage()
	req.False(ok)
	_, ok = users["carol"].Mailbox.DequeueMessage()
	req.False(ok)
}

func TestDistributor_DirectMessage_GoneRecipientIsDropped(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, users := newRoster(t, "alice")
	fanout := NewDistributor(log, registry, true)

	// bob logged out between validation and fan-out; nothing happens
	fanout.Message(domain.NewDirectMessage("alice", "bob", "late", "2024-05-01T10:00:00Z"))
	_, ok := users["alice"].Mailbox.DequeueMessage()
	req.False(ok)
}

func TestDistributor_UserChange_SelfNotifyOn(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, users := newRoster(t, "alice", "bob")
	fanout := NewDistributor(log, registry, true)

	fanout.UserChange("alice", domain.ChangeNickname)

	// Subject and bystander both see the change
	for _, name := range []domain.Username{"alice", "bob"} {
		subject, tags, ok := users[name].Mailbox.DequeueUserChange()
		req.True(ok)
		req.Equal(domain.Username("alice"), subject)
		req.Equal([]domain.Change{domain.ChangeNickname}, tags)
	}
}

func TestDistributor_UserChange_SelfNotifyOff(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, users := newRoster(t, "alice", "bob")
	fanout := NewDistributor(log, registry, false)

	fanout.UserChange("alice", domain.ChangeNickname)

	_, _, ok := users["alice"].Mailbox.DequeueUserChange()
	req.False(ok)
	_, tags, ok := users["bob"].Mailbox.DequeueUserChange()
	req.True(ok)
	req.Equal([]domain.Change{domain.ChangeNickname}, tags)
}

func TestDistributor_UserChangeExcept_SkipsOneMailbox(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, users := newRoster(t, "alice", "bob")
	fanout := NewDistributor(log, registry, true)

	// The login path: the fresh user must not see its own Connected
	fanout.UserChangeExcept("bob", domain.ChangeConnected, "bob")

	_, _, ok := users["bob"].Mailbox.DequeueUserChange()
	req.False(ok)
	subject, tags, ok := users["alice"].Mailbox.DequeueUserChange()
	req.True(ok)
	req.Equal(domain.Username("bob"), subject)
	req.Equal([]domain.Change{domain.ChangeConnected}, tags)
}

func TestDistributor_ChatChange_ReachesEveryone(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, users := newRoster(t, "alice", "bob")
	fanout := NewDistributor(log, registry, true)

	fanout.ChatChange(domain.ChatID(3), domain.ChangeConnected)

	for _, u := range users {
		id, tags, ok := u.Mailbox.DequeueChatChange()
		req.True(ok)
		req.Equal(domain.ChatID(3), id)
		req.Equal([]domain.Change{domain.ChangeConnected}, tags)
	}
}
