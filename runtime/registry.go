// Package runtime owns the shared mutable state of the relay: the canonical
// user and chat-room lists, the session table with its idle timers, and the
// fan-out of messages and change events into user mailboxes. It contains no
// protocol parsing and no business rules beyond uniqueness and id allocation.
package runtime

import (
	"sync"

	"chat-relay/domain"
	"chat-relay/errors"
)

// Registry is the canonical store of active users and chat rooms. All
// lookups are linear scans; active-entity counts are expected to stay small.
// Compound steps that must be atomic (uniqueness check plus insert, id
// allocation plus insert) are single methods so callers cannot tear them.
type Registry struct {
	mu    sync.RWMutex
	users []*domain.User
	chats []*domain.ChatRoom
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) HasUser(name domain.Username) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findUser(name) != nil
}

func (r *Registry) GetUser(name domain.Username) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u := r.findUser(name); u != nil {
		return u, nil
	}
	return nil, errors.ErrUnknownUser
}

// AddUser inserts a user, failing with ErrUsernameTaken when the username is
// already held by an active user. Check and insert happen under one lock.
func (r *Registry) AddUser(u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findUser(u.Username) != nil {
		return errors.ErrUsernameTaken
	}
	r.users = append(r.users, u)
	return nil
}

// RemoveUser reports whether the user was present. Removing an absent user
// is a safe no-op; eviction races rely on that.
func (r *Registry) RemoveUser(name domain.Username) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.Username == name {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *Registry) UserAt(index int) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.users) {
		return nil, false
	}
	return r.users[index], true
}

// Users returns a snapshot of the active user list. The slice is a copy;
// the pointed-to users are shared.
func (r *Registry) Users() []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, len(r.users))
	copy(out, r.users)
	return out
}

func (r *Registry) HasChat(id domain.ChatID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findChat(id) != nil
}

func (r *Registry) GetChat(id domain.ChatID) (*domain.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c := r.findChat(id); c != nil {
		return c, nil
	}
	return nil, errors.ErrUnknownChat
}

// CreateChat allocates the smallest free non-negative id and inserts a new
// room under one lock, so duplicate ids can never be produced.
func (r *Registry) CreateChat(name string) *domain.ChatRoom {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := domain.ChatID(0)
	for r.findChat(id) != nil {
		id++
	}
	chat := domain.NewChatRoom(id, name)
	r.chats = append(r.chats, chat)
	return chat
}

func (r *Registry) RemoveChat(id domain.ChatID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.chats {
		if c.ID == id {
			r.chats = append(r.chats[:i], r.chats[i+1:]...)
			return true
		}
	}
	return false
}

// ChatsByName returns every room carrying the given display name. Names are
// not unique; the admin console removes rooms by name in bulk.
func (r *Registry) ChatsByName(name string) []*domain.ChatRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.ChatRoom
	for _, c := range r.chats {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) ChatCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chats)
}

func (r *Registry) ChatAt(index int) (*domain.ChatRoom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.chats) {
		return nil, false
	}
	return r.chats[index], true
}

func (r *Registry) Chats() []*domain.ChatRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.ChatRoom, len(r.chats))
	copy(out, r.chats)
	return out
}

// callers hold r.mu
func (r *Registry) findUser(name domain.Username) *domain.User {
	for _, u := range r.users {
		if u.Username == name {
			return u
		}
	}
	return nil
}

// callers hold r.mu
func (r *Registry) findChat(id domain.ChatID) *domain.ChatRoom {
	for _, c := range r.chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}
