package domain

import "sync"

// Mailbox buffers everything a user has not yet polled: plain messages,
// chat-room change tags and user change tags. Messages drain one per poll;
// change queues drain one whole subject per poll (all pending tags for that
// subject together, in enqueue order).
//
// The mutex only protects this mailbox. Fan-out triggered by an idle-session
// eviction may enqueue concurrently with the owner polling.
type Mailbox struct {
	mu sync.Mutex

	messages []Message

	chatChanges map[ChatID][]Change
	chatOrder   []ChatID

	userChanges map[Username][]Change
	userOrder   []Username
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		chatChanges: make(map[ChatID][]Change),
		userChanges: make(map[Username][]Change),
	}
}

func (m *Mailbox) EnqueueMessage(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// DequeueMessage pops the oldest pending message. An empty queue is a
// normal condition, reported via the boolean, not an error.
func (m *Mailbox) DequeueMessage() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return Message{}, false
	}
	msg := m.messages[0]
	m.messages = m.messages[1:]
	return msg, true
}

func (m *Mailbox) EnqueueChatChange(id ChatID, tag Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chatChanges[id]; !ok {
		m.chatOrder = append(m.chatOrder, id)
	}
	m.chatChanges[id] = append(m.chatChanges[id], tag)
}

// DequeueChatChange removes and returns one subject's entire tag list.
// The contract across subjects is unordered; this implementation happens to
// hand subjects out oldest-first.
func (m *Mailbox) DequeueChatChange() (ChatID, []Change, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chatOrder) == 0 {
		return 0, nil, false
	}
	id := m.chatOrder[0]
	m.chatOrder = m.chatOrder[1:]
	tags := m.chatChanges[id]
	delete(m.chatChanges, id)
	return id, tags, true
}

func (m *Mailbox) EnqueueUserChange(subject Username, tag Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.userChanges[subject]; !ok {
		m.userOrder = append(m.userOrder, subject)
	}
	m.userChanges[subject] = append(m.userChanges[subject], tag)
}

func (m *Mailbox) DequeueUserChange() (Username, []Change, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.userOrder) == 0 {
		return "", nil, false
	}
	subject := m.userOrder[0]
	m.userOrder = m.userOrder[1:]
	tags := m.userChanges[subject]
	delete(m.userChanges, subject)
	return subject, tags, true
}

// PendingMessages reports the message backlog size. Used by the admin
// console listing.
func (m *Mailbox) PendingMessages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
