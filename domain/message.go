package domain

import "github.com/google/uuid"

// Recipient is the destination of a message: exactly one of a chat room or
// a single user. The closed interface makes "one of, never both" structural.
type Recipient interface {
	recipient()
}

type ChatRecipient struct {
	ID ChatID
}

func (ChatRecipient) recipient() {}

type UserRecipient struct {
	Username Username
}

func (UserRecipient) recipient() {}

// Message is an immutable chat event. SentAt is the client-supplied
// ISO-8601 UTC timestamp, validated on receipt and echoed verbatim.
type Message struct {
	ID     uuid.UUID
	From   Username
	To     Recipient
	Body   string
	SentAt string
}

func NewChatMessage(from Username, to ChatID, body, sentAt string) Message {
	return Message{ID: uuid.New(), From: from, To: ChatRecipient{ID: to}, Body: body, SentAt: sentAt}
}

func NewDirectMessage(from, to Username, body, sentAt string) Message {
	return Message{ID: uuid.New(), From: from, To: UserRecipient{Username: to}, Body: body, SentAt: sentAt}
}
