// Package domain contains core concepts of the relay.
// No runtime, network, or UI logic should be added here.
package domain

type Username string

// User is an active, logged-in identity. The username is unique among
// active users; the nickname is free-form and mutable. Picture holds the
// already-decoded profile image bytes, nil when unset. The Mailbox is
// exclusively owned by the user and dies with it.
type User struct {
	Username Username
	Nickname string
	Picture  []byte
	Mailbox  *Mailbox
}

func NewUser(username Username, nickname string) *User {
	return &User{
		Username: username,
		Nickname: nickname,
		Mailbox:  NewMailbox(),
	}
}
