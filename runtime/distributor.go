package runtime

import (
	"log/slog"

	"github.com/samber/lo"

	"chat-relay/domain"
)

// Distributor fans events out into user mailboxes. Everything here is
// synchronous, in-memory and best-effort: a user that is not active at
// fan-out time never receives the event, and there is no retry.
type Distributor struct {
	log      *slog.Logger
	registry *Registry

	// selfNotify controls whether a user receives Nickname/Picture change
	// events about itself. The historical behavior is to self-notify.
	selfNotify bool
}

func NewDistributor(log *slog.Logger, registry *Registry, selfNotify bool) *Distributor {
	return &Distributor{log: log, registry: registry, selfNotify: selfNotify}
}

// Message delivers a message to its recipients: every active user except
// the sender for a chat-room message, exactly the addressed user for a
// direct message.
func (d *Distributor) Message(m domain.Message) {
	switch to := m.To.(type) {
	case domain.ChatRecipient:
		recipients := lo.Filter(d.registry.Users(), func(u *domain.User, _ int) bool {
			return u.Username != m.From
		})
		for _, u := range recipients {
			u.Mailbox.EnqueueMessage(m)
		}
		d.log.Debug("message fanned out", "chat", int(to.ID), "recipients", len(recipients))
	case domain.UserRecipient:
		u, err := d.registry.GetUser(to.Username)
		if err != nil {
			// Recipient logged out between validation and fan-out. Best effort.
			d.log.Debug("direct message dropped", "to", string(to.Username))
			return
		}
		u.Mailbox.EnqueueMessage(m)
	}
}

// ChatChange enqueues a chat-room change tag into every active mailbox.
func (d *Distributor) ChatChange(id domain.ChatID, tag domain.Change) {
	for _, u := range d.registry.Users() {
		u.Mailbox.EnqueueChatChange(id, tag)
	}
}

// UserChange enqueues a user change tag into every active mailbox,
// including the subject's own unless self-notification is disabled.
func (d *Distributor) UserChange(subject domain.Username, tag domain.Change) {
	except := domain.Username("")
	if !d.selfNotify {
		except = subject
	}
	d.userChange(subject, tag, except)
}

// UserChangeExcept is UserChange with one mailbox skipped. Login uses it so
// a fresh user never sees its own Connected event.
func (d *Distributor) UserChangeExcept(subject domain.Username, tag domain.Change, except domain.Username) {
	d.userChange(subject, tag, except)
}

func (d *Distributor) userChange(subject domain.Username, tag domain.Change, except domain.Username) {
	for _, u := range d.registry.Users() {
		if except != "" && u.Username == except {
			continue
		}
		u.Mailbox.EnqueueUserChange(subject, tag)
	}
}
