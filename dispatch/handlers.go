package dispatch

import (
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/runtime"
)

var validate = validator.New()

// loginArgs bounds what we accept as an identity. The transport already
// guarantees the fields are delimiter-free; this rejects empty and absurd
// ones.
type loginArgs struct {
	Username string `validate:"required,max=64"`
	Nickname string `validate:"required,max=128"`
}

func (d *Dispatcher) login(s *runtime.Session, _ *domain.User, args []string) Reply {
	if d.sessions.User(s) != nil {
		return fail(ResultAlreadyLoggedIn)
	}
	creds := loginArgs{Username: args[0], Nickname: args[1]}
	if err := validate.Struct(creds); err != nil {
		return fail(ResultBadRequest)
	}

	u := domain.NewUser(domain.Username(creds.Username), creds.Nickname)
	if err := d.registry.AddUser(u); err != nil {
		return fail(ResultUsernameTaken)
	}
	// Everyone already online learns about the newcomer; the newcomer does
	// not receive its own Connected event.
	d.fanout.UserChangeExcept(u.Username, domain.ChangeConnected, u.Username)
	d.sessions.Bind(s, u)
	d.log.Info("user logged in", "username", creds.Username)
	return ok()
}

func (d *Dispatcher) listChats(_ *runtime.Session, _ *domain.User, _ []string) Reply {
	return ok(strconv.Itoa(d.registry.ChatCount()))
}

func (d *Dispatcher) chatByIndex(_ *runtime.Session, _ *domain.User, args []string) Reply {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fail(ResultBadRequest)
	}
	chat, found := d.registry.ChatAt(index)
	if !found {
		return fail(ResultBadRequest)
	}
	return ok(strconv.Itoa(int(chat.ID)))
}

func (d *Dispatcher) chatName(_ *runtime.Session, _ *domain.User, args []string) Reply {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fail(ResultBadRequest)
	}
	chat, err := d.registry.GetChat(domain.ChatID(id))
	if err != nil {
		return fail(ResultUnknownChat)
	}
	return ok(chat.Name)
}

func (d *Dispatcher) pollChatUpdates(_ *runtime.Session, u *domain.User, _ []string) Reply {
	id, tags, pending := u.Mailbox.DequeueChatChange()
	if !pending {
		// Nothing queued is success with no body; clients poll until they
		// see this variant.
		return ok()
	}
	return ok(strconv.Itoa(int(id)), joinTags(tags))
}

func (d *Dispatcher) listUsers(_ *runtime.Session, _ *domain.User, _ []string) Reply {
	return ok(strconv.Itoa(d.registry.UserCount()))
}

func (d *Dispatcher) userByIndex(_ *runtime.Session, _ *domain.User, args []string) Reply {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fail(ResultBadRequest)
	}
	user, found := d.registry.UserAt(index)
	if !found {
		return fail(ResultBadRequest)
	}
	return ok(string(user.Username))
}

func (d *Dispatcher) userNickname(_ *runtime.Session, _ *domain.User, args []string) Reply {
	user, err := d.registry.GetUser(domain.Username(args[0]))
	if err != nil {
		return fail(ResultUnknownUsername)
	}
	return ok(user.Nickname)
}

func (d *Dispatcher) pollUserUpdates(_ *runtime.Session, u *domain.User, _ []string) Reply {
	subject, tags, pending := u.Mailbox.DequeueUserChange()
	if !pending {
		return ok()
	}
	return ok(string(subject), joinTags(tags))
}

func (d *Dispatcher) pollNewMessage(_ *runtime.Session, u *domain.User, _ []string) Reply {
	msg, pending := u.Mailbox.DequeueMessage()
	if !pending {
		return ok()
	}
	switch to := msg.To.(type) {
	case domain.ChatRecipient:
		return ok(string(msg.From), strconv.FormatBool(false), strconv.Itoa(int(to.ID)), msg.Body, msg.SentAt)
	case domain.UserRecipient:
		return ok(string(msg.From), strconv.FormatBool(true), string(to.Username), msg.Body, msg.SentAt)
	default:
		return fail(ResultFailureUnknown)
	}
}

func (d *Dispatcher) sendMessage(_ *runtime.Session, u *domain.User, args []string) Reply {
	toUser, err := strconv.ParseBool(args[0])
	if err != nil {
		return fail(ResultBadRequest)
	}
	body, sentAt := args[2], args[3]
	if _, err := time.Parse(time.RFC3339, sentAt); err != nil {
		return fail(ResultBadRequest)
	}
	body = d.censor(body)

	var msg domain.Message
	if toUser {
		target, err := d.registry.GetUser(domain.Username(args[1]))
		if err != nil {
			return fail(ResultUnknownUsername)
		}
		msg = domain.NewDirectMessage(u.Username, target.Username, body, sentAt)
	} else {
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fail(ResultBadRequest)
		}
		chat, err := d.registry.GetChat(domain.ChatID(id))
		if err != nil {
			return fail(ResultUnknownChat)
		}
		msg = domain.NewChatMessage(u.Username, chat.ID, body, sentAt)
	}
	d.fanout.Message(msg)
	return ok()
}

func (d *Dispatcher) logout(s *runtime.Session, u *domain.User, _ []string) Reply {
	d.sessions.Evict(s.Token)
	d.log.Info("user logged out", "username", string(u.Username))
	return ok()
}

func (d *Dispatcher) keepAlive(_ *runtime.Session, _ *domain.User, _ []string) Reply {
	// The generic path already rearmed the timer.
	return ok()
}

func (d *Dispatcher) setNickname(_ *runtime.Session, u *domain.User, args []string) Reply {
	u.Nickname = args[0]
	d.fanout.UserChange(u.Username, domain.ChangeNickname)
	return ok()
}

func (d *Dispatcher) userPicture(_ *runtime.Session, _ *domain.User, args []string) Reply {
	target, err := d.registry.GetUser(domain.Username(args[0]))
	if err != nil {
		return fail(ResultUnknownUsername)
	}
	return d.pictureState(target)
}

func (d *Dispatcher) setUserPicture(_ *runtime.Session, u *domain.User, args []string) Reply {
	setting, err := strconv.ParseBool(args[0])
	if err != nil {
		return fail(ResultBadRequest)
	}
	if !setting {
		// Not setting anything: mirror the current picture state back.
		return d.pictureState(u)
	}
	raw, err := d.codec.Decode(args[1])
	if err != nil {
		return fail(ResultBadRequest)
	}
	u.Picture = raw
	d.fanout.UserChange(u.Username, domain.ChangePicture)
	return ok()
}

func (d *Dispatcher) createChatRoom(_ *runtime.Session, _ *domain.User, args []string) Reply {
	chat := d.registry.CreateChat(args[0])
	d.fanout.ChatChange(chat.ID, domain.ChangeConnected)
	d.log.Info("chat room created", "id", int(chat.ID), "name", chat.Name)
	return ok(strconv.Itoa(int(chat.ID)))
}

// pictureState renders the has-image flag plus the encoded bytes when a
// picture is set. An unencodable stored picture is the one internal error
// the protocol can surface.
func (d *Dispatcher) pictureState(u *domain.User) Reply {
	if u.Picture == nil {
		return ok(strconv.FormatBool(false))
	}
	encoded, err := d.codec.Encode(u.Picture)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotAnImage) {
			d.log.Error("stored picture not re-encodable", "username", string(u.Username))
		}
		return fail(ResultFailureUnknown)
	}
	return ok(strconv.FormatBool(true), encoded)
}

func joinTags(tags []domain.Change) string {
	return strings.Join(lo.Map(tags, func(tag domain.Change, _ int) string {
		return strconv.Itoa(int(tag))
	}), ",")
}
