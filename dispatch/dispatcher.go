//go:generate go run go.uber.org/mock/mockgen -source=dispatcher.go -destination=../mocks/mock_dispatcher.go -package=mocks
// Package dispatch turns one opaque request into one typed operation,
// validates it, executes it against the shared runtime state, and encodes
// exactly one reply. Every failure is recovered here; nothing propagates
// past a single request.
package dispatch

import (
	"log/slog"
	"strconv"

	"chat-relay/domain"
	"chat-relay/runtime"
)

// ImageCodec is the opaque profile-picture codec boundary. Decode rejects
// payloads that do not carry an image; Encode can fail the same way if
// stored bytes are not re-encodable.
type ImageCodec interface {
	Encode(raw []byte) (string, error)
	Decode(encoded string) ([]byte, error)
}

// Censor rewrites a message body before distribution. Identity when
// moderation is disabled.
type Censor func(string) string

// handler carries the per-operation contract: fixed argument count and the
// operation body. The generic checks (known code, logged-in state, arity)
// run before fn; fn receives the bound user, nil only for login.
type handler struct {
	arity int
	fn    func(s *runtime.Session, u *domain.User, args []string) Reply
}

type Dispatcher struct {
	log      *slog.Logger
	registry *runtime.Registry
	sessions *runtime.SessionManager
	fanout   *runtime.Distributor
	codec    ImageCodec
	censor   Censor

	handlers map[Request]handler
}

func NewDispatcher(
	log *slog.Logger,
	registry *runtime.Registry,
	sessions *runtime.SessionManager,
	fanout *runtime.Distributor,
	codec ImageCodec,
	censor Censor,
) *Dispatcher {
	if censor == nil {
		censor = func(s string) string { return s }
	}
	d := &Dispatcher{
		log:      log,
		registry: registry,
		sessions: sessions,
		fanout:   fanout,
		codec:    codec,
		censor:   censor,
	}
	d.handlers = map[Request]handler{
		RequestLogin:           {arity: 2, fn: d.login},
		RequestListChats:       {arity: 0, fn: d.listChats},
		RequestChatByIndex:     {arity: 1, fn: d.chatByIndex},
		RequestChatName:        {arity: 1, fn: d.chatName},
		RequestPollChatUpdates: {arity: 0, fn: d.pollChatUpdates},
		RequestListUsers:       {arity: 0, fn: d.listUsers},
		RequestUserByIndex:     {arity: 1, fn: d.userByIndex},
		RequestUserNickname:    {arity: 1, fn: d.userNickname},
		RequestPollUserUpdates: {arity: 0, fn: d.pollUserUpdates},
		RequestPollNewMessage:  {arity: 0, fn: d.pollNewMessage},
		RequestSendMessage:     {arity: 4, fn: d.sendMessage},
		RequestLogout:          {arity: 0, fn: d.logout},
		RequestKeepAlive:       {arity: 0, fn: d.keepAlive},
		RequestSetNickname:     {arity: 1, fn: d.setNickname},
		RequestUserPicture:     {arity: 1, fn: d.userPicture},
		RequestSetUserPicture:  {arity: 2, fn: d.setUserPicture},
		RequestCreateChatRoom:  {arity: 1, fn: d.createChatRoom},
	}
	return d
}

// Handle processes one request for the session identified by token and
// returns the encoded reply. Validation order: recognized code, logged-in
// state (except login), argument count, then whatever the operation parses
// and looks up itself.
func (d *Dispatcher) Handle(token, code string, args []string) string {
	id, err := strconv.Atoi(code)
	if err != nil {
		return fail(ResultBadRequest).Encode()
	}
	h, known := d.handlers[Request(id)]
	if !known {
		// Only an out-of-date client can get here.
		return fail(ResultFailureUnknown).Encode()
	}

	s := d.sessions.FindOrCreate(token)
	var u *domain.User
	if Request(id) != RequestLogin {
		u = d.sessions.User(s)
		if u == nil {
			return fail(ResultNotLoggedIn).Encode()
		}
		// Every request a logged-in session makes counts as activity.
		d.sessions.Rearm(s)
	}
	if len(args) != h.arity {
		return fail(ResultBadRequest).Encode()
	}
	return h.fn(s, u, args).Encode()
}
