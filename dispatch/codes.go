package dispatch

import (
	"strconv"
	"strings"
)

// Request identifies an operation on the wire. Values match the historical
// protocol and must not be reordered.
type Request int

const (
	RequestLogin Request = iota // 0
	RequestListChats
	RequestChatByIndex
	RequestChatName
	RequestPollChatUpdates
	RequestListUsers
	RequestUserByIndex
	RequestUserNickname
	RequestPollUserUpdates
	RequestPollNewMessage
	RequestSendMessage
	RequestLogout
	RequestKeepAlive
	RequestSetNickname
	RequestUserPicture
	RequestSetUserPicture
	RequestCreateChatRoom // 16
)

// Result is the leading field of every reply.
type Result int

const (
	ResultSuccess         Result = 0
	ResultCouldNotConnect Result = -1
	ResultUsernameTaken   Result = -2
	ResultUnknownUsername Result = -3
	ResultNotLoggedIn     Result = -4
	ResultAlreadyLoggedIn Result = -5
	ResultUnknownChat     Result = -6
	ResultBadRequest      Result = -7
	ResultFailureUnknown  Result = -8
)

// Reply is one encoded response: the result code first, then any
// operation-specific fields, newline-separated.
type Reply struct {
	Code   Result
	Fields []string
}

func ok(fields ...string) Reply {
	return Reply{Code: ResultSuccess, Fields: fields}
}

func fail(code Result) Reply {
	return Reply{Code: code}
}

func (r Reply) Encode() string {
	parts := append([]string{strconv.Itoa(int(r.Code))}, r.Fields...)
	return strings.Join(parts, "\n")
}
