package domain

// Change tags a notification about a user or a chat room. The numeric
// values are part of the wire protocol and must not be reordered.
type Change int

const (
	// ChangeConnected means a user joined the server or a chat room was created.
	ChangeConnected Change = iota + 1
	// ChangeDisconnected means a user left the server or a chat room was removed.
	ChangeDisconnected
	// ChangeNickname means a user changed their nickname.
	ChangeNickname
	// ChangePicture means a user changed their profile picture.
	ChangePicture
)

func (c Change) String() string {
	switch c {
	case ChangeConnected:
		return "connected"
	case ChangeDisconnected:
		return "disconnected"
	case ChangeNickname:
		return "nickname"
	case ChangePicture:
		return "picture"
	default:
		return "unknown"
	}
}
