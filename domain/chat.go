package domain

type ChatID int

// ChatRoom is a group chat every active user can address. The id is unique
// across the server at all times; the name is not.
type ChatRoom struct {
	ID   ChatID
	Name string
}

func NewChatRoom(id ChatID, name string) *ChatRoom {
	return &ChatRoom{ID: id, Name: name}
}
