package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMailbox_Messages_FIFO(t *testing.T) {
	req := require.New(t)
	box := NewMailbox()

	// Given two queued messages
	first := NewDirectMessage("alice", "bob", "hi", "2024-05-01T10:00:00Z")
	second := NewDirectMessage("alice", "bob", "there", "2024-05-01T10:00:01Z")
	box.EnqueueMessage(first)
	box.EnqueueMessage(second)

	// When draining the queue
	got1, ok1 := box.DequeueMessage()
	got2, ok2 := box.DequeueMessage()
	_, ok3 := box.DequeueMessage()

	// Then messages come back in send order, exactly once
	req.True(ok1)
	req.Equal(first, got1)
	req.True(ok2)
	req.Equal(second, got2)
	req.False(ok3)
}

func TestMailbox_DequeueMessage_EmptyIsNormal(t *testing.T) {
	req := require.New(t)
	box := NewMailbox()

	// Repeated polls on a drained queue keep reporting empty
	for i := 0; i < 3; i++ {
		_, ok := box.DequeueMessage()
		req.False(ok)
	}
}

func TestMailbox_ChatChanges_BatchedPerSubject(t *testing.T) {
	req := require.New(t)
	box := NewMailbox()

	// Given interleaved tags for two chats
	box.EnqueueChatChange(ChatID(0), ChangeConnected)
	box.EnqueueChatChange(ChatID(1), ChangeConnected)
	box.EnqueueChatChange(ChatID(0), ChangeDisconnected)

	// When polling
	id, tags, ok := box.DequeueChatChange()

	// Then one subject's whole tag list comes out, in enqueue order
	req.True(ok)
	req.Equal(ChatID(0), id)
	req.Equal([]Change{ChangeConnected, ChangeDisconnected}, tags)

	id, tags, ok = box.DequeueChatChange()
	req.True(ok)
	req.Equal(ChatID(1), id)
	req.Equal([]Change{ChangeConnected}, tags)

	_, _, ok = box.DequeueChatChange()
	req.False(ok)
}

func TestMailbox_UserChanges_AccumulateUntilPolled(t *testing.T) {
	req := require.New(t)
	box := NewMailbox()

	box.EnqueueUserChange("bob", ChangeConnected)
	box.EnqueueUserChange("bob", ChangeNickname)
	box.EnqueueUserChange("bob", ChangePicture)

	subject, tags, ok := box.DequeueUserChange()
	req.True(ok)
	req.Equal(Username("bob"), subject)
	req.Equal([]Change{ChangeConnected, ChangeNickname, ChangePicture}, tags)

	// Dequeue removed the whole entry; nothing left for bob
	_, _, ok = box.DequeueUserChange()
	req.False(ok)

	// A fresh enqueue after draining starts a new batch
	box.EnqueueUserChange("bob", ChangeDisconnected)
	subject, tags, ok = box.DequeueUserChange()
	req.True(ok)
	req.Equal(Username("bob"), subject)
	req.Equal([]Change{ChangeDisconnected}, tags)
}
