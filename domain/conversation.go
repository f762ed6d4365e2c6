package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConversationID identifies a conversation for its whole lifetime.
type ConversationID = uuid.UUID

// Conversation is an ordered, append-only sequence of messages.
// Messages belong to exactly one conversation and are never moved,
// reordered, or mutated. Only Clear removes them, wholesale.
//
// The message sequence carries its own lock: the store hands out
// *Conversation pointers, so reads may run concurrently with an append
// happening under the store's mutex. ID, Title and CreatedAt are set once
// at creation and never written again.
type Conversation struct {
	ID        ConversationID
	Title     string
	CreatedAt time.Time

	mu       sync.Mutex
	messages []Message
}

// NewConversation creates a conversation with the given id.
// An empty title gets an auto-generated placeholder.
func NewConversation(id ConversationID, title string) *Conversation {
	if title == "" {
		title = defaultTitle(id)
	}
	return &Conversation{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().UTC(),
		messages:  nil,
	}
}

func defaultTitle(id ConversationID) string {
	return fmt.Sprintf("New chat %s", id.String()[:8])
}

// Append adds a message at the end of the sequence.
func (c *Conversation) Append(message Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
}

// Clear removes every message. The conversation itself survives.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Messages returns a copy of the sequence in append order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
