// Package domain contains core concepts of the chat client.
// This file defines Message entities and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the producer of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message represents an immutable chat exchange entry.
type Message struct {
	ID        uuid.UUID // unique identifier, never reused
	Text      string
	Role      Role
	CreatedAt time.Time
}

// NewUserMessage builds a user-authored message with a fresh identity.
func NewUserMessage(text string) Message {
	return Message{
		ID:        uuid.New(),
		Text:      text,
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}

// NewBotMessage builds an assistant reply with a fresh identity.
func NewBotMessage(text string) Message {
	return Message{
		ID:        uuid.New(),
		Text:      text,
		Role:      RoleBot,
		CreatedAt: time.Now().UTC(),
	}
}
