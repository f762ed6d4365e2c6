package event

import (
	"chat-desk/domain"
	"time"
)

// DomainEvent is published by the conversation store on every mutation.
// The read side (projections, sinks) rebuilds its state from these alone.
type DomainEvent interface {
	ConversationID() domain.ConversationID
}

type ConversationCreated struct {
	ID    domain.ConversationID
	Title string
	At    time.Time
}

func (e ConversationCreated) ConversationID() domain.ConversationID { return e.ID }

type ConversationSelected struct {
	ID domain.ConversationID
}

func (e ConversationSelected) ConversationID() domain.ConversationID { return e.ID }

// ActiveCleared signals that no conversation is active anymore.
// Its conversation id is the zero uuid.
type ActiveCleared struct{}

func (e ActiveCleared) ConversationID() domain.ConversationID { return domain.ConversationID{} }

type MessageAppended struct {
	Conversation domain.ConversationID
	Message      domain.Message
}

func (e MessageAppended) ConversationID() domain.ConversationID { return e.Conversation }

type MessagesCleared struct {
	ID domain.ConversationID
}

func (e MessagesCleared) ConversationID() domain.ConversationID { return e.ID }

type ConversationDeleted struct {
	ID        domain.ConversationID
	WasActive bool
}

func (e ConversationDeleted) ConversationID() domain.ConversationID { return e.ID }
