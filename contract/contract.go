//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-desk/domain"
	"chat-desk/domain/event"
	"context"
)

// EventSink observes conversation store mutations.
// Sinks must tolerate events for conversations they never saw created.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// CreateOptions carries the optional parameters of CreateConversation.
// A zero value asks for a fresh id, a generated title, and no messages.
type CreateOptions struct {
	ID              *domain.ConversationID
	Title           string
	InitialMessages []domain.Message
}

type IConversationStore interface {
	CreateConversation(opts CreateOptions) domain.ConversationID
	SetActive(id domain.ConversationID)
	ClearActive()
	AppendMessage(id domain.ConversationID, message domain.Message)
	ClearMessages(id domain.ConversationID)
	DeleteConversation(id domain.ConversationID)

	Get(id domain.ConversationID) (*domain.Conversation, bool)
	ActiveID() (domain.ConversationID, bool)
	Active() (*domain.Conversation, bool)
	List() []*domain.Conversation
	Len() int

	Subscribe(sinks ...EventSink)
}

type IOrchestrator interface {
	// Send resolves a conversation (active one, or a new one) and runs the
	// full exchange. It returns the id of the conversation written to.
	Send(ctx context.Context, text string) (domain.ConversationID, error)
	// SendTo targets an explicit conversation id, e.g. from a navigated route.
	SendTo(ctx context.Context, id domain.ConversationID, text string) (domain.ConversationID, error)
	Loading() bool
}

// ISessionGate tells the orchestrator whether a session is active.
// Unauthenticated sends are refused before any store mutation occurs.
type ISessionGate interface {
	Authenticated() bool
}

type ICompletionClient interface {
	Complete(ctx context.Context, history []domain.Message, langHint string) (string, error)
}

type IAuthClient interface {
	// Login returns the authenticated user and the session token set by
	// the backend (empty when the response carried no session cookie).
	Login(ctx context.Context, email, password string) (domain.User, string, error)
	Logout(ctx context.Context) error
}
