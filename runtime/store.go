// Package runtime holds the client-side state machinery: the conversation
// store and the send orchestrator. It carries no rendering, routing, or
// transport logic of its own.
package runtime

import (
	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConversationStore is the single mutable state container of the client.
// All mutations are serialized behind a mutex so concurrent callers cannot
// break the append-order invariant. Every mutation is fanned out to the
// subscribed sinks after the lock is released.
//
// The store never raises: writes targeting an unknown conversation are
// dropped silently (logged at debug level). Read-side lookups report
// existence through their second return value instead.
type ConversationStore struct {
	mu            sync.Mutex
	log           *slog.Logger
	conversations map[domain.ConversationID]*domain.Conversation
	order         []domain.ConversationID
	activeID      *domain.ConversationID
	sinks         []contract.EventSink
	sinkTimeout   time.Duration
}

func NewConversationStore(log *slog.Logger, sinkTimeout time.Duration) *ConversationStore {
	return &ConversationStore{
		log:           log,
		conversations: make(map[domain.ConversationID]*domain.Conversation),
		sinkTimeout:   sinkTimeout,
	}
}

// Subscribe registers sinks notified on every subsequent mutation.
func (s *ConversationStore) Subscribe(sinks ...contract.EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sinks...)
}

// CreateConversation creates a conversation and makes it the active one.
// A fresh unique id is generated unless the caller supplies one. Supplying
// an id that already exists does not overwrite: the existing conversation
// is selected and its id returned (first write wins).
func (s *ConversationStore) CreateConversation(opts contract.CreateOptions) domain.ConversationID {
	s.mu.Lock()

	id := uuid.New()
	if opts.ID != nil {
		id = *opts.ID
	}

	if existing, ok := s.conversations[id]; ok {
		s.log.Debug(fmt.Sprintf("Conversation %s already exists, selecting it", id))
		s.activeID = &existing.ID
		s.mu.Unlock()
		s.publish(event.ConversationSelected{ID: id})
		return id
	}

	conversation := domain.NewConversation(id, opts.Title)
	for _, m := range opts.InitialMessages {
		conversation.Append(m)
	}
	s.conversations[id] = conversation
	s.order = append(s.order, id)
	s.activeID = &id
	s.mu.Unlock()

	s.publish(event.ConversationCreated{ID: id, Title: conversation.Title, At: conversation.CreatedAt})
	return id
}

// SetActive points the active reference at the given id. Existence is not
// validated at write time: validation is deferred to the orchestrator's
// read, which re-resolves a dangling reference before appending.
func (s *ConversationStore) SetActive(id domain.ConversationID) {
	s.mu.Lock()
	s.activeID = &id
	s.mu.Unlock()
	s.publish(event.ConversationSelected{ID: id})
}

func (s *ConversationStore) ClearActive() {
	s.mu.Lock()
	s.activeID = nil
	s.mu.Unlock()
	s.publish(event.ActiveCleared{})
}

// AppendMessage appends to the identified conversation. A message for an
// unknown conversation is dropped without touching any state.
func (s *ConversationStore) AppendMessage(id domain.ConversationID, message domain.Message) {
	s.mu.Lock()
	conversation, ok := s.conversations[id]
	if !ok {
		s.mu.Unlock()
		s.log.Debug(fmt.Sprintf("Dropping message for unknown conversation %s", id))
		return
	}
	conversation.Append(message)
	s.mu.Unlock()

	s.publish(event.MessageAppended{Conversation: id, Message: message})
}

// ClearMessages empties the identified conversation. The id is explicit:
// unlike the behavior this replaces, clearing never implicitly targets
// whichever conversation happens to be active.
func (s *ConversationStore) ClearMessages(id domain.ConversationID) {
	s.mu.Lock()
	conversation, ok := s.conversations[id]
	if !ok {
		s.mu.Unlock()
		s.log.Debug(fmt.Sprintf("Clear ignored for unknown conversation %s", id))
		return
	}
	conversation.Clear()
	s.mu.Unlock()

	s.publish(event.MessagesCleared{ID: id})
}

// DeleteConversation removes the conversation. If it was the active one the
// active reference is nulled, forcing the orchestrator to establish a new
// conversation on the next send. Deleting an unknown id is a no-op.
func (s *ConversationStore) DeleteConversation(id domain.ConversationID) {
	s.mu.Lock()
	if _, ok := s.conversations[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.conversations, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	wasActive := s.activeID != nil && *s.activeID == id
	if wasActive {
		s.activeID = nil
	}
	s.mu.Unlock()

	s.publish(event.ConversationDeleted{ID: id, WasActive: wasActive})
}

func (s *ConversationStore) Get(id domain.ConversationID) (*domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversation, ok := s.conversations[id]
	return conversation, ok
}

func (s *ConversationStore) ActiveID() (domain.ConversationID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == nil {
		return domain.ConversationID{}, false
	}
	return *s.activeID, true
}

// Active resolves the active conversation. A dangling active reference
// (deleted conversation) reads as "no active conversation".
func (s *ConversationStore) Active() (*domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == nil {
		return nil, false
	}
	conversation, ok := s.conversations[*s.activeID]
	return conversation, ok
}

// List returns the conversations in creation order.
func (s *ConversationStore) List() []*domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.conversations[id])
	}
	return out
}

func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// publish fans an event out to every sink, each under its own timeout.
// Sinks are observers: a failing sink is logged and never blocks a mutation.
// Fanout runs after the store lock is released, so two concurrent mutations
// may reach the sinks in the opposite order of their application. Sinks that
// rebuild state from the event stream alone must tolerate that reordering.
func (s *ConversationStore) publish(e event.DomainEvent) {
	s.mu.Lock()
	sinks := make([]contract.EventSink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.Unlock()

	for _, sink := range sinks {
		ctx, cancel := context.WithTimeout(context.Background(), s.sinkTimeout)
		if err := sink.Consume(ctx, e); err != nil {
			s.log.Warn("Sink rejected event", "err", err)
		}
		cancel()
	}
}
