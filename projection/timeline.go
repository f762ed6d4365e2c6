// Package projection builds local read models from observed events.
// Handles ordering and active-conversation tracking.
// Does not emit events or mutate the store.
package projection

import (
	"chat-desk/domain"
	"chat-desk/domain/event"
	"context"
	"sync"
)

// Timeline mirrors the active conversation purely from store events.
// It is the explicit form of the "any mutation re-renders the view"
// contract: a renderer reads Messages() after each event instead of
// reaching into the store.
type Timeline struct {
	mu       sync.Mutex
	active   *domain.ConversationID
	messages map[domain.ConversationID][]domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{
		messages: make(map[domain.ConversationID][]domain.Message),
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.ConversationCreated:
		id := evt.ID
		t.messages[id] = nil
		t.active = &id
	case event.ConversationSelected:
		id := evt.ID
		t.active = &id
	case event.ActiveCleared:
		t.active = nil
	case event.MessageAppended:
		t.messages[evt.Conversation] = append(t.messages[evt.Conversation], evt.Message)
	case event.MessagesCleared:
		t.messages[evt.ID] = nil
	case event.ConversationDeleted:
		delete(t.messages, evt.ID)
		if t.active != nil && *t.active == evt.ID {
			t.active = nil
		}
	}
	return nil
}

// Messages returns the active conversation's view in append order.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return nil
	}
	source := t.messages[*t.active]
	out := make([]domain.Message, len(source))
	copy(out, source)
	return out
}

// ActiveID reports which conversation the timeline is following.
func (t *Timeline) ActiveID() (domain.ConversationID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return domain.ConversationID{}, false
	}
	return *t.active, true
}
