package runtime

import (
	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/errors"
	"chat-desk/moderation"
	"chat-desk/observability"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/abadojack/whatlanggo"
)

// Orchestrator turns one submitted text into a persisted exchange:
// resolve the target conversation, append the user message, forward the
// full ordered history to the completion endpoint, and append the reply.
//
// There is no retry, no backoff, and no cancellation beyond the caller's
// context. Concurrent sends are not mutually excluded: racing calls on the
// same conversation interleave their appends in call-return order, which
// is accepted, not guaranteed.
type Orchestrator struct {
	log        *slog.Logger
	store      contract.IConversationStore
	completion contract.ICompletionClient
	gate       contract.ISessionGate
	moderator  *moderation.Moderator
	monitoring *observability.MonitoringManager
	loading    atomic.Bool
}

func NewOrchestrator(log *slog.Logger, store contract.IConversationStore,
	completion contract.ICompletionClient, gate contract.ISessionGate,
	moderator *moderation.Moderator, monitoring *observability.MonitoringManager) *Orchestrator {
	return &Orchestrator{
		log:        log,
		store:      store,
		completion: completion,
		gate:       gate,
		moderator:  moderator,
		monitoring: monitoring,
	}
}

// Loading reports whether a completion call is in flight. The caller's
// input surface should disable re-submission while true; the orchestrator
// itself does not enforce mutual exclusion.
func (o *Orchestrator) Loading() bool {
	return o.loading.Load()
}

// Send runs the exchange against the active conversation, creating a fresh
// one when none is active or the active reference dangles.
func (o *Orchestrator) Send(ctx context.Context, text string) (domain.ConversationID, error) {
	return o.send(ctx, nil, text)
}

// SendTo runs the exchange against an explicit conversation id, e.g. one
// taken from a navigated route. The id becomes the active conversation; an
// unknown id is created under that id so it stays addressable.
func (o *Orchestrator) SendTo(ctx context.Context, id domain.ConversationID, text string) (domain.ConversationID, error) {
	return o.send(ctx, &id, text)
}

func (o *Orchestrator) send(ctx context.Context, explicit *domain.ConversationID, text string) (domain.ConversationID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ConversationID{}, errors.ErrEmptyMessage
	}
	if o.gate != nil && !o.gate.Authenticated() {
		return domain.ConversationID{}, errors.ErrUnauthenticated
	}

	// Resolution happens exactly once, before any message is appended.
	conversationID := o.ensureConversation(explicit)

	langHint := detectLanguage(text)
	if o.moderator != nil {
		masked, found := o.moderator.Censor(text)
		if len(found) > 0 {
			o.log.Debug("Outbound message masked", "words", len(found), "lang", langHint)
		}
		text = masked
	}

	o.store.AppendMessage(conversationID, domain.NewUserMessage(text))
	o.monitoring.IncrSendsStarted()
	o.loading.Store(true)
	defer o.loading.Store(false)

	conversation, ok := o.store.Get(conversationID)
	if !ok {
		// Deleted between resolution and read. The user message is gone
		// with the conversation, nothing to send.
		return conversationID, errors.ErrConversationNotFound
	}

	reply, err := o.completion.Complete(ctx, conversation.Messages(), langHint)
	if err != nil {
		o.monitoring.IncrSendsFailed()
		return conversationID, fmt.Errorf("%w: %v", errors.ErrSendFailed, err)
	}

	o.store.AppendMessage(conversationID, domain.NewBotMessage(reply))
	o.monitoring.IncrSendsSucceeded()
	return conversationID, nil
}

// ensureConversation resolves the conversation to write to:
// explicit id from the caller, else the currently active one, else a new
// conversation with a generated title.
func (o *Orchestrator) ensureConversation(explicit *domain.ConversationID) domain.ConversationID {
	if explicit != nil {
		if _, ok := o.store.Get(*explicit); ok {
			o.store.SetActive(*explicit)
			return *explicit
		}
		return o.store.CreateConversation(contract.CreateOptions{ID: explicit})
	}

	if id, ok := o.store.ActiveID(); ok {
		if _, exists := o.store.Get(id); exists {
			return id
		}
		// Active reference points at a deleted conversation.
		o.log.Debug(fmt.Sprintf("Active conversation %s is gone, creating a new one", id))
	}
	return o.store.CreateConversation(contract.CreateOptions{})
}

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	return info.Lang.Iso6391()
}
