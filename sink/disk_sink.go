// Package sink contains the event consumers attached to the conversation
// store: durable history, the search index, and whatever else needs to see
// every mutation without the store knowing about it.
package sink

import (
	"chat-desk/domain/event"
	"chat-desk/repositories"
	"context"
	"log/slog"
)

// DiskSink persists appended messages and prunes the history of deleted
// conversations. All other events pass through untouched.
type DiskSink struct {
	repository repositories.IMessageRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IMessageRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		return d.repository.StoreMessage(toDiskMessage(evt))
	case event.ConversationDeleted:
		return d.repository.DeleteConversation(evt.ID)
	default:
		return nil
	}
}

func toDiskMessage(evt event.MessageAppended) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:           evt.Message.ID,
		Conversation: evt.Conversation,
		Text:         evt.Message.Text,
		Role:         string(evt.Message.Role),
		At:           evt.Message.CreatedAt,
	}
}
