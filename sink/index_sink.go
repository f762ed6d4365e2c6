package sink

import (
	"chat-desk/domain/event"
	"chat-desk/repositories"
	"context"
	"log/slog"
)

// IndexSink feeds appended messages to the full-text index. Entries are
// flushed per event; the index stays one batch behind at most.
type IndexSink struct {
	repository repositories.ISearchRepository
	log        *slog.Logger
}

func NewIndexSink(repository repositories.ISearchRepository, log *slog.Logger) IndexSink {
	return IndexSink{repository: repository, log: log}
}

func (s IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageAppended)
	if !ok {
		return nil
	}
	err := s.repository.Index(repositories.SearchEntry{
		ID:           evt.Message.ID,
		Conversation: evt.Conversation,
		Text:         evt.Message.Text,
		Role:         string(evt.Message.Role),
		At:           evt.Message.CreatedAt,
	})
	if err != nil {
		return err
	}
	return s.repository.Flush()
}
