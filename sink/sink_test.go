package sink

import (
	"chat-desk/domain"
	"chat-desk/domain/event"
	"chat-desk/repositories"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newDiskSink(t *testing.T) (DiskSink, repositories.IMessageRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repository := repositories.NewMessageRepository(db, logger, nil)
	return NewDiskSink(repository, logger), repository
}

func TestDiskSink_Persists_Appended_Messages(t *testing.T) {
	req := require.New(t)
	sink, repository := newDiskSink(t)
	conversation := uuid.New()
	message := domain.NewUserMessage("write me down")

	// When the sink observes an append
	err := sink.Consume(context.Background(), event.MessageAppended{
		Conversation: conversation,
		Message:      message,
	})
	req.NoError(err)

	// Then the message is on disk
	persisted, _, err := repository.GetMessages(conversation, nil)
	req.NoError(err)
	req.Len(persisted, 1)
	req.Equal(message.ID, persisted[0].ID)
	req.Equal("write me down", persisted[0].Text)
	req.Equal("user", persisted[0].Role)
}

func TestDiskSink_Prunes_Deleted_Conversations(t *testing.T) {
	req := require.New(t)
	sink, repository := newDiskSink(t)
	conversation := uuid.New()
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, event.MessageAppended{
		Conversation: conversation,
		Message:      domain.NewUserMessage("doomed"),
	}))

	// When the conversation is deleted
	req.NoError(sink.Consume(ctx, event.ConversationDeleted{ID: conversation}))

	// Then its history is gone
	persisted, _, err := repository.GetMessages(conversation, nil)
	req.NoError(err)
	req.Empty(persisted)
}

func TestDiskSink_Ignores_Other_Events(t *testing.T) {
	req := require.New(t)
	sink, _ := newDiskSink(t)
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, event.ConversationSelected{ID: uuid.New()}))
	req.NoError(sink.Consume(ctx, event.ActiveCleared{}))
	req.NoError(sink.Consume(ctx, event.MessagesCleared{ID: uuid.New()}))
}

func TestIndexSink_Makes_Messages_Searchable(t *testing.T) {
	req := require.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	repository := repositories.NewSearchRepository(writer, logger, 10)
	sink := NewIndexSink(repository, logger)
	conversation := uuid.New()

	// When the sink observes an append
	err = sink.Consume(context.Background(), event.MessageAppended{
		Conversation: conversation,
		Message:      domain.NewBotMessage("indexed reply about gophers"),
	})
	req.NoError(err)

	// Then the message is immediately searchable (the sink flushes per event)
	results, total, err := repository.Search(context.Background(), "gophers", &conversation, 0)
	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Equal("bot", results[0].Role)
}
