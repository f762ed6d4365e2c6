package services

import (
	"chat-desk/domain"
	"chat-desk/repositories"
	"chat-desk/runtime"
	"chat-desk/sink"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// FakeOrchestrator records what it was asked to send.
type FakeOrchestrator struct {
	sentText string
	sentTo   *domain.ConversationID
	result   domain.ConversationID
	loading  bool
}

func (f *FakeOrchestrator) Send(ctx context.Context, text string) (domain.ConversationID, error) {
	f.sentText = text
	return f.result, nil
}

func (f *FakeOrchestrator) SendTo(ctx context.Context, id domain.ConversationID, text string) (domain.ConversationID, error) {
	f.sentTo = &id
	f.sentText = text
	return id, nil
}

func (f *FakeOrchestrator) Loading() bool {
	return f.loading
}

func newChatService(t *testing.T, orchestrator *FakeOrchestrator) (*ChatService, *runtime.ConversationStore) {
	logger := slog.Default()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	messages := repositories.NewMessageRepository(db, logger, nil)
	search := repositories.NewSearchRepository(writer, logger, 10)

	store := runtime.NewConversationStore(logger, time.Second)
	store.Subscribe(
		sink.NewDiskSink(messages, logger),
		sink.NewIndexSink(search, logger),
	)

	return NewChatService(store, orchestrator, messages, search), store
}

func TestChatService_Send_Delegates_To_Orchestrator(t *testing.T) {
	req := require.New(t)
	orchestrator := &FakeOrchestrator{result: uuid.New()}
	service, _ := newChatService(t, orchestrator)

	id, err := service.Send(context.Background(), "hello")
	req.NoError(err)
	req.Equal(orchestrator.result, id)
	req.Equal("hello", orchestrator.sentText)

	target := uuid.New()
	id, err = service.SendTo(context.Background(), target, "direct")
	req.NoError(err)
	req.Equal(target, id)
	req.Equal(target, *orchestrator.sentTo)

	orchestrator.loading = true
	req.True(service.Loading())
}

func TestChatService_Conversation_Lifecycle(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t, &FakeOrchestrator{})

	// Creating selects; listing shows creation order
	first := service.NewConversation("first")
	second := service.NewConversation("")
	list := service.List()
	req.Len(list, 2)
	req.Equal(first, list[0].ID)

	active, ok := service.Active()
	req.True(ok)
	req.Equal(second, active.ID)

	// Selecting switches back
	service.Select(first)
	active, ok = service.Active()
	req.True(ok)
	req.Equal(first, active.ID)

	// Deleting the active conversation leaves nothing selected
	service.Delete(first)
	_, ok = service.Active()
	req.False(ok)
	req.Len(service.List(), 1)
}

func TestChatService_History_And_Search_Read_What_Sinks_Wrote(t *testing.T) {
	req := require.New(t)
	service, store := newChatService(t, &FakeOrchestrator{})

	id := service.NewConversation("readback")
	store.AppendMessage(id, domain.NewUserMessage("durable words"))
	store.AppendMessage(id, domain.NewBotMessage("indexed reply"))

	// The disk sink persisted both messages
	persisted, _, err := service.History(id, nil)
	req.NoError(err)
	req.Len(persisted, 2)

	// The index sink made them searchable
	results, total, err := service.Search(context.Background(), "durable", &id, 0)
	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Equal("durable words", results[0].Text)
}

func TestChatService_ClearMessages_Keeps_The_Conversation(t *testing.T) {
	req := require.New(t)
	service, store := newChatService(t, &FakeOrchestrator{})

	id := service.NewConversation("")
	store.AppendMessage(id, domain.NewUserMessage("soon gone"))

	service.ClearMessages(id)

	active, ok := service.Active()
	req.True(ok)
	req.Equal(id, active.ID)
	req.Equal(0, active.Len())
}
