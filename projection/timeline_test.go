package projection

import (
	"chat-desk/domain"
	"chat-desk/domain/event"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTimeline_Follows_The_Active_Conversation(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	// Given two conversations with one message each
	first := uuid.New()
	second := uuid.New()
	req.NoError(timeline.Consume(ctx, event.ConversationCreated{ID: first, Title: "a", At: time.Now()}))
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Conversation: first, Message: domain.NewUserMessage("in first")}))
	req.NoError(timeline.Consume(ctx, event.ConversationCreated{ID: second, Title: "b", At: time.Now()}))
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Conversation: second, Message: domain.NewUserMessage("in second")}))

	// Then creation moved the focus to the newest conversation
	active, ok := timeline.ActiveID()
	req.True(ok)
	req.Equal(second, active)
	messages := timeline.Messages()
	req.Len(messages, 1)
	req.Equal("in second", messages[0].Text)

	// When selecting the first one again
	req.NoError(timeline.Consume(ctx, event.ConversationSelected{ID: first}))

	// Then the view switches without losing anything
	messages = timeline.Messages()
	req.Len(messages, 1)
	req.Equal("in first", messages[0].Text)
}

func TestTimeline_Appends_Stay_In_Order(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()
	id := uuid.New()

	req.NoError(timeline.Consume(ctx, event.ConversationCreated{ID: id, At: time.Now()}))
	for _, text := range []string{"one", "two", "three"} {
		req.NoError(timeline.Consume(ctx, event.MessageAppended{Conversation: id, Message: domain.NewUserMessage(text)}))
	}

	messages := timeline.Messages()
	req.Len(messages, 3)
	req.Equal("one", messages[0].Text)
	req.Equal("two", messages[1].Text)
	req.Equal("three", messages[2].Text)
}

func TestTimeline_Clear_Empties_Only_The_View(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()
	id := uuid.New()

	req.NoError(timeline.Consume(ctx, event.ConversationCreated{ID: id, At: time.Now()}))
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Conversation: id, Message: domain.NewUserMessage("gone soon")}))
	req.NoError(timeline.Consume(ctx, event.MessagesCleared{ID: id}))

	// The conversation stays active, just empty
	active, ok := timeline.ActiveID()
	req.True(ok)
	req.Equal(id, active)
	req.Empty(timeline.Messages())
}

func TestTimeline_Delete_Drops_Focus(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()
	id := uuid.New()

	req.NoError(timeline.Consume(ctx, event.ConversationCreated{ID: id, At: time.Now()}))
	req.NoError(timeline.Consume(ctx, event.ConversationDeleted{ID: id, WasActive: true}))

	_, ok := timeline.ActiveID()
	req.False(ok)
	req.Nil(timeline.Messages())
}

func TestTimeline_Tolerates_Messages_For_Unseen_Conversations(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	// A sink attached mid-session can observe appends for conversations
	// whose creation it never saw
	stranger := uuid.New()
	req.NoError(timeline.Consume(ctx, event.MessageAppended{Conversation: stranger, Message: domain.NewUserMessage("hello?")}))
	req.NoError(timeline.Consume(ctx, event.ConversationSelected{ID: stranger}))

	messages := timeline.Messages()
	req.Len(messages, 1)
	req.Equal("hello?", messages[0].Text)
}
