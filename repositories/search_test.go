package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestWriter(t *testing.T) *bluge.Writer {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return writer
}

func Test_Search_Finds_Indexed_Text(t *testing.T) {
	req := require.New(t)
	repository := NewSearchRepository(openTestWriter(t), slog.Default(), 10)
	conversation := uuid.New()
	at := time.Now().UTC().Truncate(time.Second)

	entry := SearchEntry{
		ID:           uuid.New(),
		Conversation: conversation,
		Text:         "the quick brown fox",
		Role:         "user",
		At:           at,
	}
	req.NoError(repository.Index(entry))
	req.NoError(repository.Flush())

	results, total, err := repository.Search(context.Background(), "fox", nil, 0)
	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Len(results, 1)
	req.Equal(entry.ID, results[0].MessageID)
	req.Equal(conversation, results[0].Conversation)
	req.Equal("the quick brown fox", results[0].Text)
	req.Equal("user", results[0].Role)
	req.True(at.Equal(results[0].At))
}

func Test_Search_Before_Flush_Sees_Nothing(t *testing.T) {
	req := require.New(t)
	repository := NewSearchRepository(openTestWriter(t), slog.Default(), 10)

	req.NoError(repository.Index(SearchEntry{
		ID: uuid.New(), Conversation: uuid.New(),
		Text: "invisible until flushed", Role: "user", At: time.Now().UTC(),
	}))

	_, total, err := repository.Search(context.Background(), "invisible", nil, 0)
	req.NoError(err)
	req.Zero(total)
}

func Test_Search_Scoped_To_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewSearchRepository(openTestWriter(t), slog.Default(), 10)
	mine := uuid.New()
	other := uuid.New()
	at := time.Now().UTC()

	req.NoError(repository.Index(SearchEntry{ID: uuid.New(), Conversation: mine, Text: "shared topic", Role: "user", At: at}))
	req.NoError(repository.Index(SearchEntry{ID: uuid.New(), Conversation: other, Text: "shared topic", Role: "user", At: at}))
	req.NoError(repository.Flush())

	// Unscoped search sees both
	_, total, err := repository.Search(context.Background(), "topic", nil, 0)
	req.NoError(err)
	req.Equal(uint64(2), total)

	// Scoping narrows to one conversation
	results, total, err := repository.Search(context.Background(), "topic", &mine, 0)
	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Len(results, 1)
	req.Equal(mine, results[0].Conversation)
}

func Test_Search_Pagination(t *testing.T) {
	req := require.New(t)
	pageSize := 3
	repository := NewSearchRepository(openTestWriter(t), slog.Default(), pageSize)
	conversation := uuid.New()
	at := time.Now().UTC()

	for i := 0; i < 5; i++ {
		req.NoError(repository.Index(SearchEntry{
			ID: uuid.New(), Conversation: conversation,
			Text: "pagination sample", Role: "user", At: at.Add(time.Duration(i) * time.Second),
		}))
	}
	req.NoError(repository.Flush())

	first, total, err := repository.Search(context.Background(), "sample", nil, 0)
	req.NoError(err)
	req.Equal(uint64(5), total)
	req.Len(first, pageSize)

	second, _, err := repository.Search(context.Background(), "sample", nil, 1)
	req.NoError(err)
	req.Len(second, 2)
}

func Test_Search_Reindex_Same_Id_Overwrites(t *testing.T) {
	req := require.New(t)
	repository := NewSearchRepository(openTestWriter(t), slog.Default(), 10)
	id := uuid.New()
	conversation := uuid.New()
	at := time.Now().UTC()

	req.NoError(repository.Index(SearchEntry{ID: id, Conversation: conversation, Text: "draft wording", Role: "user", At: at}))
	req.NoError(repository.Flush())
	req.NoError(repository.Index(SearchEntry{ID: id, Conversation: conversation, Text: "final wording", Role: "user", At: at}))
	req.NoError(repository.Flush())

	_, total, err := repository.Search(context.Background(), "wording", nil, 0)
	req.NoError(err)
	req.Equal(uint64(1), total)
}
