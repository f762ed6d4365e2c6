//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"chat-desk/domain"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blugelabs/bluge"
	blugeindex "github.com/blugelabs/bluge/index"
	"github.com/google/uuid"
)

type ISearchRepository interface {
	Index(entry SearchEntry) error
	Flush() error
	Search(ctx context.Context, terms string, conversation *domain.ConversationID, page int) ([]SearchResult, uint64, error)
}

// SearchEntry is one message handed to the full-text index.
type SearchEntry struct {
	ID           uuid.UUID
	Conversation domain.ConversationID
	Text         string
	Role         string
	At           time.Time
}

// SearchResult is a single hit with its stored fields resolved.
type SearchResult struct {
	MessageID    uuid.UUID
	Conversation domain.ConversationID
	Text         string
	Role         string
	At           time.Time
}

// SearchRepository indexes message text in Bluge. Writes are batched in
// memory and become searchable after Flush, matching the eventual
// consistency of the index segment files.
type SearchRepository struct {
	mu       sync.Mutex
	writer   *bluge.Writer
	batch    *blugeindex.Batch
	log      *slog.Logger
	pageSize int
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger, pageSize int) *SearchRepository {
	return &SearchRepository{
		writer:   writer,
		batch:    bluge.NewBatch(),
		log:      log,
		pageSize: pageSize,
	}
}

// Index queues one entry. Re-indexing the same message id overwrites the
// previous document (last write wins).
func (s *SearchRepository) Index(entry SearchEntry) error {
	doc := bluge.NewDocument(entry.ID.String()).
		AddField(bluge.NewTextField("text", entry.Text).StoreValue()).
		AddField(bluge.NewKeywordField("conversation", entry.Conversation.String()).StoreValue()).
		AddField(bluge.NewKeywordField("role", entry.Role).StoreValue()).
		AddField(bluge.NewKeywordField("at", entry.At.Format(time.RFC3339Nano)).StoreValue())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.Update(doc.ID(), doc)
	return nil
}

// Flush commits the pending batch to the index.
func (s *SearchRepository) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Batch(s.batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	s.batch.Reset()
	return nil
}

// Search runs a match query over message text, optionally scoped to one
// conversation, paginated by pageSize. It returns the page of hits plus the
// total match count.
func (s *SearchRepository) Search(ctx context.Context, terms string, conversation *domain.ConversationID, page int) ([]SearchResult, uint64, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("index reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("text"))
	if conversation != nil {
		query.AddMust(bluge.NewTermQuery(conversation.String()).SetField("conversation"))
	}

	request := bluge.NewTopNSearch(s.pageSize, query).
		SetFrom(page * s.pageSize).
		WithStandardAggregations()

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}

	var results []SearchResult
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			break
		}

		var result SearchResult
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					result.MessageID = id
				}
			case "conversation":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					result.Conversation = id
				}
			case "text":
				result.Text = string(value)
			case "role":
				result.Role = string(value)
			case "at":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					result.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, 0, err
		}
		results = append(results, result)
	}

	total := iterator.Aggregations().Count()
	s.log.Debug(fmt.Sprintf("Search %q matched %d documents", terms, total))
	return results, total, nil
}
