//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-desk/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(conversation domain.ConversationID, cursor *string) ([]DiskMessage, *string, error)
	DeleteConversation(conversation domain.ConversationID) error
}

// DiskMessage is the repository-level representation of a persisted message.
type DiskMessage struct {
	ID           uuid.UUID             `json:"id"`
	Conversation domain.ConversationID `json:"conversation"`
	Text         string                `json:"text"`
	Role         string                `json:"role"`
	At           time.Time             `json:"at"`
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.Conversation,
		message.At.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves messages for a conversation using a prefix scan.
// Thanks to the padded timestamp in the key, messages come back naturally
// sorted by time. It walks newest-first and stops once the configured
// limitMessages is reached, returning a cursor for the next page.
func (m MessageRepository) GetMessages(conversation domain.ConversationID, cursor *string) ([]DiskMessage, *string, error) {
	var rawMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", conversation)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk back.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rawMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawMessages = append(rawMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var diskMessages []DiskMessage
	for _, b := range rawMessages {
		var message DiskMessage
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	if lastKey == "" {
		// Nothing was read, so there is nothing to resume from.
		return diskMessages, nil, nil
	}
	return diskMessages, &lastKey, nil
}

// DeleteConversation drops every persisted message of a conversation.
func (m MessageRepository) DeleteConversation(conversation domain.ConversationID) error {
	prefix := []byte(fmt.Sprintf("msg:%s:", conversation))

	return m.db.Update(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
