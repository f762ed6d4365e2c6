//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"chat-desk/domain"
	"chat-desk/errors"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const sessionKey = "session:current"

type ISessionRepository interface {
	Save(record SessionRecord) error
	Load() (SessionRecord, error)
	Clear() error
}

// SessionRecord is the locally cached "current user" convenience record.
// It is read once at startup and rewritten on login/logout; the backend
// session cookie remains the source of truth.
type SessionRecord struct {
	User    domain.User `json:"user"`
	Token   string      `json:"token,omitempty"`
	SavedAt time.Time   `json:"saved_at"`
}

type SessionRepository struct {
	db *badger.DB
}

func NewSessionRepository(db *badger.DB) ISessionRepository {
	return &SessionRepository{db: db}
}

func (s *SessionRepository) Save(record SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKey), data)
	})
}

// Load returns ErrNoSession when nothing has been cached yet.
func (s *SessionRepository) Load() (SessionRecord, error) {
	var record SessionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return SessionRecord{}, errors.ErrNoSession
	}
	if err != nil {
		return SessionRecord{}, err
	}
	return record, nil
}

func (s *SessionRepository) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(sessionKey))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
