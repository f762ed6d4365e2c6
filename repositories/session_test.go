package repositories

import (
	"chat-desk/domain"
	"chat-desk/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Session_Roundtrip(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewSessionRepository(db)

	record := SessionRecord{
		User: domain.User{
			ID:    uuid.NewString(),
			Name:  "Alice",
			Email: "alice@example.com",
		},
		Token:   "opaque-token",
		SavedAt: time.Now().UTC().Truncate(time.Second),
	}

	req.NoError(repository.Save(record))

	loaded, err := repository.Load()
	req.NoError(err)
	req.Equal(record.User, loaded.User)
	req.Equal(record.Token, loaded.Token)
	req.True(record.SavedAt.Equal(loaded.SavedAt))
}

func Test_Session_Load_Without_Save(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewSessionRepository(db)

	_, err := repository.Load()
	req.ErrorIs(err, errors.ErrNoSession)
}

func Test_Session_Clear_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewSessionRepository(db)

	req.NoError(repository.Save(SessionRecord{SavedAt: time.Now().UTC()}))
	req.NoError(repository.Clear())
	// Clearing an already empty cache is fine
	req.NoError(repository.Clear())

	_, err := repository.Load()
	req.ErrorIs(err, errors.ErrNoSession)
}

func Test_Session_Save_Overwrites(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewSessionRepository(db)

	req.NoError(repository.Save(SessionRecord{User: domain.User{Name: "old"}, SavedAt: time.Now().UTC()}))
	req.NoError(repository.Save(SessionRecord{User: domain.User{Name: "new"}, SavedAt: time.Now().UTC()}))

	loaded, err := repository.Load()
	req.NoError(err)
	req.Equal("new", loaded.User.Name)
}
