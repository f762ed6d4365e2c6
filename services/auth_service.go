package services

import (
	"chat-desk/auth"
	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/errors"
	"chat-desk/infrastructure/api"
	"chat-desk/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type IAuthService interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Logout(ctx context.Context) error
	CurrentUser() (domain.User, bool)
	Authenticated() bool
}

// AuthService owns the client-side session: it drives the remote auth
// endpoints, keeps the in-memory "current user", and maintains the cached
// session record so a restart does not log the user out.
type AuthService struct {
	mu       sync.Mutex
	log      *slog.Logger
	client   contract.IAuthClient
	sessions repositories.ISessionRepository
	current  *domain.User
}

func NewAuthService(log *slog.Logger, client contract.IAuthClient,
	sessions repositories.ISessionRepository) *AuthService {
	s := &AuthService{log: log, client: client, sessions: sessions}
	s.restore()
	return s
}

// restore reads the cached session record once at startup. An expired
// token invalidates the cache instead of resurrecting a dead session.
func (s *AuthService) restore() {
	record, err := s.sessions.Load()
	if stderrors.Is(err, errors.ErrNoSession) {
		return
	}
	if err != nil {
		s.log.Warn("Session cache unreadable", "err", err)
		return
	}

	if record.Token != "" {
		claims, err := auth.IntrospectToken(record.Token)
		if err == nil && claims.Expired(time.Now()) {
			s.log.Info("Cached session expired, clearing")
			_ = s.sessions.Clear()
			return
		}
	}

	s.current = &record.User
	s.log.Info("Session restored", "user", record.User.Email)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Email: email, Password: password}); err != nil {
		return domain.User{}, err
	}

	user, token, err := s.client.Login(ctx, email, password)
	if err != nil {
		var apiErr *api.APIError
		if stderrors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			// Generic error to avoid leaking which part of the credentials failed
			return domain.User{}, errors.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("login: %w", err)
	}

	record := repositories.SessionRecord{User: user, Token: token, SavedAt: time.Now().UTC()}
	if err := s.sessions.Save(record); err != nil {
		// The live session stands even if the local cache is unwritable.
		s.log.Warn("Session cache write failed", "err", err)
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	return user, nil
}

// Logout tears the session down locally even when the remote call fails:
// the user asked to be logged out, the backend just may not know yet.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if clearErr := s.sessions.Clear(); clearErr != nil {
		s.log.Warn("Session cache clear failed", "err", clearErr)
	}
	return err
}

func (s *AuthService) CurrentUser() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

// Authenticated implements the orchestrator's session gate.
func (s *AuthService) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}
