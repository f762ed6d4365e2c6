package api

import (
	"bytes"
	"chat-desk/domain"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthClient drives the backend session endpoints. A successful login
// stores the session cookie in the shared jar; logout clears it server-side.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewAuthClient(baseURL string, httpClient *http.Client, log *slog.Logger) *AuthClient {
	return &AuthClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

func (c *AuthClient) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return domain.User{}, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return domain.User{}, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.User{}, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.User{}, "", &APIError{Status: resp.StatusCode, Message: resp.Status}
	}

	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return domain.User{}, "", fmt.Errorf("decode user: %w", err)
	}

	c.log.Info("Logged in", "user", user.Email)
	return user, sessionToken(resp.Cookies()), nil
}

// sessionToken pulls the session cookie set at login out of the response.
// The jar already keeps it for transport; this copy feeds the local session
// cache so the expiry check survives a restart.
func sessionToken(cookies []*http.Cookie) string {
	for _, cookie := range cookies {
		if cookie.Name == "session" {
			return cookie.Value
		}
	}
	if len(cookies) > 0 {
		return cookies[0].Value
	}
	return ""
}

func (c *AuthClient) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	return nil
}
