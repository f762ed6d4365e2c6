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
	"time"

	"github.com/samber/lo"
)

// wireMessage is the over-the-wire shape of one history entry.
type wireMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type completionRequest struct {
	Messages []wireMessage `json:"messages"`
}

type completionResponse struct {
	Message string `json:"message"`
}

// CompletionClient posts the full ordered conversation history to the
// backend's /chat endpoint and returns the assistant reply text.
type CompletionClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewCompletionClient(baseURL string, httpClient *http.Client, log *slog.Logger) *CompletionClient {
	return &CompletionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// Complete sends the history, ordering preserved. Any transport error or
// non-2xx status is surfaced to the caller; there is no retry here.
func (c *CompletionClient) Complete(ctx context.Context, history []domain.Message, langHint string) (string, error) {
	body, err := json.Marshal(completionRequest{Messages: toWire(history)})
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if langHint != "" {
		req.Header.Set("Accept-Language", langHint)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Message: resp.Status}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}

	c.log.Debug("Completion received",
		"history_len", len(history),
		"latency_ms", time.Since(start).Milliseconds())
	return decoded.Message, nil
}

func toWire(history []domain.Message) []wireMessage {
	return lo.Map(history, func(item domain.Message, _ int) wireMessage {
		return wireMessage{
			ID:        item.ID.String(),
			Text:      item.Text,
			Role:      string(item.Role),
			CreatedAt: item.CreatedAt,
		}
	})
}
