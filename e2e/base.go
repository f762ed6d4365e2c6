package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"chat-desk/infrastructure/api"
	"chat-desk/observability"
	"chat-desk/projection"
	"chat-desk/repositories"
	"chat-desk/runtime"
	"chat-desk/services"
	"chat-desk/sink"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseSuite wires the full client stack against a backend. When
// BACKEND_ADDR is unset it runs a local fake implementing the three
// endpoints the client calls.
type BaseSuite struct {
	suite.Suite
	Config Config

	backend *httptest.Server
	Chat    services.IChatService
	Auth    services.IAuthService

	db     *badger.DB
	writer *bluge.Writer
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

func (s *BaseSuite) TearDownTest() {
	if s.backend != nil {
		s.backend.Close()
		s.backend = nil
	}
	if s.writer != nil {
		s.Require().NoError(s.writer.Close())
		s.writer = nil
	}
	if s.db != nil {
		s.Require().NoError(s.db.Close())
		s.db = nil
	}
}

// Step prints a colorized header so multi-step scenarios stay readable in logs
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// BuildStack assembles repositories, store, sinks and services on
// throwaway directories, exactly as the console binary does.
func (s *BaseSuite) BuildStack() {
	req := s.Require()

	backendURL := s.Config.BackendAddr
	if backendURL == "" {
		s.backend = newFakeBackend(s)
		backendURL = s.backend.URL
	}

	logger := logs.GetLoggerFromString("ERROR")

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	s.db = db

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(s.T().TempDir()))
	req.NoError(err)
	s.writer = writer

	messageRepository := repositories.NewMessageRepository(db, logger, nil)
	sessionRepository := repositories.NewSessionRepository(db)
	searchRepository := repositories.NewSearchRepository(writer, logger, 10)

	store := runtime.NewConversationStore(logger, time.Second)
	store.Subscribe(
		sink.NewDiskSink(messageRepository, logger),
		sink.NewIndexSink(searchRepository, logger),
		projection.NewTimeline(),
	)

	httpClient, err := api.NewHTTPClient(10 * time.Second)
	req.NoError(err)
	if s.Config.DebugJSON {
		httpClient.Transport = &debugTransport{t: s.T()}
	}

	authService := services.NewAuthService(logger,
		api.NewAuthClient(backendURL, httpClient, logger), sessionRepository)
	orchestrator := runtime.NewOrchestrator(logger, store,
		api.NewCompletionClient(backendURL, httpClient, logger),
		authService, nil, observability.NewMonitoringManager(logger))

	s.Chat = services.NewChatService(store, orchestrator, messageRepository, searchRepository)
	s.Auth = authService
}

// debugTransport logs each round trip with its body when E2E_DEBUG_JSON is set
type debugTransport struct {
	t interface{ Logf(string, ...any) }
}

func (d *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		d.t.Logf("HTTP %s %s failed in %v: %v", req.Method, req.URL.Path, time.Since(start), err)
		return nil, err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body = io.NopCloser(strings.NewReader(string(body)))
	d.t.Logf("HTTP %s %s [%d] in %v\nRESPONSE:\n%s",
		req.Method, req.URL.Path, resp.StatusCode, time.Since(start), string(body))
	return resp, nil
}

// newFakeBackend implements login, logout and chat completion. The chat
// handler echoes the last user message so scenarios can assert on content.
func newFakeBackend(s *BaseSuite) *httptest.Server {
	var mu sync.Mutex
	authenticated := false

	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))

		if body.Password != "hunter2!" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
			return
		}
		mu.Lock()
		authenticated = true
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "e2e-session"})
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":    "7f9c24e5-1b3a-4f0e-9d2c-8a6b5e4d3c2b",
			"name":  "E2E Tester",
			"email": body.Email,
		})
	})

	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authenticated = false
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ok := authenticated
		mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var body struct {
			Messages []struct {
				Text string `json:"text"`
				Role string `json:"role"`
			} `json:"messages"`
		}
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Require().NotEmpty(body.Messages)

		last := body.Messages[len(body.Messages)-1]
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "You said: " + last.Text,
		})
	})

	return httptest.NewServer(mux)
}
