package main

import (
	"bufio"
	"chat-desk/domain"
	"chat-desk/infrastructure/api"
	"chat-desk/internal"
	"chat-desk/moderation"
	"chat-desk/observability"
	"chat-desk/projection"
	"chat-desk/repositories"
	"chat-desk/runtime"
	"chat-desk/services"
	"chat-desk/sink"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Console terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the REPL lifecycle, and
// centralizes error reporting so deferred cleanups (badger, bluge) always
// execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	censorChar, err := internal.CharacterRune(config.CensorChar)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Local storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories, store, sinks
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	sessionRepository := repositories.NewSessionRepository(db)
	searchRepository := repositories.NewSearchRepository(blugeWriter, logger, config.SearchPageSize)

	monitoring := observability.NewMonitoringManager(logger)
	timeline := projection.NewTimeline()

	store := runtime.NewConversationStore(logger, config.SinkTimeout)
	store.Subscribe(
		sink.NewDiskSink(messageRepository, logger),
		sink.NewIndexSink(searchRepository, logger),
		timeline,
		monitoring,
	)

	// 4. Remote clients sharing one cookie jar
	httpClient, err := api.NewHTTPClient(config.HTTPTimeout)
	if err != nil {
		return exitRuntime, err
	}
	completionClient := api.NewCompletionClient(config.BackendURL, httpClient, logger)
	authClient := api.NewAuthClient(config.BackendURL, httpClient, logger)

	authService := services.NewAuthService(logger, authClient, sessionRepository)

	// 5. Moderation (optional)
	var moderator *moderation.Moderator
	if config.EnableModeration {
		words, err := moderation.LoadWordList()
		if err != nil {
			return exitRuntime, err
		}
		logger.Info(fmt.Sprintf("%d censored words loaded [%s]",
			len(words.Words), strings.Join(words.Languages, ",")))
		moderator, err = moderation.NewModerator(words.Words, censorChar)
		if err != nil {
			return exitRuntime, err
		}
	}

	orchestrator := runtime.NewOrchestrator(logger, store, completionClient, authService, moderator, monitoring)
	chatService := services.NewChatService(store, orchestrator, messageRepository, searchRepository)

	// 6. Debug inspector at debug log level only
	if logger.Enabled(ctx, slog.LevelDebug) {
		url := fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort)
		logger.Info("Debug Badger inspector available", "url", url)
		internal.StartDebugServer(db, config.DebugPort, "/inspect", messageMapper, func() map[string]any {
			snapshot := monitoring.Snapshot()
			return map[string]any{
				"sends":    snapshot.SendsStarted,
				"failed":   snapshot.SendsFailed,
				"messages": snapshot.MessagesAppended,
			}
		})
	}

	console := &console{
		log:        logger,
		chat:       chatService,
		auth:       authService,
		monitoring: monitoring,
	}
	return console.loop(ctx)
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.INFO)
	} else {
		options = options.WithLoggingLevel(badger.ERROR)
	}
	return options
}

// messageMapper decodes persisted messages for the debug inspector.
func messageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	var message repositories.DiskMessage
	if err := json.Unmarshal(val, &message); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	row.Role = message.Role
	row.Detail = message.Text
	return row
}

// console is the interactive surface. It is a driver for the services,
// not a UI layer: all state lives behind the facades.
type console struct {
	log        *slog.Logger
	chat       services.IChatService
	auth       services.IAuthService
	monitoring *observability.MonitoringManager
}

func (c *console) loop(ctx context.Context) (int, error) {
	color.Cyan.Println("chat-desk console. Type /help for commands, Ctrl+C to quit.")
	if user, ok := c.auth.CurrentUser(); ok {
		color.Green.Printf("Welcome back, %s\n", user.Name)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		color.Gray.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			c.log.Info("Stopping console...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "/quit") {
				return exitOK, nil
			}
			c.dispatch(ctx, line)
		}
	}
}

func (c *console) dispatch(ctx context.Context, line string) {
	if !strings.HasPrefix(line, "/") {
		c.send(ctx, line)
		return
	}

	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "/help":
		c.help()
	case "/login":
		c.login(ctx, args)
	case "/logout":
		if err := c.auth.Logout(ctx); err != nil {
			color.Yellow.Printf("Logout reached the backend with an error: %v\n", err)
		}
		color.Green.Println("Logged out")
	case "/new":
		id := c.chat.NewConversation(strings.Join(args, " "))
		color.Green.Printf("Conversation %s created and selected\n", short(id))
	case "/list":
		c.list()
	case "/open":
		c.withConversation(args, func(id domain.ConversationID) {
			c.chat.Select(id)
			color.Green.Printf("Conversation %s selected\n", short(id))
		})
	case "/delete":
		c.withConversation(args, func(id domain.ConversationID) {
			c.chat.Delete(id)
			color.Green.Printf("Conversation %s deleted\n", short(id))
		})
	case "/clear":
		if active, ok := c.chat.Active(); ok {
			c.chat.ClearMessages(active.ID)
			color.Green.Println("Messages cleared")
		} else {
			color.Yellow.Println("No active conversation")
		}
	case "/history":
		c.history()
	case "/search":
		c.search(ctx, strings.Join(args, " "))
	case "/stats":
		c.stats()
	default:
		color.Yellow.Printf("Unknown command %s\n", command)
	}
}

func (c *console) help() {
	fmt.Println(`  /login <email> <password>   authenticate against the backend
  /logout                     end the session
  /new [title]                start a conversation
  /list                       list conversations
  /open <id>                  select a conversation (id prefix works)
  /delete <id>                delete a conversation
  /clear                      clear the active conversation's messages
  /history                    show the active conversation from disk
  /search <terms>             full-text search over all messages
  /stats                      session counters and process metrics
  /quit                       exit
  anything else               send it to the assistant`)
}

func (c *console) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		color.Yellow.Println("Usage: /login <email> <password>")
		return
	}
	user, err := c.auth.Login(ctx, args[0], args[1])
	if err != nil {
		color.Red.Printf("Login failed: %v\n", err)
		return
	}
	color.Green.Printf("Logged in as %s\n", user.Email)
}

func (c *console) send(ctx context.Context, text string) {
	id, err := c.chat.Send(ctx, text)
	if err != nil {
		color.Red.Printf("Send failed: %v\n", err)
		return
	}
	// The reply is the last message of the conversation we just wrote to.
	conversations := c.chat.List()
	for _, conversation := range conversations {
		if conversation.ID != id {
			continue
		}
		messages := conversation.Messages()
		if len(messages) > 0 {
			last := messages[len(messages)-1]
			if last.Role == domain.RoleBot {
				color.Cyan.Printf("assistant: %s\n", last.Text)
			}
		}
	}
}

func (c *console) list() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title", "Messages", "Created"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	activeID := domain.ConversationID{}
	if active, ok := c.chat.Active(); ok {
		activeID = active.ID
	}

	for _, conversation := range c.chat.List() {
		marker := ""
		if conversation.ID == activeID {
			marker = " *"
		}
		table.Append([]string{
			short(conversation.ID) + marker,
			conversation.Title,
			fmt.Sprintf("%d", conversation.Len()),
			conversation.CreatedAt.Format("15:04:05"),
		})
	}
	table.Render()
}

func (c *console) history() {
	active, ok := c.chat.Active()
	if !ok {
		color.Yellow.Println("No active conversation")
		return
	}
	messages, _, err := c.chat.History(active.ID, nil)
	if err != nil {
		color.Red.Printf("History failed: %v\n", err)
		return
	}
	// The repository walks newest-first; print oldest-first.
	for i := len(messages) - 1; i >= 0; i-- {
		message := messages[i]
		if message.Role == string(domain.RoleUser) {
			color.Green.Printf("you: %s\n", message.Text)
		} else {
			color.Cyan.Printf("assistant: %s\n", message.Text)
		}
	}
}

func (c *console) search(ctx context.Context, terms string) {
	if terms == "" {
		color.Yellow.Println("Usage: /search <terms>")
		return
	}
	results, total, err := c.chat.Search(ctx, terms, nil, 0)
	if err != nil {
		color.Red.Printf("Search failed: %v\n", err)
		return
	}
	color.Gray.Printf("%d matches\n", total)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Conversation", "Role", "Time", "Text"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, result := range results {
		table.Append([]string{
			short(result.Conversation),
			result.Role,
			result.At.Format("15:04:05"),
			result.Text,
		})
	}
	table.Render()
}

func (c *console) stats() {
	snapshot := c.monitoring.Snapshot()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.Append([]string{"Sends started", fmt.Sprintf("%d", snapshot.SendsStarted)})
	table.Append([]string{"Sends succeeded", fmt.Sprintf("%d", snapshot.SendsSucceeded)})
	table.Append([]string{"Sends failed", fmt.Sprintf("%d", snapshot.SendsFailed)})
	table.Append([]string{"Messages appended", fmt.Sprintf("%d", snapshot.MessagesAppended)})
	table.Append([]string{"Conversations created", fmt.Sprintf("%d", snapshot.ConversationsCreated)})
	table.Append([]string{"Conversations deleted", fmt.Sprintf("%d", snapshot.ConversationsDeleted)})
	table.Append([]string{"Heap alloc (MB)", fmt.Sprintf("%d", snapshot.AllocMemMb)})
	table.Append([]string{"Process RSS (MB)", fmt.Sprintf("%d", snapshot.ProcessRssMb)})
	table.Append([]string{"Process CPU (%)", fmt.Sprintf("%.1f", snapshot.ProcessCPUPercent)})
	table.Append([]string{"Uptime", snapshot.Uptime})
	table.Render()
}

// withConversation resolves an id prefix argument to a known conversation.
func (c *console) withConversation(args []string, fn func(domain.ConversationID)) {
	if len(args) != 1 {
		color.Yellow.Println("Usage: <command> <conversation-id>")
		return
	}
	for _, conversation := range c.chat.List() {
		if strings.HasPrefix(conversation.ID.String(), args[0]) {
			fn(conversation.ID)
			return
		}
	}
	color.Yellow.Printf("No conversation matching %q\n", args[0])
}

func short(id domain.ConversationID) string {
	return id.String()[:8]
}
