package services

import (
	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/repositories"
	"context"
)

type IChatService interface {
	Send(ctx context.Context, text string) (domain.ConversationID, error)
	SendTo(ctx context.Context, id domain.ConversationID, text string) (domain.ConversationID, error)
	Loading() bool

	NewConversation(title string) domain.ConversationID
	Select(id domain.ConversationID)
	Delete(id domain.ConversationID)
	ClearMessages(id domain.ConversationID)
	List() []*domain.Conversation
	Active() (*domain.Conversation, bool)

	History(id domain.ConversationID, cursor *string) ([]repositories.DiskMessage, *string, error)
	Search(ctx context.Context, terms string, conversation *domain.ConversationID, page int) ([]repositories.SearchResult, uint64, error)
}

// ChatService is the application facade: conversation management on the
// store, exchanges through the orchestrator, durable reads from the
// repositories. It adds no behavior of its own.
type ChatService struct {
	store        contract.IConversationStore
	orchestrator contract.IOrchestrator
	history      repositories.IMessageRepository
	search       repositories.ISearchRepository
}

func NewChatService(store contract.IConversationStore, orchestrator contract.IOrchestrator,
	history repositories.IMessageRepository, search repositories.ISearchRepository) *ChatService {
	return &ChatService{
		store:        store,
		orchestrator: orchestrator,
		history:      history,
		search:       search,
	}
}

func (s *ChatService) Send(ctx context.Context, text string) (domain.ConversationID, error) {
	return s.orchestrator.Send(ctx, text)
}

func (s *ChatService) SendTo(ctx context.Context, id domain.ConversationID, text string) (domain.ConversationID, error) {
	return s.orchestrator.SendTo(ctx, id, text)
}

func (s *ChatService) Loading() bool {
	return s.orchestrator.Loading()
}

func (s *ChatService) NewConversation(title string) domain.ConversationID {
	return s.store.CreateConversation(contract.CreateOptions{Title: title})
}

func (s *ChatService) Select(id domain.ConversationID) {
	s.store.SetActive(id)
}

func (s *ChatService) Delete(id domain.ConversationID) {
	s.store.DeleteConversation(id)
}

func (s *ChatService) ClearMessages(id domain.ConversationID) {
	s.store.ClearMessages(id)
}

func (s *ChatService) List() []*domain.Conversation {
	return s.store.List()
}

func (s *ChatService) Active() (*domain.Conversation, bool) {
	return s.store.Active()
}

func (s *ChatService) History(id domain.ConversationID, cursor *string) ([]repositories.DiskMessage, *string, error) {
	return s.history.GetMessages(id, cursor)
}

func (s *ChatService) Search(ctx context.Context, terms string, conversation *domain.ConversationID, page int) ([]repositories.SearchResult, uint64, error) {
	return s.search.Search(ctx, terms, conversation, page)
}
