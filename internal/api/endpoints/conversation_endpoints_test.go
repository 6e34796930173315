package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"clai-chat/internal/api"
	"clai-chat/internal/api/middleware"
	"clai-chat/internal/dto"
	internaljwt "clai-chat/internal/jwt"
	"clai-chat/internal/model"
	"clai-chat/internal/queue"
	conversationservice "clai-chat/internal/service/conversation"
	"clai-chat/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
)

type memoryRepository struct {
	mu            sync.Mutex
	chatbots      map[string]model.ChatbotItem
	users         map[string]model.UserItem
	visitors      map[string]model.VisitorItem
	conversations map[string]model.ConversationItem
	messages      map[string][]model.MessageItem
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		chatbots:      make(map[string]model.ChatbotItem),
		users:         make(map[string]model.UserItem),
		visitors:      make(map[string]model.VisitorItem),
		conversations: make(map[string]model.ConversationItem),
		messages:      make(map[string][]model.MessageItem),
	}
}

func (m *memoryRepository) GetChatbot(ctx context.Context, chatbotID string) (model.ChatbotItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chatbot, ok := m.chatbots[chatbotID]
	if !ok {
		return model.ChatbotItem{}, conversationservice.ErrNotFound
	}
	return chatbot, nil
}

func (m *memoryRepository) GetUser(ctx context.Context, organizationID, userID string) (model.UserItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[model.OrgScopedPK(organizationID, userID)]
	if !ok {
		return model.UserItem{}, conversationservice.ErrNotFound
	}
	return user, nil
}

func (m *memoryRepository) GetVisitor(ctx context.Context, organizationID, visitorID string) (model.VisitorItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	visitor, ok := m.visitors[model.VisitorPK(organizationID, visitorID)]
	if !ok {
		return model.VisitorItem{}, conversationservice.ErrNotFound
	}
	return visitor, nil
}

func (m *memoryRepository) PutVisitor(ctx context.Context, visitor model.VisitorItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visitors[visitor.PK] = visitor
	return nil
}

func (m *memoryRepository) CreateConversation(ctx context.Context, conversation model.ConversationItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[conversation.ConversationID] = conversation
	return nil
}

func (m *memoryRepository) GetConversation(ctx context.Context, organizationID, conversationID string) (model.ConversationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok || conversation.OrganizationID != organizationID {
		return model.ConversationItem{}, conversationservice.ErrNotFound
	}
	return conversation, nil
}

func (m *memoryRepository) GetConversationByID(ctx context.Context, conversationID string) (model.ConversationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return model.ConversationItem{}, conversationservice.ErrNotFound
	}
	return conversation, nil
}

func (m *memoryRepository) UpdateConversationActivity(ctx context.Context, organizationID, conversationID, updatedAt, lastMessageAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return conversationservice.ErrNotFound
	}
	conversation.UpdatedAt = updatedAt
	conversation.LastMessageAt = lastMessageAt
	m.conversations[conversationID] = conversation
	return nil
}

func (m *memoryRepository) EndConversation(ctx context.Context, organizationID, conversationID, endedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return conversationservice.ErrNotFound
	}
	conversation.Status = model.ConversationStatusEnded
	conversation.EndedAt = endedAt
	m.conversations[conversationID] = conversation
	return nil
}

func (m *memoryRepository) ListConversations(ctx context.Context, organizationID string, limit int) ([]model.ConversationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.ConversationItem, 0)
	for _, c := range m.conversations {
		if c.OrganizationID == organizationID {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].LastMessageAt > items[j].LastMessageAt
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memoryRepository) CreateMessage(ctx context.Context, message model.MessageItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[message.ConversationID] = append(m.messages[message.ConversationID], message)
	return nil
}

func (m *memoryRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]model.MessageItem(nil), m.messages[conversationID]...)
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items, nil
}

func (m *memoryRepository) ListKnowledge(ctx context.Context, chatbotID string) ([]model.KnowledgeItem, error) {
	return nil, nil
}

func useTestUserSecret(t *testing.T) {
	t.Helper()
	internaljwt.SetUserSecret("jwt-test-secret")
}

func setupConversationTestHandler(t *testing.T) (http.Handler, *conversationservice.Service, *memoryRepository) {
	t.Helper()

	repo := newMemoryRepository()
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	svc := conversationservice.NewWithRepository(repo, nil, func() time.Time { return now })

	useTestUserSecret(t)

	hub := websocket.NewHub()
	go hub.Run()
	handler := websocket.NewHandler(hub, svc)

	queueManager := queue.NewRequestQueueManager(10, 1)
	server := api.NewAPIServerWithRegistry(":0", queueManager, nil, handler, prometheus.NewRegistry())

	endpoints := NewConversationEndpoints(svc, handler, "/api")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/conversations", server.MakeHTTPHandleFunc(endpoints.PublicConversations))
	mux.HandleFunc("/api/public/conversations/", server.MakeHTTPHandleFunc(endpoints.PublicConversationActions))
	mux.HandleFunc("/api/conversations", server.MakeHTTPHandleFunc(endpoints.Conversations, middleware.ValidateUserJWT))
	mux.HandleFunc("/api/conversations/", server.MakeHTTPHandleFunc(endpoints.ConversationMessages, middleware.ValidateUserJWT))

	t.Cleanup(queueManager.Shutdown)

	return mux, svc, repo
}

func seedEndpointChatbot(repo *memoryRepository) {
	repo.chatbots["bot-1"] = model.ChatbotItem{
		ChatbotID:      "bot-1",
		OrganizationID: "org-1",
		Name:           "Support Bot",
	}
}

func TestStartConversationEndpoint(t *testing.T) {
	handler, _, repo := setupConversationTestHandler(t)
	seedEndpointChatbot(repo)

	payload := dto.StartConversationRequest{
		ChatbotID: "bot-1",
		VisitorID: "visitor-1",
		UTMSource: "google",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/public/conversations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp dto.StartConversationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("expected conversation id")
	}
	if resp.Status != string(model.ConversationStatusActive) {
		t.Fatalf("unexpected status %s", resp.Status)
	}
}

func TestStartConversationUnknownChatbotEndpoint(t *testing.T) {
	handler, _, _ := setupConversationTestHandler(t)

	body, _ := json.Marshal(dto.StartConversationRequest{ChatbotID: "missing"})
	req := httptest.NewRequest(http.MethodPost, "/api/public/conversations", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestPostVisitorMessageEndpoint(t *testing.T) {
	handler, svc, repo := setupConversationTestHandler(t)
	seedEndpointChatbot(repo)

	started, err := svc.StartConversation(context.Background(), conversationservice.StartConversationParams{
		ChatbotID: "bot-1",
		VisitorID: "visitor-1",
	})
	if err != nil {
		t.Fatalf("StartConversation error: %v", err)
	}

	body, _ := json.Marshal(dto.PostMessageRequest{Content: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/public/conversations/"+started.ConversationID+"/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp dto.PostMessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Human.Content != "hello" || resp.Human.Sender != model.SenderHuman {
		t.Fatalf("unexpected human message: %+v", resp.Human)
	}
	if resp.Bot.Content == "" || resp.Bot.Sender != model.SenderBot {
		t.Fatalf("unexpected bot message: %+v", resp.Bot)
	}
}

func TestEndConversationEndpoint(t *testing.T) {
	handler, svc, repo := setupConversationTestHandler(t)
	seedEndpointChatbot(repo)

	started, err := svc.StartConversation(context.Background(), conversationservice.StartConversationParams{
		ChatbotID: "bot-1",
	})
	if err != nil {
		t.Fatalf("StartConversation error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/public/conversations/"+started.ConversationID+"/end", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.EndConversationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(model.ConversationStatusEnded) {
		t.Fatalf("unexpected status %s", resp.Status)
	}
}

func TestListConversationsRequiresAuth(t *testing.T) {
	handler, _, _ := setupConversationTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestListConversationsEndpoint(t *testing.T) {
	handler, svc, repo := setupConversationTestHandler(t)
	seedEndpointChatbot(repo)
	repo.users[model.OrgScopedPK("org-1", "user-1")] = model.UserItem{
		PK:             model.OrgScopedPK("org-1", "user-1"),
		OrganizationID: "org-1",
		UserID:         "user-1",
		Email:          "agent@example.com",
	}

	if _, err := svc.StartConversation(context.Background(), conversationservice.StartConversationParams{
		ChatbotID: "bot-1",
	}); err != nil {
		t.Fatalf("StartConversation error: %v", err)
	}

	token, err := internaljwt.CreateToken(internaljwt.User{
		Id:             "user-1",
		Email:          "agent@example.com",
		OrganizationID: "org-1",
	}, internaljwt.RoleUser, 0)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.ListConversationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(resp.Conversations))
	}
}
