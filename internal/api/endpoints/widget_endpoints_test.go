package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"clai-chat/internal/api"
	"clai-chat/internal/api/middleware"
	"clai-chat/internal/dto"
	"clai-chat/internal/model"
	"clai-chat/internal/queue"
	organizationservice "clai-chat/internal/service/organization"

	"github.com/prometheus/client_golang/prometheus"
)

type memoryOrgRepository struct {
	mu            sync.Mutex
	organizations map[string]model.OrganizationItem
	chatbots      map[string]model.ChatbotItem
	knowledge     map[string][]model.KnowledgeItem
}

func newMemoryOrgRepository() *memoryOrgRepository {
	return &memoryOrgRepository{
		organizations: make(map[string]model.OrganizationItem),
		chatbots:      make(map[string]model.ChatbotItem),
		knowledge:     make(map[string][]model.KnowledgeItem),
	}
}

func (m *memoryOrgRepository) GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.organizations[organizationID]
	if !ok {
		return model.OrganizationItem{}, organizationservice.ErrNotFound
	}
	return org, nil
}

func (m *memoryOrgRepository) CreateChatbot(ctx context.Context, chatbot model.ChatbotItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatbots[chatbot.ChatbotID] = chatbot
	return nil
}

func (m *memoryOrgRepository) PutChatbot(ctx context.Context, chatbot model.ChatbotItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatbots[chatbot.ChatbotID] = chatbot
	return nil
}

func (m *memoryOrgRepository) GetChatbot(ctx context.Context, chatbotID string) (model.ChatbotItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chatbot, ok := m.chatbots[chatbotID]
	if !ok {
		return model.ChatbotItem{}, organizationservice.ErrNotFound
	}
	return chatbot, nil
}

func (m *memoryOrgRepository) ListChatbots(ctx context.Context, organizationID string) ([]model.ChatbotItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.ChatbotItem, 0)
	for _, chatbot := range m.chatbots {
		if chatbot.OrganizationID == organizationID {
			items = append(items, chatbot)
		}
	}
	return items, nil
}

func (m *memoryOrgRepository) PutKnowledge(ctx context.Context, item model.KnowledgeItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.knowledge[item.ChatbotID] = append(m.knowledge[item.ChatbotID], item)
	return nil
}

func (m *memoryOrgRepository) ListKnowledge(ctx context.Context, chatbotID string) ([]model.KnowledgeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.KnowledgeItem(nil), m.knowledge[chatbotID]...), nil
}

func setupWidgetTestHandler(t *testing.T) (http.Handler, *organizationservice.Service, *memoryOrgRepository) {
	t.Helper()

	repo := newMemoryOrgRepository()
	repo.organizations["org-1"] = model.OrganizationItem{OrganizationID: "org-1", Name: "Acme"}
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	svc := organizationservice.NewWithRepository(repo, func() time.Time { return now })

	useTestUserSecret(t)

	queueManager := queue.NewRequestQueueManager(10, 1)
	server := api.NewAPIServerWithRegistry(":0", queueManager, nil, nil, prometheus.NewRegistry())

	widgetEndpoints := NewWidgetEndpoints(svc, "/api")
	orgEndpoints := NewOrganizationEndpoints(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/widget/config", server.MakeHTTPHandleFunc(widgetEndpoints.PublicWidgetConfig))
	mux.HandleFunc("/api/chatbots", server.MakeHTTPHandleFunc(orgEndpoints.Chatbots, middleware.ValidateUserJWT))
	mux.HandleFunc("/api/chatbots/", server.MakeHTTPHandleFunc(widgetEndpoints.ChatbotActions, middleware.ValidateUserJWT))

	t.Cleanup(queueManager.Shutdown)

	return mux, svc, repo
}

func TestPublicWidgetConfigEndpoint(t *testing.T) {
	handler, svc, _ := setupWidgetTestHandler(t)

	chatbot, err := svc.CreateChatbot(context.Background(), organizationservice.CreateChatbotParams{
		OrganizationID: "org-1",
		Name:           "Support Bot",
		WelcomeMessage: "Welcome aboard!",
	})
	if err != nil {
		t.Fatalf("CreateChatbot error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/public/widget/config?chatbot_id="+chatbot.ChatbotID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.WidgetConfigResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.WelcomeMessage != "Welcome aboard!" {
		t.Fatalf("unexpected welcome message %q", resp.WelcomeMessage)
	}
	if resp.OrganizationID != "org-1" {
		t.Fatalf("unexpected organization %s", resp.OrganizationID)
	}
}

func TestPublicWidgetConfigUnknownChatbot(t *testing.T) {
	handler, _, _ := setupWidgetTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/public/widget/config?chatbot_id=missing", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestCreateChatbotEndpoint(t *testing.T) {
	handler, _, _ := setupWidgetTestHandler(t)

	body, _ := json.Marshal(dto.CreateChatbotRequest{Name: "Support Bot"})
	req := httptest.NewRequest(http.MethodPost, "/api/chatbots", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+dashboardToken(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp dto.ChatbotResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ChatbotID == "" || resp.OrganizationID != "org-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUpdateWidgetSettingsEndpoint(t *testing.T) {
	handler, svc, _ := setupWidgetTestHandler(t)

	chatbot, err := svc.CreateChatbot(context.Background(), organizationservice.CreateChatbotParams{
		OrganizationID: "org-1",
		Name:           "Support Bot",
	})
	if err != nil {
		t.Fatalf("CreateChatbot error: %v", err)
	}

	theme := "#123456"
	body, _ := json.Marshal(dto.UpdateWidgetSettingsRequest{ThemeColor: &theme})
	req := httptest.NewRequest(http.MethodPatch, "/api/chatbots/"+chatbot.ChatbotID+"/widget", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+dashboardToken(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.WidgetConfigResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ThemeColor != "#123456" {
		t.Fatalf("unexpected theme %s", resp.ThemeColor)
	}
}

func TestKnowledgeEndpoints(t *testing.T) {
	handler, svc, _ := setupWidgetTestHandler(t)

	chatbot, err := svc.CreateChatbot(context.Background(), organizationservice.CreateChatbotParams{
		OrganizationID: "org-1",
		Name:           "Support Bot",
	})
	if err != nil {
		t.Fatalf("CreateChatbot error: %v", err)
	}

	body, _ := json.Marshal(dto.CreateKnowledgeItemRequest{
		Question: "What are your opening hours?",
		Answer:   "We are open 9am to 5pm on weekdays.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/chatbots/"+chatbot.ChatbotID+"/knowledge", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+dashboardToken(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var created dto.KnowledgeItemResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.KnowledgeID == "" || created.ChatbotID != chatbot.ChatbotID {
		t.Fatalf("unexpected response: %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chatbots/"+chatbot.ChatbotID+"/knowledge", nil)
	req.Header.Set("Authorization", "Bearer "+dashboardToken(t))
	rec = httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var list dto.ListKnowledgeResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Answer != "We are open 9am to 5pm on weekdays." {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestKnowledgeEndpointRequiresAuth(t *testing.T) {
	handler, _, _ := setupWidgetTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chatbots/bot-1/knowledge", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
