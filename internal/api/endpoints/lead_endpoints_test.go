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
	leadservice "clai-chat/internal/service/lead"

	"github.com/prometheus/client_golang/prometheus"
)

type memoryLeadRepository struct {
	mu    sync.Mutex
	leads map[string]model.LeadItem
}

func newMemoryLeadRepository() *memoryLeadRepository {
	return &memoryLeadRepository{leads: make(map[string]model.LeadItem)}
}

func (m *memoryLeadRepository) CreateLead(ctx context.Context, lead model.LeadItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[lead.PK] = lead
	return nil
}

func (m *memoryLeadRepository) GetLead(ctx context.Context, organizationID, leadID string) (model.LeadItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[model.LeadPK(organizationID, leadID)]
	if !ok {
		return model.LeadItem{}, leadservice.ErrNotFound
	}
	return lead, nil
}

func (m *memoryLeadRepository) ListLeads(ctx context.Context, organizationID string, limit int) ([]model.LeadItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.LeadItem, 0)
	for _, lead := range m.leads {
		if lead.OrganizationID == organizationID {
			items = append(items, lead)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memoryLeadRepository) UpdateLeadStatus(ctx context.Context, organizationID, leadID string, status model.LeadStatus) (model.LeadItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := model.LeadPK(organizationID, leadID)
	lead, ok := m.leads[pk]
	if !ok {
		return model.LeadItem{}, leadservice.ErrNotFound
	}
	lead.Status = status
	m.leads[pk] = lead
	return lead, nil
}

func setupLeadTestHandler(t *testing.T) (http.Handler, *leadservice.Service) {
	t.Helper()

	repo := newMemoryLeadRepository()
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	svc := leadservice.NewWithRepository(repo, func() time.Time { return now })

	useTestUserSecret(t)

	queueManager := queue.NewRequestQueueManager(10, 1)
	server := api.NewAPIServerWithRegistry(":0", queueManager, nil, nil, prometheus.NewRegistry())

	endpoints := NewLeadEndpoints(svc, "/api")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/leads", server.MakeHTTPHandleFunc(endpoints.PublicLeads))
	mux.HandleFunc("/api/leads", server.MakeHTTPHandleFunc(endpoints.Leads, middleware.ValidateUserJWT))
	mux.HandleFunc("/api/leads/", server.MakeHTTPHandleFunc(endpoints.LeadActions, middleware.ValidateUserJWT))

	t.Cleanup(queueManager.Shutdown)

	return mux, svc
}

func dashboardToken(t *testing.T) string {
	t.Helper()
	token, err := internaljwt.CreateToken(internaljwt.User{
		Id:             "user-1",
		Email:          "agent@example.com",
		OrganizationID: "org-1",
	}, internaljwt.RoleUser, 0)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}
	return token
}

func TestCreateLeadEndpoint(t *testing.T) {
	handler, _ := setupLeadTestHandler(t)

	payload := dto.CreateLeadRequest{
		OrganizationID: "org-1",
		Name:           "Jamie Doe",
		Email:          "jamie@example.com",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/public/leads", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp dto.CreateLeadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.LeadID == "" || resp.Status != string(model.LeadStatusNew) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateLeadEndpointValidation(t *testing.T) {
	handler, _ := setupLeadTestHandler(t)

	body, _ := json.Marshal(dto.CreateLeadRequest{Name: "No Org"})
	req := httptest.NewRequest(http.MethodPost, "/api/public/leads", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestListLeadsEndpoint(t *testing.T) {
	handler, svc := setupLeadTestHandler(t)

	if _, err := svc.CreateLead(context.Background(), leadservice.CreateLeadParams{
		OrganizationID: "org-1",
		Name:           "Jamie",
	}); err != nil {
		t.Fatalf("CreateLead error: %v", err)
	}
	if _, err := svc.CreateLead(context.Background(), leadservice.CreateLeadParams{
		OrganizationID: "org-2",
		Name:           "Other",
	}); err != nil {
		t.Fatalf("CreateLead error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Authorization", "Bearer "+dashboardToken(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.ListLeadsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Leads) != 1 || resp.Leads[0].Name != "Jamie" {
		t.Fatalf("unexpected leads: %+v", resp.Leads)
	}
}

func TestUpdateLeadStatusEndpoint(t *testing.T) {
	handler, svc := setupLeadTestHandler(t)

	lead, err := svc.CreateLead(context.Background(), leadservice.CreateLeadParams{
		OrganizationID: "org-1",
		Name:           "Jamie",
	})
	if err != nil {
		t.Fatalf("CreateLead error: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"status": "contacted"})
	req := httptest.NewRequest(http.MethodPatch, "/api/leads/"+lead.LeadID, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+dashboardToken(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.LeadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(model.LeadStatusContacted) {
		t.Fatalf("unexpected status %s", resp.Status)
	}
}
