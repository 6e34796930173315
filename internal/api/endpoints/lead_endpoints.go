package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"clai-chat/internal/api"
	"clai-chat/internal/dto"
	"clai-chat/internal/model"
	leadservice "clai-chat/internal/service/lead"
)

type LeadEndpoints interface {
	PublicLeads(http.ResponseWriter, *http.Request) error
	Leads(http.ResponseWriter, *http.Request) error
	LeadActions(http.ResponseWriter, *http.Request) error
}

type LeadPaths struct {
	PublicLeadsPath string
	LeadsPath       string
	LeadsPrefix     string
}

type leadEndpoints struct {
	service *leadservice.Service
	paths   LeadPaths
}

func NewLeadEndpoints(service *leadservice.Service, prefix string) LeadEndpoints {
	base := strings.TrimRight(prefix, "/")
	return &leadEndpoints{
		service: service,
		paths: LeadPaths{
			PublicLeadsPath: base + "/public/leads",
			LeadsPath:       base + "/leads",
			LeadsPrefix:     base + "/leads/",
		},
	}
}

func (h *leadEndpoints) PublicLeads(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleCreateLead,
	})
}

func (h *leadEndpoints) Leads(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListLeads,
	})
}

func (h *leadEndpoints) LeadActions(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:   h.handleGetLead,
		http.MethodPatch: h.handleUpdateLeadStatus,
	})
}

func (h *leadEndpoints) handleCreateLead(w http.ResponseWriter, r *http.Request) error {
	var req dto.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode create lead request: %w", err),
		}
	}

	lead, err := h.service.CreateLead(r.Context(), leadservice.CreateLeadParams{
		OrganizationID: req.OrganizationID,
		ConversationID: req.ConversationID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Message:        req.Message,
		UTMSource:      req.UTMSource,
		UTMMedium:      req.UTMMedium,
		UTMCampaign:    req.UTMCampaign,
	})
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, dto.CreateLeadResponse{
		LeadID: lead.LeadID,
		Status: string(lead.Status),
	})
}

func (h *leadEndpoints) handleListLeads(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	status := model.LeadStatus(r.URL.Query().Get("status"))
	limit := queryLimit(r, 50)

	leads, err := h.service.ListLeads(r.Context(), auth.OrganizationID, status, limit)
	if err != nil {
		return h.serviceError(err)
	}

	out := make([]dto.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, toLeadResponse(lead))
	}

	return api.WriteJSON(w, http.StatusOK, dto.ListLeadsResponse{Leads: out})
}

func (h *leadEndpoints) handleGetLead(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	leadID, err := h.leadIDFromPath(r.URL.Path)
	if err != nil {
		return err
	}

	lead, err := h.service.GetLead(r.Context(), auth.OrganizationID, leadID)
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusOK, toLeadResponse(lead))
}

func (h *leadEndpoints) handleUpdateLeadStatus(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	leadID, err := h.leadIDFromPath(r.URL.Path)
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode update lead request: %w", err),
		}
	}

	lead, err := h.service.UpdateLeadStatus(r.Context(), auth.OrganizationID, leadID, model.LeadStatus(req.Status))
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusOK, toLeadResponse(lead))
}

func (h *leadEndpoints) leadIDFromPath(urlPath string) (string, error) {
	rest := strings.Trim(strings.TrimPrefix(urlPath, h.paths.LeadsPrefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Lead not found",
			ErrorLog:   fmt.Errorf("lead id missing in path %s", urlPath),
		}
	}
	return rest, nil
}

func toLeadResponse(lead model.LeadItem) dto.LeadResponse {
	return dto.LeadResponse{
		LeadID:         lead.LeadID,
		OrganizationID: lead.OrganizationID,
		ConversationID: lead.ConversationID,
		Name:           lead.Name,
		Email:          lead.Email,
		Phone:          lead.Phone,
		Company:        lead.Company,
		Message:        lead.Message,
		UTMSource:      lead.UTMSource,
		UTMMedium:      lead.UTMMedium,
		UTMCampaign:    lead.UTMCampaign,
		Status:         string(lead.Status),
		CreatedAt:      lead.CreatedAt,
	}
}

func (h *leadEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*leadservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("lead service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case leadservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case leadservice.ErrorCodeUnauthorized:
		return &HTTPError{StatusCode: http.StatusUnauthorized, Message: svcErr.Message, ErrorLog: logErr}
	case leadservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
