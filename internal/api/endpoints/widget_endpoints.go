package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"clai-chat/internal/api"
	"clai-chat/internal/dto"
	"clai-chat/internal/model"
	organizationservice "clai-chat/internal/service/organization"
)

type WidgetEndpoints interface {
	PublicWidgetConfig(http.ResponseWriter, *http.Request) error
	ChatbotActions(http.ResponseWriter, *http.Request) error
}

type widgetEndpoints struct {
	service       *organizationservice.Service
	widgetsPrefix string
}

func NewWidgetEndpoints(service *organizationservice.Service, prefix string) WidgetEndpoints {
	return &widgetEndpoints{
		service:       service,
		widgetsPrefix: strings.TrimRight(prefix, "/") + "/chatbots/",
	}
}

// PublicWidgetConfig serves the bootstrap configuration for an embedded
// widget. Unauthenticated; the chatbot id is the only input.
func (h *widgetEndpoints) PublicWidgetConfig(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleWidgetConfig,
	})
}

// ChatbotActions serves the per-chatbot dashboard routes:
// PATCH {prefix}/chatbots/{id}/widget and GET/POST {prefix}/chatbots/{id}/knowledge.
func (h *widgetEndpoints) ChatbotActions(w http.ResponseWriter, r *http.Request) error {
	_, action, err := h.chatbotPath(r.URL.Path)
	if err != nil {
		return err
	}

	switch action {
	case "widget":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPatch: h.handleUpdateWidgetSettings,
		})
	case "knowledge":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodGet:  h.handleListKnowledge,
			http.MethodPost: h.handleAddKnowledge,
		})
	default:
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("unknown chatbot action in path %s", r.URL.Path),
		}
	}
}

func (h *widgetEndpoints) handleWidgetConfig(w http.ResponseWriter, r *http.Request) error {
	chatbotID := r.URL.Query().Get("chatbot_id")

	config, err := h.service.GetWidgetConfig(r.Context(), chatbotID)
	if err != nil {
		return organizationError(err)
	}

	return api.WriteJSON(w, http.StatusOK, dto.WidgetConfigResponse{
		ChatbotID:         config.ChatbotID,
		OrganizationID:    config.OrganizationID,
		Name:              config.Name,
		WelcomeMessage:    config.WelcomeMessage,
		ThemeColor:        config.ThemeColor,
		Position:          config.Position,
		LeadCaptureFields: config.LeadCaptureFields,
	})
}

func (h *widgetEndpoints) handleUpdateWidgetSettings(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	chatbotID, _, err := h.chatbotPath(r.URL.Path)
	if err != nil {
		return err
	}

	var req dto.UpdateWidgetSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode widget settings request: %w", err),
		}
	}

	update := organizationservice.WidgetSettingsUpdate{
		WelcomeMessage: req.WelcomeMessage,
		ThemeColor:     req.ThemeColor,
		Position:       req.Position,
	}
	if req.LeadCaptureFields != nil {
		update.LeadCaptureFields = &req.LeadCaptureFields
	}

	chatbot, err := h.service.UpdateWidgetSettings(r.Context(), auth.OrganizationID, chatbotID, update)
	if err != nil {
		return organizationError(err)
	}

	return api.WriteJSON(w, http.StatusOK, dto.WidgetConfigResponse{
		ChatbotID:         chatbot.ChatbotID,
		OrganizationID:    chatbot.OrganizationID,
		Name:              chatbot.Name,
		WelcomeMessage:    chatbot.WelcomeMessage,
		ThemeColor:        chatbot.Widget.ThemeColor,
		Position:          chatbot.Widget.Position,
		LeadCaptureFields: chatbot.Widget.LeadCaptureFields,
	})
}

func (h *widgetEndpoints) handleAddKnowledge(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	chatbotID, _, err := h.chatbotPath(r.URL.Path)
	if err != nil {
		return err
	}

	var req dto.CreateKnowledgeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode knowledge request: %w", err),
		}
	}

	item, err := h.service.AddKnowledgeItem(r.Context(), organizationservice.AddKnowledgeParams{
		OrganizationID: auth.OrganizationID,
		ChatbotID:      chatbotID,
		Question:       req.Question,
		Answer:         req.Answer,
	})
	if err != nil {
		return organizationError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, knowledgeItemResponse(item))
}

func (h *widgetEndpoints) handleListKnowledge(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	chatbotID, _, err := h.chatbotPath(r.URL.Path)
	if err != nil {
		return err
	}

	items, err := h.service.ListKnowledgeItems(r.Context(), auth.OrganizationID, chatbotID)
	if err != nil {
		return organizationError(err)
	}

	resp := dto.ListKnowledgeResponse{Items: make([]dto.KnowledgeItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, knowledgeItemResponse(item))
	}
	return api.WriteJSON(w, http.StatusOK, resp)
}

func knowledgeItemResponse(item model.KnowledgeItem) dto.KnowledgeItemResponse {
	return dto.KnowledgeItemResponse{
		KnowledgeID: item.KnowledgeID,
		ChatbotID:   item.ChatbotID,
		Question:    item.Question,
		Answer:      item.Answer,
		CreatedAt:   item.CreatedAt,
	}
}

// chatbotPath splits {prefix}/chatbots/{id}/{action} into its id and action.
func (h *widgetEndpoints) chatbotPath(urlPath string) (string, string, error) {
	rest := strings.Trim(strings.TrimPrefix(urlPath, h.widgetsPrefix), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Chatbot not found",
			ErrorLog:   fmt.Errorf("malformed chatbot path %s", urlPath),
		}
	}
	return parts[0], parts[1], nil
}

func organizationError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*organizationservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("organization service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case organizationservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case organizationservice.ErrorCodeForbidden:
		return &HTTPError{StatusCode: http.StatusForbidden, Message: svcErr.Message, ErrorLog: logErr}
	case organizationservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
