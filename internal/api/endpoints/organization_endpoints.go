package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"clai-chat/internal/api"
	"clai-chat/internal/dto"
	organizationservice "clai-chat/internal/service/organization"
)

type OrganizationEndpoints interface {
	Chatbots(http.ResponseWriter, *http.Request) error
}

type organizationEndpoints struct {
	service *organizationservice.Service
}

func NewOrganizationEndpoints(service *organizationservice.Service) OrganizationEndpoints {
	return &organizationEndpoints{service: service}
}

func (h *organizationEndpoints) Chatbots(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleListChatbots,
		http.MethodPost: h.handleCreateChatbot,
	})
}

func (h *organizationEndpoints) handleListChatbots(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	chatbots, err := h.service.ListChatbots(r.Context(), auth.OrganizationID)
	if err != nil {
		return organizationError(err)
	}

	out := make([]dto.ChatbotResponse, 0, len(chatbots))
	for _, chatbot := range chatbots {
		out = append(out, dto.ChatbotResponse{
			ChatbotID:      chatbot.ChatbotID,
			OrganizationID: chatbot.OrganizationID,
			Name:           chatbot.Name,
			CreatedAt:      chatbot.CreatedAt,
		})
	}

	return api.WriteJSON(w, http.StatusOK, dto.ListChatbotsResponse{Chatbots: out})
}

func (h *organizationEndpoints) handleCreateChatbot(w http.ResponseWriter, r *http.Request) error {
	auth, err := authFromRequest(r)
	if err != nil {
		return err
	}

	var req dto.CreateChatbotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode create chatbot request: %w", err),
		}
	}

	chatbot, err := h.service.CreateChatbot(r.Context(), organizationservice.CreateChatbotParams{
		OrganizationID:     auth.OrganizationID,
		Name:               req.Name,
		WelcomeMessage:     req.WelcomeMessage,
		AllowedResponses:   req.AllowedResponses,
		ForbiddenResponses: req.ForbiddenResponses,
	})
	if err != nil {
		return organizationError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, dto.ChatbotResponse{
		ChatbotID:      chatbot.ChatbotID,
		OrganizationID: chatbot.OrganizationID,
		Name:           chatbot.Name,
		CreatedAt:      chatbot.CreatedAt,
	})
}
