package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"clai-chat/internal/api"
	"clai-chat/internal/dto"
	"clai-chat/internal/model"
	conversationservice "clai-chat/internal/service/conversation"
	"clai-chat/internal/websocket"
)

type ConversationEndpoints interface {
	PublicConversations(http.ResponseWriter, *http.Request) error
	PublicConversationActions(http.ResponseWriter, *http.Request) error
	Conversations(http.ResponseWriter, *http.Request) error
	ConversationMessages(http.ResponseWriter, *http.Request) error
}

type ConversationPaths struct {
	PublicConversationsPath   string
	PublicConversationsPrefix string
	ConversationsPath         string
	ConversationsPrefix       string
}

type conversationEndpoints struct {
	service *conversationservice.Service
	handler *websocket.Handler
	paths   ConversationPaths
}

func NewConversationEndpoints(service *conversationservice.Service, handler *websocket.Handler, prefix string) ConversationEndpoints {
	base := strings.TrimRight(prefix, "/")
	return NewConversationEndpointsWithPaths(service, handler, ConversationPaths{
		PublicConversationsPath:   base + "/public/conversations",
		PublicConversationsPrefix: base + "/public/conversations/",
		ConversationsPath:         base + "/conversations",
		ConversationsPrefix:       base + "/conversations/",
	})
}

func NewConversationEndpointsWithPaths(service *conversationservice.Service, handler *websocket.Handler, paths ConversationPaths) ConversationEndpoints {
	return &conversationEndpoints{
		service: service,
		handler: handler,
		paths:   paths,
	}
}

func (h *conversationEndpoints) PublicConversations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleStartConversation,
	})
}

// PublicConversationActions serves /public/conversations/{id}/messages and
// /public/conversations/{id}/end.
func (h *conversationEndpoints) PublicConversationActions(w http.ResponseWriter, r *http.Request) error {
	trimmed := strings.TrimRight(r.URL.Path, "/")

	if strings.HasSuffix(trimmed, "/end") {
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPost: h.handleEndConversation,
		})
	}
	if strings.HasSuffix(trimmed, "/messages") {
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPost: h.handlePostVisitorMessage,
		})
	}

	return &HTTPError{
		StatusCode: http.StatusNotFound,
		Message:    "Not found",
		ErrorLog:   fmt.Errorf("unknown public conversation action: %s", r.URL.Path),
	}
}

func (h *conversationEndpoints) Conversations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListConversations,
	})
}

func (h *conversationEndpoints) ConversationMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListMessages,
	})
}

func (h *conversationEndpoints) handleStartConversation(w http.ResponseWriter, r *http.Request) error {
	var req dto.StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode start conversation request: %w", err),
		}
	}

	conversation, err := h.service.StartConversation(r.Context(), conversationservice.StartConversationParams{
		ChatbotID:   req.ChatbotID,
		VisitorID:   req.VisitorID,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		Referrer:    req.Referrer,
	})
	if err != nil {
		return h.serviceError(err)
	}

	if h.handler != nil {
		h.handler.CreateRoom(conversation.ConversationID)
	}

	return api.WriteJSON(w, http.StatusCreated, dto.StartConversationResponse{
		ConversationID: conversation.ConversationID,
		Status:         string(conversation.Status),
	})
}

func (h *conversationEndpoints) handlePostVisitorMessage(w http.ResponseWriter, r *http.Request) error {
	conversationID, err := h.conversationIDFromPath(r.URL.Path, h.paths.PublicConversationsPrefix, "/messages")
	if err != nil {
		return err
	}

	var req dto.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode post message request: %w", err),
		}
	}

	result, err := h.service.ProcessMessage(r.Context(), conversationID, req.Content)
	if err != nil {
		return h.serviceError(err)
	}

	if h.handler != nil {
		h.handler.Notify(websocket.Envelope{
			Event:          websocket.EventMessage,
			ConversationID: conversationID,
			Sender:         result.Bot.Sender,
			Content:        result.Bot.Content,
		})
	}

	return api.WriteJSON(w, http.StatusCreated, dto.PostMessageResponse{
		Human: toMessageResponse(result.Human),
		Bot:   toMessageResponse(result.Bot),
	})
}

func (h *conversationEndpoints) handleEndConversation(w http.ResponseWriter, r *http.Request) error {
	conversationID, err := h.conversationIDFromPath(r.URL.Path, h.paths.PublicConversationsPrefix, "/end")
	if err != nil {
		return err
	}

	conversation, err := h.service.EndConversation(r.Context(), conversationID)
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusOK, dto.EndConversationResponse{
		ConversationID: conversation.ConversationID,
		Status:         string(conversation.Status),
	})
}

func (h *conversationEndpoints) handleListConversations(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return h.serviceError(err)
	}

	limit := queryLimit(r, 50)
	result, err := h.service.ListConversations(r.Context(), identity, limit)
	if err != nil {
		return h.serviceError(err)
	}

	conversations := make([]dto.ConversationMetadata, 0, len(result.Conversations))
	for _, conversation := range result.Conversations {
		conversations = append(conversations, toConversationMetadata(conversation))
	}

	return api.WriteJSON(w, http.StatusOK, dto.ListConversationsResponse{Conversations: conversations})
}

func (h *conversationEndpoints) handleListMessages(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return h.serviceError(err)
	}

	conversationID, err := h.conversationIDFromPath(r.URL.Path, h.paths.ConversationsPrefix, "/messages")
	if err != nil {
		return err
	}

	limit := queryLimit(r, 100)
	result, err := h.service.ListMessages(r.Context(), identity, conversationID, limit)
	if err != nil {
		return h.serviceError(err)
	}

	messages := make([]dto.MessageResponse, 0, len(result.Messages))
	for _, message := range result.Messages {
		messages = append(messages, toMessageResponse(message))
	}

	return api.WriteJSON(w, http.StatusOK, dto.ListMessagesResponse{
		Conversation: toConversationMetadata(result.Conversation),
		Messages:     messages,
	})
}

func (h *conversationEndpoints) conversationIDFromPath(urlPath, prefix, suffix string) (string, error) {
	if !strings.HasPrefix(urlPath, prefix) {
		return "", &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("path %s outside prefix %s", urlPath, prefix),
		}
	}

	rest := strings.TrimPrefix(urlPath, prefix)
	rest = strings.TrimSuffix(strings.TrimRight(rest, "/"), suffix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Conversation not found",
			ErrorLog:   fmt.Errorf("conversation id missing in path %s", urlPath),
		}
	}
	return rest, nil
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func toConversationMetadata(conversation model.ConversationItem) dto.ConversationMetadata {
	return dto.ConversationMetadata{
		ConversationID: conversation.ConversationID,
		ChatbotID:      conversation.ChatbotID,
		VisitorID:      conversation.VisitorID,
		Status:         string(conversation.Status),
		UTMSource:      conversation.UTMSource,
		UTMMedium:      conversation.UTMMedium,
		UTMCampaign:    conversation.UTMCampaign,
		Referrer:       conversation.ReferrerURL,
		CreatedAt:      conversation.CreatedAt,
		UpdatedAt:      conversation.UpdatedAt,
		LastMessageAt:  conversation.LastMessageAt,
	}
}

func toMessageResponse(message model.MessageItem) dto.MessageResponse {
	return dto.MessageResponse{
		MessageID:      message.MessageID,
		ConversationID: message.ConversationID,
		Sender:         message.Sender,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}
}

func (h *conversationEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*conversationservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("conversation service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case conversationservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case conversationservice.ErrorCodeUnauthorized:
		return &HTTPError{StatusCode: http.StatusUnauthorized, Message: svcErr.Message, ErrorLog: logErr}
	case conversationservice.ErrorCodeForbidden:
		return &HTTPError{StatusCode: http.StatusForbidden, Message: svcErr.Message, ErrorLog: logErr}
	case conversationservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case conversationservice.ErrorCodeConflict:
		return &HTTPError{StatusCode: http.StatusConflict, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
