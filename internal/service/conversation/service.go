package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"clai-chat/internal/bot"
	"clai-chat/internal/database"
	internaljwt "clai-chat/internal/jwt"
	"clai-chat/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeForbidden    ErrorCode = "forbidden"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeConflict     ErrorCode = "conflict"
	ErrorCodeInternal     ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

type Identity struct {
	UserID         string
	OrganizationID string
	Email          string
}

type StartConversationParams struct {
	ChatbotID   string
	VisitorID   string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	Referrer    string
}

type MessageResult struct {
	Conversation model.ConversationItem
	Human        model.MessageItem
	Bot          model.MessageItem
}

type ListConversationsResult struct {
	Conversations []model.ConversationItem
}

type ListMessagesResult struct {
	Conversation model.ConversationItem
	Messages     []model.MessageItem
}

type Service struct {
	repo      Repository
	responder bot.Responder
	now       func() time.Time
}

func New(db *database.Database, responder bot.Responder) *Service {
	return &Service{
		repo:      NewDynamoRepository(db),
		responder: responder,
		now:       time.Now,
	}
}

func NewWithRepository(repo Repository, responder bot.Responder, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if responder == nil {
		responder = bot.NewRuleResponder()
	}
	return &Service{
		repo:      repo,
		responder: responder,
		now:       now,
	}
}

// StartConversation opens a conversation for a visitor against a chatbot.
// The visitor identity is client-generated; an empty one gets replaced so a
// conversation always has an owner.
func (s *Service) StartConversation(ctx context.Context, params StartConversationParams) (model.ConversationItem, error) {
	chatbotID := strings.TrimSpace(params.ChatbotID)
	if chatbotID == "" {
		return model.ConversationItem{}, newError(ErrorCodeValidation, "chatbot_id is required", nil)
	}

	chatbot, err := s.repo.GetChatbot(ctx, chatbotID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ConversationItem{}, newError(ErrorCodeNotFound, "chatbot not found", err)
		}
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to load chatbot", err)
	}

	visitorID := strings.TrimSpace(params.VisitorID)
	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)

	visitor := model.VisitorItem{
		PK:             model.VisitorPK(chatbot.OrganizationID, visitorID),
		OrganizationID: chatbot.OrganizationID,
		VisitorID:      visitorID,
		FirstSeenAt:    nowStr,
		LastSeenAt:     nowStr,
	}
	if existing, err := s.repo.GetVisitor(ctx, chatbot.OrganizationID, visitorID); err == nil {
		visitor.FirstSeenAt = existing.FirstSeenAt
	} else if !errors.Is(err, ErrNotFound) {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to lookup visitor", err)
	}
	if err := s.repo.PutVisitor(ctx, visitor); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to persist visitor", err)
	}

	conversationID := uuid.NewString()
	conversation := model.ConversationItem{
		PK:             model.ConversationPK(chatbot.OrganizationID, conversationID),
		ConversationID: conversationID,
		OrganizationID: chatbot.OrganizationID,
		ChatbotID:      chatbot.ChatbotID,
		VisitorID:      visitorID,
		Status:         model.ConversationStatusActive,
		UTMSource:      strings.TrimSpace(params.UTMSource),
		UTMMedium:      strings.TrimSpace(params.UTMMedium),
		UTMCampaign:    strings.TrimSpace(params.UTMCampaign),
		ReferrerURL:    strings.TrimSpace(params.Referrer),
		CreatedAt:      nowStr,
		UpdatedAt:      nowStr,
		LastMessageAt:  nowStr,
	}

	if err := s.repo.CreateConversation(ctx, conversation); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to create conversation", err)
	}

	return conversation, nil
}

// ProcessMessage stores the visitor message, asks the responder for a reply,
// stores that too, and returns both.
func (s *Service) ProcessMessage(ctx context.Context, conversationID, content string) (MessageResult, error) {
	conversationID = strings.TrimSpace(conversationID)
	content = strings.TrimSpace(content)

	if conversationID == "" {
		return MessageResult{}, newError(ErrorCodeValidation, "conversation_id is required", nil)
	}
	if content == "" {
		return MessageResult{}, newError(ErrorCodeValidation, "message content is required", nil)
	}

	conversation, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MessageResult{}, newError(ErrorCodeNotFound, "conversation not found", err)
		}
		return MessageResult{}, newError(ErrorCodeInternal, "failed to fetch conversation", err)
	}

	if conversation.Status != model.ConversationStatusActive {
		return MessageResult{}, newError(ErrorCodeConflict, "conversation is not active", nil)
	}

	history, err := s.repo.ListMessages(ctx, conversation.ConversationID, 50)
	if err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to load history", err)
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)

	humanID := uuid.NewString()
	human := model.MessageItem{
		PK:             model.MessagePK(conversation.ConversationID, humanID),
		OrganizationID: conversation.OrganizationID,
		ConversationID: conversation.ConversationID,
		MessageID:      humanID,
		Sender:         model.SenderHuman,
		Content:        content,
		CreatedAt:      nowStr,
	}
	if err := s.repo.CreateMessage(ctx, human); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to store message", err)
	}

	profile := bot.Profile{Name: conversation.ChatbotID}
	if chatbot, err := s.repo.GetChatbot(ctx, conversation.ChatbotID); err == nil {
		profile = bot.Profile{
			Name:               chatbot.Name,
			AllowedResponses:   chatbot.AllowedResponses,
			ForbiddenResponses: chatbot.ForbiddenResponses,
		}
	}

	turns := make([]bot.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, bot.Turn{Sender: msg.Sender, Content: msg.Content})
	}

	reply, answered := s.knowledgeReply(ctx, conversation.ChatbotID, content)
	if !answered {
		reply, err = s.responder.Respond(ctx, profile, turns, content)
		if err != nil {
			return MessageResult{}, newError(ErrorCodeInternal, "failed to generate reply", err)
		}
	}

	botID := uuid.NewString()
	botMessage := model.MessageItem{
		PK:             model.MessagePK(conversation.ConversationID, botID),
		OrganizationID: conversation.OrganizationID,
		ConversationID: conversation.ConversationID,
		MessageID:      botID,
		Sender:         model.SenderBot,
		Content:        reply,
		CreatedAt:      nowStr,
	}
	if err := s.repo.CreateMessage(ctx, botMessage); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to store reply", err)
	}

	if err := s.repo.UpdateConversationActivity(ctx, conversation.OrganizationID, conversation.ConversationID, nowStr, nowStr); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to update conversation", err)
	}

	conversation.UpdatedAt = nowStr
	conversation.LastMessageAt = nowStr

	return MessageResult{
		Conversation: conversation,
		Human:        human,
		Bot:          botMessage,
	}, nil
}

// knowledgeReply answers from the chatbot's curated question/answer pairs. A
// lookup failure just falls through to the responder.
func (s *Service) knowledgeReply(ctx context.Context, chatbotID, content string) (string, bool) {
	items, err := s.repo.ListKnowledge(ctx, chatbotID)
	if err != nil || len(items) == 0 {
		return "", false
	}

	entries := make([]bot.KnowledgeEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, bot.KnowledgeEntry{Question: item.Question, Answer: item.Answer})
	}
	return bot.MatchKnowledge(entries, content)
}

// EndConversation marks the conversation ended. Ending an already ended
// conversation is a no-op; the widget fires this on page close and may race
// itself.
func (s *Service) EndConversation(ctx context.Context, conversationID string) (model.ConversationItem, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return model.ConversationItem{}, newError(ErrorCodeValidation, "conversation_id is required", nil)
	}

	conversation, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ConversationItem{}, newError(ErrorCodeNotFound, "conversation not found", err)
		}
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to fetch conversation", err)
	}

	if conversation.Status == model.ConversationStatusEnded {
		return conversation, nil
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)

	if err := s.repo.EndConversation(ctx, conversation.OrganizationID, conversation.ConversationID, nowStr); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to end conversation", err)
	}

	conversation.Status = model.ConversationStatusEnded
	conversation.EndedAt = nowStr
	conversation.UpdatedAt = nowStr

	return conversation, nil
}

func (s *Service) ListConversations(ctx context.Context, identity Identity, limit int) (ListConversationsResult, error) {
	if identity.UserID == "" || identity.OrganizationID == "" {
		return ListConversationsResult{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	if _, err := s.repo.GetUser(ctx, identity.OrganizationID, identity.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ListConversationsResult{}, newError(ErrorCodeUnauthorized, "user not found", err)
		}
		return ListConversationsResult{}, newError(ErrorCodeInternal, "failed to verify user", err)
	}

	conversations, err := s.repo.ListConversations(ctx, identity.OrganizationID, limit)
	if err != nil {
		return ListConversationsResult{}, newError(ErrorCodeInternal, "failed to list conversations", err)
	}

	return ListConversationsResult{Conversations: conversations}, nil
}

func (s *Service) ListMessages(ctx context.Context, identity Identity, conversationID string, limit int) (ListMessagesResult, error) {
	if identity.UserID == "" || identity.OrganizationID == "" {
		return ListMessagesResult{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}

	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return ListMessagesResult{}, newError(ErrorCodeValidation, "conversation_id is required", nil)
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}

	conversation, err := s.repo.GetConversation(ctx, identity.OrganizationID, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ListMessagesResult{}, newError(ErrorCodeNotFound, "conversation not found", err)
		}
		return ListMessagesResult{}, newError(ErrorCodeInternal, "failed to fetch conversation", err)
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return ListMessagesResult{}, newError(ErrorCodeInternal, "failed to list messages", err)
	}

	return ListMessagesResult{
		Conversation: conversation,
		Messages:     messages,
	}, nil
}

func (s *Service) IdentityFromAuthorizationHeader(header string) (Identity, error) {
	authHeader := strings.TrimSpace(header)
	if authHeader == "" {
		return Identity{}, newError(ErrorCodeUnauthorized, "missing authorization header", nil)
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Identity{}, newError(ErrorCodeUnauthorized, "invalid authorization header format", nil)
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return identityFromToken(token)
}

func identityFromToken(token string) (Identity, error) {
	if token == "" {
		return Identity{}, newError(ErrorCodeUnauthorized, "empty token", nil)
	}

	claims, err := internaljwt.ParseToken(token, internaljwt.RoleUser)
	if err != nil {
		return Identity{}, newError(ErrorCodeUnauthorized, "invalid token", err)
	}

	userID, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	organizationID, _ := claims["organizationId"].(string)

	if userID == "" || organizationID == "" {
		return Identity{}, newError(ErrorCodeUnauthorized, "token missing identifiers", nil)
	}

	return Identity{
		UserID:         userID,
		OrganizationID: organizationID,
		Email:          email,
	}, nil
}
