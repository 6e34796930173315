package organization

import (
	"context"
	"errors"
	"strings"
	"time"

	"clai-chat/internal/database"
	"clai-chat/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeForbidden  ErrorCode = "forbidden"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeInternal   ErrorCode = "internal_error"
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

type CreateChatbotParams struct {
	OrganizationID     string
	Name               string
	WelcomeMessage     string
	AllowedResponses   string
	ForbiddenResponses string
}

// WidgetSettingsUpdate carries partial widget settings; nil fields are left
// untouched.
type WidgetSettingsUpdate struct {
	WelcomeMessage    *string
	ThemeColor        *string
	Position          *string
	LeadCaptureFields *[]string
}

// WidgetConfig is what the embedded widget bootstraps itself from.
type WidgetConfig struct {
	ChatbotID         string
	OrganizationID    string
	Name              string
	WelcomeMessage    string
	ThemeColor        string
	Position          string
	LeadCaptureFields []string
}

const defaultWelcomeMessage = "Hi there! 👋 How can I help you today?"

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo: repo,
		now:  now,
	}
}

func (s *Service) GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return model.OrganizationItem{}, newError(ErrorCodeValidation, "organization_id is required", nil)
	}

	org, err := s.repo.GetOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.OrganizationItem{}, newError(ErrorCodeNotFound, "organization not found", err)
		}
		return model.OrganizationItem{}, newError(ErrorCodeInternal, "failed to fetch organization", err)
	}
	return org, nil
}

func (s *Service) CreateChatbot(ctx context.Context, params CreateChatbotParams) (model.ChatbotItem, error) {
	organizationID := strings.TrimSpace(params.OrganizationID)
	name := strings.TrimSpace(params.Name)
	if organizationID == "" {
		return model.ChatbotItem{}, newError(ErrorCodeValidation, "organization_id is required", nil)
	}
	if name == "" {
		return model.ChatbotItem{}, newError(ErrorCodeValidation, "chatbot name is required", nil)
	}

	if _, err := s.repo.GetOrganization(ctx, organizationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ChatbotItem{}, newError(ErrorCodeNotFound, "organization not found", err)
		}
		return model.ChatbotItem{}, newError(ErrorCodeInternal, "failed to fetch organization", err)
	}

	welcome := strings.TrimSpace(params.WelcomeMessage)
	if welcome == "" {
		welcome = defaultWelcomeMessage
	}

	now := s.now().UTC().Format(time.RFC3339)
	chatbot := model.ChatbotItem{
		ChatbotID:          uuid.NewString(),
		OrganizationID:     organizationID,
		Name:               name,
		WelcomeMessage:     welcome,
		AllowedResponses:   strings.TrimSpace(params.AllowedResponses),
		ForbiddenResponses: strings.TrimSpace(params.ForbiddenResponses),
		Widget: model.WidgetSettingsItem{
			ThemeColor: "#4f46e5",
			Position:   "bottom-right",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateChatbot(ctx, chatbot); err != nil {
		return model.ChatbotItem{}, newError(ErrorCodeInternal, "failed to create chatbot", err)
	}
	return chatbot, nil
}

func (s *Service) ListChatbots(ctx context.Context, organizationID string) ([]model.ChatbotItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, newError(ErrorCodeValidation, "organization_id is required", nil)
	}

	chatbots, err := s.repo.ListChatbots(ctx, organizationID)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list chatbots", err)
	}
	return chatbots, nil
}

// UpdateWidgetSettings applies a partial update to a chatbot's widget
// appearance. The chatbot must belong to the caller's organization.
func (s *Service) UpdateWidgetSettings(ctx context.Context, organizationID, chatbotID string, update WidgetSettingsUpdate) (model.ChatbotItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	chatbotID = strings.TrimSpace(chatbotID)
	if organizationID == "" || chatbotID == "" {
		return model.ChatbotItem{}, newError(ErrorCodeValidation, "organization_id and chatbot_id are required", nil)
	}

	chatbot, err := s.ownedChatbot(ctx, organizationID, chatbotID)
	if err != nil {
		return model.ChatbotItem{}, err
	}

	if update.WelcomeMessage != nil {
		chatbot.WelcomeMessage = strings.TrimSpace(*update.WelcomeMessage)
	}
	if update.ThemeColor != nil {
		chatbot.Widget.ThemeColor = strings.TrimSpace(*update.ThemeColor)
	}
	if update.Position != nil {
		position := strings.TrimSpace(*update.Position)
		switch position {
		case "bottom-right", "bottom-left":
		default:
			return model.ChatbotItem{}, newError(ErrorCodeValidation, "position must be bottom-right or bottom-left", nil)
		}
		chatbot.Widget.Position = position
	}
	if update.LeadCaptureFields != nil {
		chatbot.Widget.LeadCaptureFields = *update.LeadCaptureFields
	}
	chatbot.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.PutChatbot(ctx, chatbot); err != nil {
		return model.ChatbotItem{}, newError(ErrorCodeInternal, "failed to update chatbot", err)
	}
	return chatbot, nil
}

type AddKnowledgeParams struct {
	OrganizationID string
	ChatbotID      string
	Question       string
	Answer         string
}

// AddKnowledgeItem stores a curated question/answer pair for a chatbot. The
// conversation service consults these before falling back to the responder.
func (s *Service) AddKnowledgeItem(ctx context.Context, params AddKnowledgeParams) (model.KnowledgeItem, error) {
	organizationID := strings.TrimSpace(params.OrganizationID)
	chatbotID := strings.TrimSpace(params.ChatbotID)
	question := strings.TrimSpace(params.Question)
	answer := strings.TrimSpace(params.Answer)
	if organizationID == "" || chatbotID == "" {
		return model.KnowledgeItem{}, newError(ErrorCodeValidation, "organization_id and chatbot_id are required", nil)
	}
	if question == "" || answer == "" {
		return model.KnowledgeItem{}, newError(ErrorCodeValidation, "question and answer are required", nil)
	}

	if _, err := s.ownedChatbot(ctx, organizationID, chatbotID); err != nil {
		return model.KnowledgeItem{}, err
	}

	item := model.KnowledgeItem{
		ChatbotID:      chatbotID,
		KnowledgeID:    uuid.NewString(),
		OrganizationID: organizationID,
		Question:       question,
		Answer:         answer,
		CreatedAt:      s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.PutKnowledge(ctx, item); err != nil {
		return model.KnowledgeItem{}, newError(ErrorCodeInternal, "failed to store knowledge item", err)
	}
	return item, nil
}

func (s *Service) ListKnowledgeItems(ctx context.Context, organizationID, chatbotID string) ([]model.KnowledgeItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	chatbotID = strings.TrimSpace(chatbotID)
	if organizationID == "" || chatbotID == "" {
		return nil, newError(ErrorCodeValidation, "organization_id and chatbot_id are required", nil)
	}

	if _, err := s.ownedChatbot(ctx, organizationID, chatbotID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListKnowledge(ctx, chatbotID)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list knowledge items", err)
	}
	return items, nil
}

func (s *Service) ownedChatbot(ctx context.Context, organizationID, chatbotID string) (model.ChatbotItem, error) {
	chatbot, err := s.repo.GetChatbot(ctx, chatbotID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ChatbotItem{}, newError(ErrorCodeNotFound, "chatbot not found", err)
		}
		return model.ChatbotItem{}, newError(ErrorCodeInternal, "failed to fetch chatbot", err)
	}
	if chatbot.OrganizationID != organizationID {
		return model.ChatbotItem{}, newError(ErrorCodeForbidden, "chatbot belongs to another organization", nil)
	}
	return chatbot, nil
}

// GetWidgetConfig is the public bootstrap lookup used by embedded widgets.
func (s *Service) GetWidgetConfig(ctx context.Context, chatbotID string) (WidgetConfig, error) {
	chatbotID = strings.TrimSpace(chatbotID)
	if chatbotID == "" {
		return WidgetConfig{}, newError(ErrorCodeValidation, "chatbot_id is required", nil)
	}

	chatbot, err := s.repo.GetChatbot(ctx, chatbotID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return WidgetConfig{}, newError(ErrorCodeNotFound, "chatbot not found", err)
		}
		return WidgetConfig{}, newError(ErrorCodeInternal, "failed to fetch chatbot", err)
	}

	welcome := chatbot.WelcomeMessage
	if welcome == "" {
		welcome = defaultWelcomeMessage
	}

	return WidgetConfig{
		ChatbotID:         chatbot.ChatbotID,
		OrganizationID:    chatbot.OrganizationID,
		Name:              chatbot.Name,
		WelcomeMessage:    welcome,
		ThemeColor:        chatbot.Widget.ThemeColor,
		Position:          chatbot.Widget.Position,
		LeadCaptureFields: chatbot.Widget.LeadCaptureFields,
	}, nil
}
