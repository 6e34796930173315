package lead

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
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeNotFound     ErrorCode = "not_found"
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

type CreateLeadParams struct {
	OrganizationID string
	ConversationID string
	Name           string
	Email          string
	Phone          string
	Company        string
	Message        string
	UTMSource      string
	UTMMedium      string
	UTMCampaign    string
}

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

// CreateLead captures visitor contact details submitted through the widget
// lead form. The endpoint is public, so only the organization scope is
// required; everything else is best-effort form data.
func (s *Service) CreateLead(ctx context.Context, params CreateLeadParams) (model.LeadItem, error) {
	organizationID := strings.TrimSpace(params.OrganizationID)
	if organizationID == "" {
		return model.LeadItem{}, newError(ErrorCodeValidation, "organization_id is required", nil)
	}

	name := strings.TrimSpace(params.Name)
	email := strings.TrimSpace(params.Email)
	if name == "" && email == "" {
		return model.LeadItem{}, newError(ErrorCodeValidation, "name or email is required", nil)
	}
	if email != "" && !strings.Contains(email, "@") {
		return model.LeadItem{}, newError(ErrorCodeValidation, "invalid email address", nil)
	}

	now := s.now().UTC()
	leadID := uuid.NewString()

	lead := model.LeadItem{
		PK:             model.LeadPK(organizationID, leadID),
		LeadID:         leadID,
		OrganizationID: organizationID,
		ConversationID: strings.TrimSpace(params.ConversationID),
		Name:           name,
		Email:          email,
		Phone:          strings.TrimSpace(params.Phone),
		Company:        strings.TrimSpace(params.Company),
		Message:        strings.TrimSpace(params.Message),
		UTMSource:      strings.TrimSpace(params.UTMSource),
		UTMMedium:      strings.TrimSpace(params.UTMMedium),
		UTMCampaign:    strings.TrimSpace(params.UTMCampaign),
		Status:         model.LeadStatusNew,
		CreatedAt:      now.Format(time.RFC3339),
	}

	if err := s.repo.CreateLead(ctx, lead); err != nil {
		return model.LeadItem{}, newError(ErrorCodeInternal, "failed to store lead", err)
	}

	return lead, nil
}

func (s *Service) GetLead(ctx context.Context, organizationID, leadID string) (model.LeadItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	leadID = strings.TrimSpace(leadID)
	if organizationID == "" || leadID == "" {
		return model.LeadItem{}, newError(ErrorCodeValidation, "organization_id and lead_id are required", nil)
	}

	lead, err := s.repo.GetLead(ctx, organizationID, leadID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.LeadItem{}, newError(ErrorCodeNotFound, "lead not found", err)
		}
		return model.LeadItem{}, newError(ErrorCodeInternal, "failed to fetch lead", err)
	}
	return lead, nil
}

// ListLeads returns the organization's leads newest first, optionally
// filtered by status.
func (s *Service) ListLeads(ctx context.Context, organizationID string, status model.LeadStatus, limit int) ([]model.LeadItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, newError(ErrorCodeUnauthorized, "organization scope is required", nil)
	}
	if status != "" {
		switch status {
		case model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusQualified:
		default:
			return nil, newError(ErrorCodeValidation, "invalid lead status", nil)
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	leads, err := s.repo.ListLeads(ctx, organizationID, limit)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list leads", err)
	}

	if status != "" {
		filtered := leads[:0]
		for _, lead := range leads {
			if lead.Status == status {
				filtered = append(filtered, lead)
			}
		}
		leads = filtered
	}

	return leads, nil
}

// UpdateLeadStatus moves a lead through the new/contacted/qualified pipeline.
func (s *Service) UpdateLeadStatus(ctx context.Context, organizationID, leadID string, status model.LeadStatus) (model.LeadItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	leadID = strings.TrimSpace(leadID)
	if organizationID == "" || leadID == "" {
		return model.LeadItem{}, newError(ErrorCodeValidation, "organization_id and lead_id are required", nil)
	}
	switch status {
	case model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusQualified:
	default:
		return model.LeadItem{}, newError(ErrorCodeValidation, "invalid lead status", nil)
	}

	lead, err := s.repo.UpdateLeadStatus(ctx, organizationID, leadID, status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.LeadItem{}, newError(ErrorCodeNotFound, "lead not found", err)
		}
		return model.LeadItem{}, newError(ErrorCodeInternal, "failed to update lead", err)
	}
	return lead, nil
}
