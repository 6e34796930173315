package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"clai-chat/internal/database"
	internaljwt "clai-chat/internal/jwt"
	"clai-chat/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
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

type RegisterParams struct {
	Email            string
	Password         string
	Name             string
	OrganizationName string
}

type Session struct {
	AccessToken    string
	RefreshToken   string
	UserID         string
	OrganizationID string
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

// Register creates a new organization with its first user and signs them in.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	password := params.Password
	orgName := strings.TrimSpace(params.OrganizationName)

	if email == "" || !strings.Contains(email, "@") {
		return Session{}, newError(ErrorCodeValidation, "a valid email is required", nil)
	}
	if len(password) < 8 {
		return Session{}, newError(ErrorCodeValidation, "password must be at least 8 characters", nil)
	}
	if orgName == "" {
		return Session{}, newError(ErrorCodeValidation, "organization_name is required", nil)
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return Session{}, newError(ErrorCodeConflict, "email is already registered", nil)
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, newError(ErrorCodeInternal, "failed to check existing user", err)
	}

	hash, err := internaljwt.HashPassword(password)
	if err != nil {
		return Session{}, newError(ErrorCodeInternal, "failed to hash password", err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	organizationID := uuid.NewString()
	userID := uuid.NewString()

	org := model.OrganizationItem{
		OrganizationID: organizationID,
		Name:           orgName,
		Plan:           "free",
		CreatedAt:      now,
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return Session{}, newError(ErrorCodeInternal, "failed to create organization", err)
	}

	user := model.UserItem{
		PK:             model.OrgScopedPK(organizationID, userID),
		OrganizationID: organizationID,
		UserID:         userID,
		Email:          email,
		Name:           strings.TrimSpace(params.Name),
		Role:           "owner",
		PasswordHash:   hash,
		CreatedAt:      now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return Session{}, newError(ErrorCodeInternal, "failed to create user", err)
	}

	return s.issueSession(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, newError(ErrorCodeValidation, "email and password are required", nil)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, newError(ErrorCodeUnauthorized, "invalid credentials", nil)
		}
		return Session{}, newError(ErrorCodeInternal, "failed to fetch user", err)
	}

	if !internaljwt.ValidatePassword(user.PasswordHash, password) {
		return Session{}, newError(ErrorCodeUnauthorized, "invalid credentials", nil)
	}

	return s.issueSession(user)
}

// Refresh exchanges a refresh token for a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, newError(ErrorCodeValidation, "refresh_token is required", nil)
	}

	accessToken, err := internaljwt.RefreshToken(refreshToken, internaljwt.RoleUser)
	if err != nil {
		return Session{}, newError(ErrorCodeUnauthorized, "invalid refresh token", err)
	}

	return Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *Service) issueSession(user model.UserItem) (Session, error) {
	tokens, err := internaljwt.CreateTokenWithRefresh(internaljwt.User{
		Id:             user.UserID,
		Email:          user.Email,
		OrganizationID: user.OrganizationID,
	}, internaljwt.RoleUser, 0)
	if err != nil {
		return Session{}, newError(ErrorCodeInternal, "failed to issue tokens", err)
	}

	return Session{
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		UserID:         user.UserID,
		OrganizationID: user.OrganizationID,
	}, nil
}
