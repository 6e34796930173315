package endpoints

import (
	"fmt"
	"net/http"
	"strings"

	internaljwt "clai-chat/internal/jwt"
)

type authContext struct {
	UserID         string
	OrganizationID string
	Email          string
}

// authFromRequest extracts the caller identity from the Authorization header.
// Routes behind ValidateUserJWT already rejected bad tokens; this recovers the
// claims for scoping.
func authFromRequest(r *http.Request) (authContext, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return authContext{}, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("missing bearer token"),
		}
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	claims, err := internaljwt.ParseToken(token, internaljwt.RoleUser)
	if err != nil {
		return authContext{}, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("parse token: %w", err),
		}
	}

	userID, _ := claims["id"].(string)
	organizationID, _ := claims["organizationId"].(string)
	email, _ := claims["email"].(string)
	if userID == "" || organizationID == "" {
		return authContext{}, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("token missing identifiers"),
		}
	}

	return authContext{
		UserID:         userID,
		OrganizationID: organizationID,
		Email:          email,
	}, nil
}
